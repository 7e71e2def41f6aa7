package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sashabaranov/go-openai"
)

const (
	defaultMaxRounds = 5

	agentSystemPrompt = "You are a weather assistant with access to WeatherXM PRO tools. " +
		"Use the tools to answer the user's question, then answer concisely using the data you received."
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type toolSession interface {
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
}

// ToolCallRecord is one tool invocation made while answering a prompt.
type ToolCallRecord struct {
	Name      string
	Arguments string
	Result    string
	IsError   bool
}

// Transcript is what the agent did for one prompt.
type Transcript struct {
	Answer    string
	ToolCalls []ToolCallRecord
}

// ToolNames returns the tools called, in order.
func (t Transcript) ToolNames() []string {
	names := make([]string, 0, len(t.ToolCalls))
	for _, c := range t.ToolCalls {
		names = append(names, c.Name)
	}
	return names
}

// Agent answers prompts by letting a chat model call MCP tools.
type Agent struct {
	llm       chatClient
	model     string
	session   toolSession
	tools     []openai.Tool
	maxRounds int
}

func NewAgent(llm chatClient, model string, session toolSession, tools []openai.Tool) *Agent {
	return &Agent{llm: llm, model: model, session: session, tools: tools, maxRounds: defaultMaxRounds}
}

// openAITools exposes MCP tools as OpenAI function definitions.
func openAITools(tools []*mcp.Tool) ([]openai.Tool, error) {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		params, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema for %s: %w", t.Name, err)
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  json.RawMessage(params),
			},
		})
	}
	return out, nil
}

// Run answers prompt, executing every tool call the model asks for.
func (a *Agent) Run(ctx context.Context, prompt string) (Transcript, error) {
	var transcript Transcript

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: agentSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	for round := 0; round < a.maxRounds; round++ {
		resp, err := a.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: messages,
			Tools:    a.tools,
		})
		if err != nil {
			return transcript, fmt.Errorf("chat completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return transcript, errors.New("chat completion returned no choices")
		}

		msg := resp.Choices[0].Message
		messages = append(messages, msg)

		if len(msg.ToolCalls) == 0 {
			transcript.Answer = msg.Content
			return transcript, nil
		}

		for _, call := range msg.ToolCalls {
			record := a.callTool(ctx, call)
			transcript.ToolCalls = append(transcript.ToolCalls, record)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    record.Result,
				ToolCallID: call.ID,
			})
		}
	}

	return transcript, fmt.Errorf("no final answer after %d rounds", a.maxRounds)
}

// callTool runs one model-requested tool call. Failures are reported back to
// the model rather than aborting the run.
func (a *Agent) callTool(ctx context.Context, call openai.ToolCall) ToolCallRecord {
	record := ToolCallRecord{Name: call.Function.Name, Arguments: call.Function.Arguments}

	args := map[string]any{}
	if strings.TrimSpace(call.Function.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			record.Result = "invalid tool arguments: " + err.Error()
			record.IsError = true
			return record
		}
	}

	res, err := a.session.CallTool(ctx, &mcp.CallToolParams{Name: call.Function.Name, Arguments: args})
	if err != nil {
		record.Result = "tool call failed: " + err.Error()
		record.IsError = true
		return record
	}

	record.Result = resultText(res)
	record.IsError = res.IsError
	return record
}

func resultText(res *mcp.CallToolResult) string {
	parts := []string{}
	for _, c := range res.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
