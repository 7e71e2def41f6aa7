package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const graderSystemPrompt = `You are an expert evaluator assessing how well an assistant answered a question using weather data tools.
Score each criterion from 1 (poor) to 5 (excellent):
- accuracy: the answer is correct given the tool results
- completeness: the answer covers every part of the question
- relevance: the answer stays on the question
- clarity: the answer is easy to understand
- reasoning: the tools chosen and their arguments fit the question
Respond with a JSON object only:
{"accuracy": n, "completeness": n, "relevance": n, "clarity": n, "reasoning": n, "overall_comments": "..."}`

// Grade is the grader's verdict for one case.
type Grade struct {
	Accuracy        int    `json:"accuracy"`
	Completeness    int    `json:"completeness"`
	Relevance       int    `json:"relevance"`
	Clarity         int    `json:"clarity"`
	Reasoning       int    `json:"reasoning"`
	OverallComments string `json:"overall_comments"`
}

// Average is the mean of the five scores.
func (g Grade) Average() float64 {
	return float64(g.Accuracy+g.Completeness+g.Relevance+g.Clarity+g.Reasoning) / 5
}

func (g Grade) validate() error {
	for name, score := range map[string]int{
		"accuracy":     g.Accuracy,
		"completeness": g.Completeness,
		"relevance":    g.Relevance,
		"clarity":      g.Clarity,
		"reasoning":    g.Reasoning,
	} {
		if score < 1 || score > 5 {
			return fmt.Errorf("%s score %d out of range 1-5", name, score)
		}
	}
	return nil
}

// Grader scores transcripts with a chat model.
type Grader struct {
	llm   chatClient
	model string
}

func NewGrader(llm chatClient, model string) *Grader {
	return &Grader{llm: llm, model: model}
}

func (g *Grader) Grade(ctx context.Context, prompt string, transcript Transcript) (Grade, error) {
	resp, err := g.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: graderSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: gradingInput(prompt, transcript)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return Grade{}, fmt.Errorf("grading completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Grade{}, errors.New("grading completion returned no choices")
	}
	return parseGrade(resp.Choices[0].Message.Content)
}

func gradingInput(prompt string, transcript Transcript) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\n", prompt)
	b.WriteString("Tool calls:\n")
	if len(transcript.ToolCalls) == 0 {
		b.WriteString("(none)\n")
	}
	for _, c := range transcript.ToolCalls {
		status := "ok"
		if c.IsError {
			status = "error"
		}
		fmt.Fprintf(&b, "- %s %s [%s]\n%s\n", c.Name, c.Arguments, status, c.Result)
	}
	fmt.Fprintf(&b, "\nAnswer:\n%s\n", transcript.Answer)
	return b.String()
}

// parseGrade decodes the grader's JSON, tolerating a markdown code fence.
func parseGrade(content string) (Grade, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	var grade Grade
	if err := json.Unmarshal([]byte(content), &grade); err != nil {
		return Grade{}, fmt.Errorf("failed to parse grade: %w", err)
	}
	if err := grade.validate(); err != nil {
		return Grade{}, err
	}
	return grade, nil
}
