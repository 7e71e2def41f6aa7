package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one case.
type Result struct {
	Case       Case
	Transcript Transcript
	Grade      Grade
	Err        error
}

// CalledExpectedTool reports whether the agent used the tool the case targets.
func (r Result) CalledExpectedTool() bool {
	return slices.Contains(r.Transcript.ToolNames(), r.Case.Tool)
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func runCase(ctx context.Context, c Case, agent *Agent, grader *Grader) Result {
	logger := log.FromContext(ctx).With("case", c.Tool)
	result := Result{Case: c}

	transcript, err := agent.Run(ctx, c.Prompt)
	result.Transcript = transcript
	if err != nil {
		logger.Error("agent run failed", "err", err)
		result.Err = err
		return result
	}

	grade, err := grader.Grade(ctx, c.Prompt, transcript)
	if err != nil {
		logger.Error("grading failed", "err", err)
		result.Err = err
		return result
	}
	result.Grade = grade

	logger.Info("case graded", "average", grade.Average(), "tools", strings.Join(transcript.ToolNames(), ","))
	return result
}

// runCases runs every case with at most concurrency in flight. Results keep
// the order of cases.
func runCases(ctx context.Context, cases []Case, agent *Agent, grader *Grader, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(cases))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, c := range cases {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Case: c, Err: err}
				return nil
			}
			results[i] = runCase(ctx, c, agent, grader)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func printReport(w io.Writer, results []Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tTOOL CALLED\tACC\tCOMP\tREL\tCLAR\tREAS\tAVG\tCOMMENTS")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\t-\terror: %v\n", r.Case.Name, r.Err)
			continue
		}
		g := r.Grade
		fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t%d\t%d\t%d\t%.1f\t%s\n",
			r.Case.Name, r.CalledExpectedTool(),
			g.Accuracy, g.Completeness, g.Relevance, g.Clarity, g.Reasoning,
			g.Average(), g.OverallComments)
	}
	tw.Flush()
}

func failed(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

func run(ctx context.Context, logger *log.Logger) (bool, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return false, errors.New("OPENAI_API_KEY environment variable is required")
	}
	llmConfig := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		llmConfig.BaseURL = baseURL
	}
	llm := openai.NewClientWithConfig(llmConfig)
	model := getEnv("EVALS_MODEL", openai.GPT4)

	command := strings.Fields(getEnv("EVALS_SERVER_COMMAND", "weatherxm"))
	if len(command) == 0 {
		return false, errors.New("EVALS_SERVER_COMMAND is empty")
	}
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stderr = os.Stderr

	client := mcp.NewClient(&mcp.Implementation{Name: "weatherxm-evals", Version: "v1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start %q: %w", strings.Join(command, " "), err)
	}
	defer session.Close()

	listed, err := session.ListTools(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to list tools: %w", err)
	}
	tools, err := openAITools(listed.Tools)
	if err != nil {
		return false, err
	}
	logger.Info("connected to server", "tools", len(tools), "model", model)

	cases := filterCases(Cases, os.Getenv("EVALS_FILTER"))
	results := runCases(log.WithContext(ctx, logger), cases,
		NewAgent(llm, model, session, tools), NewGrader(llm, model),
		getEnvInt("EVALS_CONCURRENCY", 2))

	printReport(os.Stdout, results)
	return failed(results), nil
}

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "evals"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	anyFailed, err := run(ctx, logger)
	if err != nil {
		logger.Fatal("Error running evals", "err", err)
	}
	if anyFailed {
		stop()
		os.Exit(1)
	}
}
