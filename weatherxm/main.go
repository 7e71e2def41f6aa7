package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "weatherxm-pro-mcp-server"
	serverVersion = "0.5.0"
)

// newServer builds the MCP server with the full tool catalog.
func newServer(client *Client, logger *log.Logger) (*mcp.Server, error) {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	if err := registerTools(server, client, logger); err != nil {
		return nil, err
	}
	return server, nil
}

// startupLogger loads .env first so a log level set there also applies to
// startup errors.
func startupLogger(w io.Writer, dotenvFiles ...string) (*log.Logger, error) {
	err := loadDotEnv(dotenvFiles...)
	return newLogger(w, getEnv("WEATHERXM_MCP_LOG_LEVEL", "info")), err
}

// run reads the configuration and serves until ctx is done. Configuration
// errors are returned before any tool is registered.
func run(ctx context.Context, logOutput io.Writer) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(logOutput, cfg.LogLevel)
	client := NewClient(cfg.BaseURL, cfg.APIKey, cfg.HTTPTimeout)

	server, err := newServer(client, logger)
	if err != nil {
		return err
	}

	return serve(ctx, server, cfg, logger)
}

func main() {
	logger, err := startupLogger(os.Stderr)
	if err != nil {
		logger.Fatal("Error loading .env", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stderr); err != nil && ctx.Err() == nil {
		logger.Fatal("Error running MCP server", "err", err)
	}
}
