package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names
const (
	ToolStationsNear           = "get_stations_near"
	ToolStationsBounds         = "get_stations_bounds"
	ToolAllStations            = "get_all_stations"
	ToolLatestObservation      = "get_latest_observation"
	ToolHistoricalObservations = "get_historical_observations"
	ToolSearchCells            = "search_cells_in_region"
	ToolStationsInCell         = "get_stations_in_cell"
	ToolCellForecast           = "get_forecast_for_cell"
	ToolHyperlocalForecast     = "get_hyperlocal_forecast"
	ToolFactPerformance        = "get_fact_performance"
	ToolFactRanking            = "get_fact_ranking"
)

const apiErrorPrefix = "WeatherXM API error: "

// ValidationError rejects a call before anything is sent upstream.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// toolHandler turns the single upstream call behind a tool into a go-sdk
// handler. Upstream and validation failures become IsError results; anything
// else is returned to the runtime unchanged.
func toolHandler[In any](name string, logger *log.Logger, call func(ctx context.Context, input In) (json.RawMessage, error)) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input In) (*mcp.CallToolResult, any, error) {
		l := logger.With("tool", name, "request_id", uuid.NewString())
		ctx = log.WithContext(ctx, l)
		start := time.Now()

		body, err := call(ctx, input)
		if err != nil {
			var apiErr *APIError
			var valErr *ValidationError
			switch {
			case errors.As(err, &valErr):
				l.Debug("rejected tool call", "reason", valErr.Message)
				return errorResult(valErr.Message), nil, nil
			case errors.As(err, &apiErr):
				l.Warn("upstream request failed", "status", apiErr.StatusCode, "err", apiErr.Message, "elapsed", time.Since(start))
				return errorResult(apiErrorPrefix + apiErr.Message), nil, nil
			default:
				l.Error("tool call failed", "err", err)
				return nil, nil, err
			}
		}

		text, err := indentBody(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to format response: %w", err)
		}

		l.Debug("tool call completed", "bytes", len(body), "elapsed", time.Since(start))
		return textResult(text), nil, nil
	}
}

// indentBody pretty-prints a JSON body with two-space indentation, keeping the
// upstream key order. Bodies that are not JSON are encoded as a JSON string.
func indentBody(body []byte) (string, error) {
	body = bytes.TrimSpace(body)

	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err == nil {
		return buf.String(), nil
	}

	buf.Reset()
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(string(body)); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// addTool registers a tool with an explicit input schema inferred from In.
// patch, when non-nil, can tighten the inferred schema.
func addTool[In any](server *mcp.Server, tool *mcp.Tool, handler mcp.ToolHandlerFor[In, any], patch func(*jsonschema.Schema)) error {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return fmt.Errorf("failed to infer schema for %s: %w", tool.Name, err)
	}
	if patch != nil {
		patch(schema)
	}
	tool.InputSchema = schema
	mcp.AddTool(server, tool, handler)
	return nil
}

// enumProperty constrains a string property to a fixed set of values.
func enumProperty(property string, values []string) func(*jsonschema.Schema) {
	return func(s *jsonschema.Schema) {
		prop, ok := s.Properties[property]
		if !ok {
			return
		}
		prop.Enum = make([]any, len(values))
		for i, v := range values {
			prop.Enum[i] = v
		}
	}
}

// registerTools adds the full WeatherXM PRO tool catalog to server.
func registerTools(server *mcp.Server, client *Client, logger *log.Logger) error {
	t := &weatherTools{client: client}

	regs := []func() error{
		func() error {
			return addTool(server, &mcp.Tool{
				Name:        ToolStationsNear,
				Description: "Get weather stations within a radius (in meters) of a latitude/longitude",
			}, toolHandler(ToolStationsNear, logger, t.stationsNear), nil)
		},
		func() error {
			return addTool(server, &mcp.Tool{
				Name:        ToolStationsBounds,
				Description: "Get weather stations inside a latitude/longitude bounding box",
			}, toolHandler(ToolStationsBounds, logger, t.stationsBounds), nil)
		},
		func() error {
			return addTool(server, &mcp.Tool{
				Name:        ToolAllStations,
				Description: "Get all available weather stations",
			}, toolHandler(ToolAllStations, logger, t.allStations), nil)
		},
		func() error {
			return addTool(server, &mcp.Tool{
				Name:        ToolLatestObservation,
				Description: "Get the latest observation of a weather station",
			}, toolHandler(ToolLatestObservation, logger, t.latestObservation), nil)
		},
		func() error {
			return addTool(server, &mcp.Tool{
				Name:        ToolHistoricalObservations,
				Description: "Get the observations of a weather station for a given day",
			}, toolHandler(ToolHistoricalObservations, logger, t.historicalObservations), nil)
		},
		func() error {
			return addTool(server, &mcp.Tool{
				Name:        ToolSearchCells,
				Description: "Search H3 cells by region name",
			}, toolHandler(ToolSearchCells, logger, t.searchCells), nil)
		},
		func() error {
			return addTool(server, &mcp.Tool{
				Name:        ToolStationsInCell,
				Description: "Get the weather stations inside an H3 cell",
			}, toolHandler(ToolStationsInCell, logger, t.stationsInCell), nil)
		},
		func() error {
			return addTool(server, &mcp.Tool{
				Name:        ToolCellForecast,
				Description: "Get the daily or hourly forecast of an H3 cell for a date range",
			}, toolHandler(ToolCellForecast, logger, t.cellForecast), enumProperty("forecast_include", ForecastIncludes))
		},
		func() error {
			return addTool(server, &mcp.Tool{
				Name:        ToolHyperlocalForecast,
				Description: "Get the hyperlocal forecast of a weather station for one variable",
			}, toolHandler(ToolHyperlocalForecast, logger, t.hyperlocalForecast), nil)
		},
		func() error {
			return addTool(server, &mcp.Tool{
				Name:        ToolFactPerformance,
				Description: "Get the forecast performance of a weather station for one variable",
			}, toolHandler(ToolFactPerformance, logger, t.factPerformance), nil)
		},
		func() error {
			return addTool(server, &mcp.Tool{
				Name:        ToolFactRanking,
				Description: "Get the forecast ranking of a weather station",
			}, toolHandler(ToolFactRanking, logger, t.factRanking), nil)
		},
	}

	for _, reg := range regs {
		if err := reg(); err != nil {
			return err
		}
	}
	return nil
}
