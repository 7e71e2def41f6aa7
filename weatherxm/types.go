package main

import (
	"slices"
	"strings"
)

// AllowedVariables are the weather variables accepted by the hyperlocal
// forecast and forecast performance endpoints.
var AllowedVariables = []string{"temperature", "humidity", "precipitation", "windSpeed", "windDirection"}

// ForecastIncludes are the forecast granularities accepted by get_forecast_for_cell.
var ForecastIncludes = []string{"daily", "hourly"}

func isAllowedVariable(v string) bool {
	return slices.Contains(AllowedVariables, v)
}

func invalidVariableMessage(v string) string {
	return "Invalid variable provided: " + v + ". Allowed variables are: " + strings.Join(AllowedVariables, ", ")
}

// Input types

type StationsNearInput struct {
	Lat    float64 `json:"lat" jsonschema:"Latitude of the center of the area"`
	Lon    float64 `json:"lon" jsonschema:"Longitude of the center of the area"`
	Radius float64 `json:"radius" jsonschema:"Radius in meters for which stations are queried"`
}

type StationsBoundsInput struct {
	MinLat float64 `json:"min_lat" jsonschema:"Minimum latitude of the bounding box"`
	MinLon float64 `json:"min_lon" jsonschema:"Minimum longitude of the bounding box"`
	MaxLat float64 `json:"max_lat" jsonschema:"Maximum latitude of the bounding box"`
	MaxLon float64 `json:"max_lon" jsonschema:"Maximum longitude of the bounding box"`
}

type AllStationsInput struct{}

type StationInput struct {
	StationID string `json:"station_id" jsonschema:"The unique identifier of the station"`
}

type HistoricalObservationsInput struct {
	StationID string `json:"station_id" jsonschema:"The unique identifier of the station"`
	Date      string `json:"date" jsonschema:"Date (YYYY-MM-DD) for historical observations"`
}

type SearchCellsInput struct {
	RegionQuery string `json:"region_query" jsonschema:"The name of the region to search for cells"`
}

type CellInput struct {
	CellIndex string `json:"cell_index" jsonschema:"The H3 index of the cell to return stations for"`
}

type CellForecastInput struct {
	CellIndex string `json:"forecast_cell_index" jsonschema:"The H3 index of the cell to get forecast for"`
	From      string `json:"forecast_from" jsonschema:"The first day for which to get forecast data (YYYY-MM-DD)"`
	To        string `json:"forecast_to" jsonschema:"The last day for which to get forecast data (YYYY-MM-DD)"`
	Include   string `json:"forecast_include" jsonschema:"Types of forecast to include"`
}

type HyperlocalForecastInput struct {
	StationID string `json:"station_id" jsonschema:"The station to get the forecast for."`
	Variable  string `json:"variable" jsonschema:"The weather variable to get the forecast for."`
	Timezone  string `json:"timezone,omitempty" jsonschema:"The timezone to get forecast for. Defaults to station location timezone."`
}

type FactPerformanceInput struct {
	StationID string `json:"station_id" jsonschema:"The station to get the forecast performance for."`
	Variable  string `json:"variable" jsonschema:"The weather variable to get the forecast for."`
}

type FactRankingInput struct {
	StationID string `json:"station_id" jsonschema:"The station to get the forecast ranking for."`
}
