package main

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// weatherTools maps tool inputs onto WeatherXM PRO endpoints.
type weatherTools struct {
	client *Client
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (t *weatherTools) stationsNear(ctx context.Context, input StationsNearInput) (json.RawMessage, error) {
	return t.client.Get(ctx, "/stations/near", url.Values{
		"lat":    {formatFloat(input.Lat)},
		"lon":    {formatFloat(input.Lon)},
		"radius": {formatFloat(input.Radius)},
	})
}

func (t *weatherTools) stationsBounds(ctx context.Context, input StationsBoundsInput) (json.RawMessage, error) {
	return t.client.Get(ctx, "/stations/bounds", url.Values{
		"min_lat": {formatFloat(input.MinLat)},
		"min_lon": {formatFloat(input.MinLon)},
		"max_lat": {formatFloat(input.MaxLat)},
		"max_lon": {formatFloat(input.MaxLon)},
	})
}

func (t *weatherTools) allStations(ctx context.Context, _ AllStationsInput) (json.RawMessage, error) {
	return t.client.Get(ctx, "/stations", nil)
}

func (t *weatherTools) latestObservation(ctx context.Context, input StationInput) (json.RawMessage, error) {
	return t.client.Get(ctx, stationPath(input.StationID, "/latest"), nil)
}

// The date is forwarded as given; the API reports malformed dates itself.
func (t *weatherTools) historicalObservations(ctx context.Context, input HistoricalObservationsInput) (json.RawMessage, error) {
	return t.client.Get(ctx, stationPath(input.StationID, "/history"), url.Values{
		"date": {input.Date},
	})
}

func (t *weatherTools) searchCells(ctx context.Context, input SearchCellsInput) (json.RawMessage, error) {
	return t.client.Get(ctx, "/cells/search", url.Values{
		"query": {input.RegionQuery},
	})
}

func (t *weatherTools) stationsInCell(ctx context.Context, input CellInput) (json.RawMessage, error) {
	return t.client.Get(ctx, cellPath(input.CellIndex, "/stations"), nil)
}

func (t *weatherTools) cellForecast(ctx context.Context, input CellForecastInput) (json.RawMessage, error) {
	return t.client.Get(ctx, cellPath(input.CellIndex, "/forecast"), url.Values{
		"from":    {input.From},
		"to":      {input.To},
		"include": {input.Include},
	})
}

func (t *weatherTools) hyperlocalForecast(ctx context.Context, input HyperlocalForecastInput) (json.RawMessage, error) {
	if !isAllowedVariable(input.Variable) {
		return nil, &ValidationError{Message: invalidVariableMessage(input.Variable)}
	}

	query := url.Values{"variable": {input.Variable}}
	if input.Timezone != "" {
		query.Set("timezone", input.Timezone)
	}
	return t.client.Get(ctx, stationPath(input.StationID, "/hyperlocal"), query)
}

func (t *weatherTools) factPerformance(ctx context.Context, input FactPerformanceInput) (json.RawMessage, error) {
	if !isAllowedVariable(input.Variable) {
		return nil, &ValidationError{Message: invalidVariableMessage(input.Variable)}
	}

	return t.client.Get(ctx, stationPath(input.StationID, "/fact/performance"), url.Values{
		"variable": {input.Variable},
	})
}

func (t *weatherTools) factRanking(ctx context.Context, input FactRankingInput) (json.RawMessage, error) {
	return t.client.Get(ctx, stationPath(input.StationID, "/fact/ranking"), nil)
}
