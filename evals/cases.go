package main

import "strings"

// Case is a natural-language prompt that should lead an agent to one tool.
type Case struct {
	Name        string
	Description string
	Tool        string
	Prompt      string
}

var Cases = []Case{
	{
		Name:        "get_stations_near Tool Evaluation",
		Description: "Evaluates the get_stations_near tool",
		Tool:        "get_stations_near",
		Prompt:      "Find weather stations near latitude 37.7749, longitude -122.4194 within 1000 meters.",
	},
	{
		Name:        "get_stations_bounds Tool Evaluation",
		Description: "Evaluates the bounding box station retrieval functionality",
		Tool:        "get_stations_bounds",
		Prompt:      "Retrieve weather stations between latitudes 40 and 41, and longitudes -74 and -73.",
	},
	{
		Name:        "get_all_stations Evaluation",
		Description: "Evaluates retrieving a list of stations",
		Tool:        "get_all_stations",
		Prompt:      "Could you retrieve all stations using the get_all_stations tool?",
	},
	{
		Name:        "get_latest_observation Tool Evaluation",
		Description: "Evaluates the retrieval of the latest observation from a weather station",
		Tool:        "get_latest_observation",
		Prompt:      "Retrieve the latest observation from the station with ID 12345.",
	},
	{
		Name:        "get_historical_observations Tool Evaluation",
		Description: "Evaluates the retrieval of historical observations for a given station and date",
		Tool:        "get_historical_observations",
		Prompt:      "Please provide historical weather observations for station ID XYZ123 on 2023-05-10, including temperature and precipitation details.",
	},
	{
		Name:        "search_cells_in_region Tool Evaluation",
		Description: "Evaluates searching H3 cells by region name",
		Tool:        "search_cells_in_region",
		Prompt:      "Which WeatherXM cells cover the region of Athens?",
	},
	{
		Name:        "get_stations_in_cell Tool Evaluation",
		Description: "Evaluates listing the stations of an H3 cell",
		Tool:        "get_stations_in_cell",
		Prompt:      "List the weather stations inside the H3 cell 872a1072bffffff.",
	},
	{
		Name:        "get_forecast_for_cell Tool Evaluation",
		Description: "Evaluates retrieving a cell forecast for a date range",
		Tool:        "get_forecast_for_cell",
		Prompt:      "Give me the daily forecast for cell 872a1072bffffff from 2024-06-01 to 2024-06-03.",
	},
	{
		Name:        "get_hyperlocal_forecast Tool Evaluation",
		Description: "Evaluates retrieving a hyperlocal forecast for a station variable",
		Tool:        "get_hyperlocal_forecast",
		Prompt:      "What is the hyperlocal temperature forecast for station XYZ123 in the Europe/Athens timezone?",
	},
	{
		Name:        "get_fact_performance Tool Evaluation",
		Description: "Evaluates retrieving the forecast performance of a station",
		Tool:        "get_fact_performance",
		Prompt:      "How well has the humidity forecast performed for station XYZ123?",
	},
	{
		Name:        "get_fact_ranking Tool Evaluation",
		Description: "Evaluates retrieving the forecast ranking of a station",
		Tool:        "get_fact_ranking",
		Prompt:      "How does station XYZ123 rank in forecast quality?",
	},
}

// filterCases keeps the cases whose tool name contains filter.
func filterCases(cases []Case, filter string) []Case {
	if filter == "" {
		return cases
	}
	out := []Case{}
	for _, c := range cases {
		if strings.Contains(c.Tool, filter) {
			out = append(out, c)
		}
	}
	return out
}
