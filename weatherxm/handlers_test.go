package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

const stationsBody = `{"stations":[{"id":"XYZ123","name":"Foggy Peak","location":{"lat":37.7749,"lon":-122.4194}}],"total":1}`

func indented(body string) string {
	var buf bytes.Buffer
	Expect(json.Indent(&buf, []byte(body), "", "  ")).To(Succeed())
	return buf.String()
}

type toolCase struct {
	tool  string
	args  map[string]any
	path  string
	query string
}

var toolCases = []toolCase{
	{ToolStationsNear, map[string]any{"lat": 37.7749, "lon": -122.4194, "radius": 1000}, "/stations/near", "lat=37.7749&lon=-122.4194&radius=1000"},
	{ToolStationsBounds, map[string]any{"min_lat": 40, "min_lon": -74, "max_lat": 41, "max_lon": -73}, "/stations/bounds", "min_lat=40&min_lon=-74&max_lat=41&max_lon=-73"},
	{ToolAllStations, map[string]any{}, "/stations", ""},
	{ToolLatestObservation, map[string]any{"station_id": "12345"}, "/stations/12345/latest", ""},
	{ToolHistoricalObservations, map[string]any{"station_id": "XYZ123", "date": "2023-05-10"}, "/stations/XYZ123/history", "date=2023-05-10"},
	{ToolSearchCells, map[string]any{"region_query": "Athens"}, "/cells/search", "query=Athens"},
	{ToolStationsInCell, map[string]any{"cell_index": "872a1072bffffff"}, "/cells/872a1072bffffff/stations", ""},
	{ToolCellForecast, map[string]any{
		"forecast_cell_index": "872a1072bffffff",
		"forecast_from":       "2024-06-01",
		"forecast_to":         "2024-06-03",
		"forecast_include":    "daily",
	}, "/cells/872a1072bffffff/forecast", "from=2024-06-01&to=2024-06-03&include=daily"},
	{ToolHyperlocalForecast, map[string]any{"station_id": "XYZ123", "variable": "temperature", "timezone": "Europe/Athens"}, "/stations/XYZ123/hyperlocal", "variable=temperature&timezone=Europe%2FAthens"},
	{ToolFactPerformance, map[string]any{"station_id": "XYZ123", "variable": "windSpeed"}, "/stations/XYZ123/fact/performance", "variable=windSpeed"},
	{ToolFactRanking, map[string]any{"station_id": "XYZ123"}, "/stations/XYZ123/fact/ranking", ""},
}

func verifyUpstream(tc toolCase) http.HandlerFunc {
	verify := ghttp.VerifyRequest(http.MethodGet, tc.path)
	if tc.query != "" {
		verify = ghttp.VerifyRequest(http.MethodGet, tc.path, tc.query)
	}
	return ghttp.CombineHandlers(verify, ghttp.VerifyHeaderKV(apiKeyHeader, testAPIKey))
}

var _ = Describe("Tools", func() {
	var (
		ctx      context.Context
		upstream *ghttp.Server
		session  *mcp.ClientSession
	)

	BeforeEach(func() {
		ctx = context.Background()
		upstream = ghttp.NewServer()
		DeferCleanup(upstream.Close)
		session = connectSession(ctx, upstream.URL())
	})

	call := func(tool string, args map[string]any) *mcp.CallToolResult {
		GinkgoHelper()
		res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: args})
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	Context("Catalog", func() {
		It("should list every tool exactly once", func() {
			res, err := session.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())

			names := []string{}
			for _, t := range res.Tools {
				names = append(names, t.Name)
			}
			expected := []string{}
			for _, tc := range toolCases {
				expected = append(expected, tc.tool)
			}
			Expect(names).To(ConsistOf(expected))
		})
	})

	Context("Successful upstream responses", func() {
		for _, tc := range toolCases {
			It("should return the indented upstream body for "+tc.tool, func() {
				upstream.AppendHandlers(ghttp.CombineHandlers(
					verifyUpstream(tc),
					ghttp.RespondWith(http.StatusOK, stationsBody),
				))

				res := call(tc.tool, tc.args)
				Expect(res.IsError).To(BeFalse())
				Expect(resultText(res)).To(Equal(indented(stationsBody)))
				Expect(upstream.ReceivedRequests()).To(HaveLen(1))
			})
		}
	})

	Context("Upstream errors", func() {
		for _, tc := range toolCases {
			It("should report the upstream message for "+tc.tool, func() {
				upstream.AppendHandlers(ghttp.CombineHandlers(
					verifyUpstream(tc),
					ghttp.RespondWith(http.StatusNotFound, `{"message": "X"}`),
				))

				res := call(tc.tool, tc.args)
				Expect(res.IsError).To(BeTrue())
				Expect(resultText(res)).To(Equal("WeatherXM API error: X"))
			})
		}

		It("should fall back to the status text when the body has no message", func() {
			upstream.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, `{"error": "boom"}`))

			res := call(ToolAllStations, map[string]any{})
			Expect(res.IsError).To(BeTrue())
			Expect(resultText(res)).To(Equal("WeatherXM API error: Request failed with status code 500"))
		})
	})

	Context("End-to-end examples", func() {
		It("should query stations near a point with the API key", func() {
			upstream.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/stations/near", "lat=37.7749&lon=-122.4194&radius=1000"),
				ghttp.VerifyHeaderKV("X-API-KEY", testAPIKey),
				ghttp.RespondWith(http.StatusOK, `[{"id":"abc","distance":12.5}]`),
			))

			res := call(ToolStationsNear, map[string]any{"lat": 37.7749, "lon": -122.4194, "radius": 1000})
			Expect(res.IsError).To(BeFalse())
			Expect(resultText(res)).To(Equal("[\n  {\n    \"id\": \"abc\",\n    \"distance\": 12.5\n  }\n]"))
			Expect(upstream.ReceivedRequests()).To(HaveLen(1))
		})

		It("should query a station's history for a date", func() {
			upstream.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/stations/XYZ123/history", "date=2023-05-10"),
				ghttp.RespondWith(http.StatusOK, `{"observations":[]}`),
			))

			res := call(ToolHistoricalObservations, map[string]any{"station_id": "XYZ123", "date": "2023-05-10"})
			Expect(res.IsError).To(BeFalse())
			Expect(upstream.ReceivedRequests()).To(HaveLen(1))
			Expect(upstream.ReceivedRequests()[0].URL.RawQuery).To(Equal("date=2023-05-10"))
		})
	})

	Context("Variable validation", func() {
		expected := "Invalid variable provided: pressure. Allowed variables are: temperature, humidity, precipitation, windSpeed, windDirection"

		It("should reject an unknown hyperlocal forecast variable before calling upstream", func() {
			res := call(ToolHyperlocalForecast, map[string]any{"station_id": "XYZ123", "variable": "pressure"})
			Expect(res.IsError).To(BeTrue())
			Expect(resultText(res)).To(Equal(expected))
			Expect(upstream.ReceivedRequests()).To(BeEmpty())
		})

		It("should reject an unknown fact performance variable before calling upstream", func() {
			res := call(ToolFactPerformance, map[string]any{"station_id": "XYZ123", "variable": "pressure"})
			Expect(res.IsError).To(BeTrue())
			Expect(resultText(res)).To(Equal(expected))
			Expect(upstream.ReceivedRequests()).To(BeEmpty())
		})

		It("should omit the timezone when it is not given", func() {
			upstream.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/stations/XYZ123/hyperlocal", "variable=humidity"),
				ghttp.RespondWith(http.StatusOK, `{}`),
			))

			res := call(ToolHyperlocalForecast, map[string]any{"station_id": "XYZ123", "variable": "humidity"})
			Expect(res.IsError).To(BeFalse())
			Expect(upstream.ReceivedRequests()[0].URL.Query()).NotTo(HaveKey("timezone"))
		})
	})

	Context("Schema validation", func() {
		It("should reject an unsupported forecast_include before the handler runs", func() {
			res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: ToolCellForecast, Arguments: map[string]any{
				"forecast_cell_index": "872a1072bffffff",
				"forecast_from":       "2024-06-01",
				"forecast_to":         "2024-06-03",
				"forecast_include":    "weekly",
			}})
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(ContainSubstring("invalid params")))
			Expect(err).To(MatchError(ContainSubstring("forecast_include")))
			Expect(upstream.ReceivedRequests()).To(BeEmpty())
		})

		It("should reject a call missing a required parameter", func() {
			res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: ToolLatestObservation, Arguments: map[string]any{}})
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(ContainSubstring("station_id")))
			Expect(upstream.ReceivedRequests()).To(BeEmpty())
		})
	})

	Context("Path segments", func() {
		It("should escape station identifiers", func() {
			upstream.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/stations/a b/latest"),
				ghttp.RespondWith(http.StatusOK, `{}`),
			))

			res := call(ToolLatestObservation, map[string]any{"station_id": "a b"})
			Expect(res.IsError).To(BeFalse())
			Expect(upstream.ReceivedRequests()[0].URL.EscapedPath()).To(Equal("/stations/a%20b/latest"))
		})
	})
})
