package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const apiKeyHeader = "X-API-KEY"

// APIError is returned by Client for non-2xx responses and transport failures.
// StatusCode is zero when no response was received.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client is a thin HTTP client for the WeatherXM PRO API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client that sends apiKey on every request.
// A zero timeout leaves the transport defaults in place.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: roundTripperWithAPIKey(http.DefaultTransport, apiKey),
		},
	}
}

// Get issues a GET for path relative to the base URL and returns the raw body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: upstreamMessage(resp.StatusCode, body)}
	}

	return body, nil
}

// upstreamMessage prefers the "message" field of an error body.
func upstreamMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "message"); msg.Exists() && msg.Type != gjson.Null {
			return msg.String()
		}
	}
	return fmt.Sprintf("Request failed with status code %d", status)
}

// roundTripperWithAPIKey injects the API key header.
func roundTripperWithAPIKey(base http.RoundTripper, apiKey string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		clone := r.Clone(r.Context())
		clone.Header.Set(apiKeyHeader, apiKey)
		return base.RoundTrip(clone)
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func stationPath(stationID, suffix string) string {
	return "/stations/" + url.PathEscape(stationID) + suffix
}

func cellPath(cellIndex, suffix string) string {
	return "/cells/" + url.PathEscape(cellIndex) + suffix
}
