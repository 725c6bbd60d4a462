package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/lukman83/buysmart/config"
	"github.com/lukman83/buysmart/internal/app"
	"github.com/lukman83/buysmart/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

const baseURL = "http://api.test/api"

func newTestTools(t *testing.T) (*tools, *httpmock.MockTransport) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.APIURL = baseURL
	cfg.RatePerSecond = 0

	mock := httpmock.NewMockTransport()
	a, err := app.New(cfg, nil, app.Options{Base: mock, Store: &session.MemoryStore{}})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	return &tools{app: a}, mock
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", res.Content[0])
	}
	return tc.Text
}

func TestSearchProductsSendsOnlyGivenFilters(t *testing.T) {
	tl, mock := newTestTools(t)

	var sent map[string]any
	mock.RegisterResponder(http.MethodPost, baseURL+"/search", func(req *http.Request) (*http.Response, error) {
		_ = json.NewDecoder(req.Body).Decode(&sent)
		return httpmock.NewStringResponse(http.StatusOK,
			`{"query":"kettle","count":1,"results":[{"id":1,"name":"Kettle","platform":"amazon","price":899}]}`), nil
	})
	mock.RegisterResponder(http.MethodGet, baseURL+"/stats", httpmock.NewStringResponder(http.StatusOK, `{"total_products":10}`))

	res, err := tl.handleSearchProducts(context.Background(), call(map[string]any{
		"query":     "kettle",
		"max_price": 0.0,
		"platforms": "amazon, flipkart",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), `"Kettle"`) {
		t.Fatalf("result missing product: %s", resultText(t, res))
	}

	filters, _ := sent["filters"].(map[string]any)
	if _, ok := filters["max_price"]; !ok {
		t.Fatalf("max_price 0 must be sent: %v", filters)
	}
	if _, ok := filters["min_price"]; ok {
		t.Fatalf("min_price was not given: %v", filters)
	}
	if got := filters["platforms"]; len(got.([]any)) != 2 {
		t.Fatalf("platforms = %v", got)
	}
}

func TestConcurrentSearchesDoNotSupersedeEachOther(t *testing.T) {
	tl, mock := newTestTools(t)

	started := make(chan struct{})
	release := make(chan struct{})
	mock.RegisterResponder(http.MethodPost, baseURL+"/search", func(req *http.Request) (*http.Response, error) {
		var body struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body.Query == "slow kettle" {
			close(started)
			<-release
		}
		return httpmock.NewStringResponse(http.StatusOK,
			`{"query":"`+body.Query+`","count":1,"results":[{"id":1,"name":"`+body.Query+`","platform":"amazon","price":899}]}`), nil
	})
	mock.RegisterResponder(http.MethodGet, baseURL+"/stats", httpmock.NewStringResponder(http.StatusOK, `{"total_products":10}`))

	var (
		wg   sync.WaitGroup
		slow *mcp.CallToolResult
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		slow, _ = tl.handleSearchProducts(context.Background(), call(map[string]any{"query": "slow kettle"}))
	}()

	<-started
	fast, err := tl.handleSearchProducts(context.Background(), call(map[string]any{"query": "fast phone"}))
	if err != nil {
		t.Fatal(err)
	}
	close(release)
	wg.Wait()

	for _, tc := range []struct {
		query string
		res   *mcp.CallToolResult
	}{{"fast phone", fast}, {"slow kettle", slow}} {
		if tc.res == nil || tc.res.IsError {
			t.Fatalf("%s: expected success, got %+v", tc.query, tc.res)
		}
		if !strings.Contains(resultText(t, tc.res), tc.query) {
			t.Fatalf("%s: wrong result %s", tc.query, resultText(t, tc.res))
		}
	}
}

func TestSearchProductsRejectsBadInput(t *testing.T) {
	tl, mock := newTestTools(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing query", map[string]any{}},
		{"blank query", map[string]any{"query": "   "}},
		{"unknown platform", map[string]any{"query": "tv", "platforms": "ebay"}},
		{"rating above five", map[string]any{"query": "tv", "min_rating": 6.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tl.handleSearchProducts(context.Background(), call(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if !res.IsError {
				t.Fatalf("expected tool error, got %s", resultText(t, res))
			}
		})
	}
	if n := mock.GetTotalCallCount(); n != 0 {
		t.Fatalf("rejected input reached the network %d times", n)
	}
}

func TestAnalyticsOverviewWindow(t *testing.T) {
	tl, mock := newTestTools(t)
	mock.RegisterResponder(http.MethodGet, baseURL+"/analytics/overview?days=7",
		httpmock.NewStringResponder(http.StatusOK, `{"since":"2026-10-01","totals":{"products":4,"users":2,"clicks":9,"purchases":1,"conversion_rate":0.1111}}`))

	res, _ := tl.handleAnalyticsOverview(context.Background(), call(map[string]any{"days": 14}))
	if !res.IsError {
		t.Fatal("14 days is not a supported window")
	}

	res, _ = tl.handleAnalyticsOverview(context.Background(), call(map[string]any{"days": 7}))
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), `"ConversionRate": "11.11%"`) {
		t.Fatalf("unexpected dashboard: %s", resultText(t, res))
	}
}

func TestPriceHistoryOldestFirst(t *testing.T) {
	tl, mock := newTestTools(t)
	mock.RegisterResponder(http.MethodGet, baseURL+"/products/42/price-history",
		httpmock.NewStringResponder(http.StatusOK, `{"items":[
			{"recorded_at":"2026-10-03T10:00:00","price":799},
			{"recorded_at":"2026-10-01T10:00:00","price":999}]}`))

	res, _ := tl.handlePriceHistory(context.Background(), call(map[string]any{"product_id": "42"}))
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var trend []struct{ Label string }
	if err := json.Unmarshal([]byte(resultText(t, res)), &trend); err != nil {
		t.Fatal(err)
	}
	if len(trend) != 2 || trend[0].Label != "Oct 1" {
		t.Fatalf("trend = %+v", trend)
	}
}

func TestHandlerAuthAndHealth(t *testing.T) {
	tl, _ := newTestTools(t)
	h := Handler(tl.app, "secret")

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"healthz is open", http.MethodGet, "/healthz", "", http.StatusOK},
		{"metrics is open", http.MethodGet, "/metrics", "", http.StatusOK},
		{"mcp needs a token", http.MethodPost, "/mcp", "", http.StatusUnauthorized},
		{"mcp rejects a wrong token", http.MethodPost, "/mcp", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
