package trending

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/lukman83/buysmart/internal/api"
	"github.com/lukman83/buysmart/internal/transport"
)

const baseURL = "http://api.test/api"

func newTestFeed(t *testing.T) (*Feed, *httpmock.MockTransport) {
	t.Helper()
	mock := httpmock.NewMockTransport()
	client, err := api.NewClient(api.Options{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Transport: &transport.Transport{Base: mock}},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewFeed(client, nil), mock
}

func TestLoadClampsBounds(t *testing.T) {
	tests := []struct {
		days, limit int
		query       string
	}{
		{0, 0, "days=7&limit=8"},
		{365, 500, "days=30&limit=50"},
		{-3, -1, "days=1&limit=1"},
		{14, 20, "days=14&limit=20"},
	}
	for _, tt := range tests {
		feed, mock := newTestFeed(t)
		mock.RegisterResponder(http.MethodGet, baseURL+"/trending/products?"+tt.query,
			httpmock.NewStringResponder(http.StatusOK, `{"since":"2026-10-01T00:00:00","count":0,"items":[]}`))

		if _, err := feed.Load(context.Background(), tt.days, tt.limit); err != nil {
			t.Fatalf("Load(%d, %d): %v", tt.days, tt.limit, err)
		}
	}
}

func TestLoadEmptyIsNotAnError(t *testing.T) {
	feed, mock := newTestFeed(t)
	mock.RegisterResponder(http.MethodGet, baseURL+"/trending/products?days=7&limit=8",
		httpmock.NewStringResponder(http.StatusOK, `{"since":"2026-10-09T00:00:00","count":0,"items":[]}`))

	res, err := feed.Load(context.Background(), 7, 8)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !res.Empty() || res.Since == "" || res.Days != 7 {
		t.Fatalf("result = %+v", res)
	}
}

func TestLoadFailureIsAnError(t *testing.T) {
	feed, mock := newTestFeed(t)
	mock.RegisterResponder(http.MethodGet, baseURL+"/trending/products?days=7&limit=8",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, `{"error":"maintenance"}`))

	res, err := feed.Load(context.Background(), 7, 8)
	if err == nil {
		t.Fatal("expected error")
	}
	if api.ErrorLabel(err) != "server" {
		t.Fatalf("label = %q", api.ErrorLabel(err))
	}
	if !res.Empty() {
		t.Fatalf("result = %+v", res)
	}
}

func TestLoadKeepsServerOrder(t *testing.T) {
	feed, mock := newTestFeed(t)
	mock.RegisterResponder(http.MethodGet, baseURL+"/trending/products?days=7&limit=8",
		httpmock.NewStringResponder(http.StatusOK, `{"items":[
			{"id":3,"name":"C","platform":"Meesho","price":10,"clicks":9},
			{"id":1,"name":"A","platform":"Amazon","price":30,"clicks":4}
		]}`))

	res, err := feed.Load(context.Background(), 7, 8)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Empty() || res.Products[0].ID != "3" || res.Products[1].ID != "1" {
		t.Fatalf("products = %+v", res.Products)
	}
}

func TestSearches(t *testing.T) {
	feed, mock := newTestFeed(t)
	mock.RegisterResponder(http.MethodGet, baseURL+"/trending/searches?days=30&limit=5",
		httpmock.NewStringResponder(http.StatusOK, `{"since":"x","count":2,"items":[{"query":"iphone","count":12},{"query":"kurta","count":7}]}`))

	got, err := feed.Searches(context.Background(), 30, 5)
	if err != nil {
		t.Fatalf("Searches: %v", err)
	}
	if len(got) != 2 || got[0].Query != "iphone" || got[0].Count != 12 {
		t.Fatalf("searches = %+v", got)
	}
}
