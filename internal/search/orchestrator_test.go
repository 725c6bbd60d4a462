package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/lukman83/buysmart/internal/api"
	"github.com/lukman83/buysmart/internal/models"
	"github.com/lukman83/buysmart/internal/transport"
)

const baseURL = "http://api.test/api"

func newHTTPOrchestrator(t *testing.T, opts Options) (*Orchestrator, *httpmock.MockTransport) {
	t.Helper()
	mock := httpmock.NewMockTransport()
	client, err := api.NewClient(api.Options{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Transport: &transport.Transport{Base: mock}},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewOrchestrator(client, opts), mock
}

const twoProducts = `{"query":"phone","count":2,"results":[
	{"id":1,"name":"Phone A","platform":"Amazon","price":100,"rating":4},
	{"id":"live-9","name":"Phone B","platform":"Flipkart","price":50}
],"sources":["cache"]}`

func TestSearchSendsOnlySetFilters(t *testing.T) {
	o, mock := newHTTPOrchestrator(t, Options{})

	var body map[string]any
	mock.RegisterResponder(http.MethodPost, baseURL+"/search", func(req *http.Request) (*http.Response, error) {
		raw, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, err
		}
		return httpmock.NewStringResponse(http.StatusOK, twoProducts), nil
	})
	mock.RegisterResponder(http.MethodGet, baseURL+"/stats",
		httpmock.NewStringResponder(http.StatusOK, `{"total_products":10}`))

	res, err := o.Search(context.Background(), "phone", Filters{MaxPrice: Float(0)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Count != 2 || len(res.Products) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Products[1].ID != "live-9" || res.Products[0].ID != "1" {
		t.Fatalf("ids = %q, %q", res.Products[0].ID, res.Products[1].ID)
	}

	filters, ok := body["filters"].(map[string]any)
	if !ok {
		t.Fatalf("filters missing from %v", body)
	}
	if len(filters) != 1 || filters["max_price"] != float64(0) {
		t.Fatalf("filters = %v, want only max_price:0", filters)
	}
	if body["top_n"] != float64(50) || body["fast_mode"] != true || body["include_live_scraping"] != false {
		t.Fatalf("unexpected payload %v", body)
	}

	st := o.State()
	if st.Phase != Succeeded || st.Stats == nil || st.Stats.TotalProducts != 10 {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestSearchEmptyQueryMakesNoCall(t *testing.T) {
	o, mock := newHTTPOrchestrator(t, Options{})

	_, err := o.Search(context.Background(), "   ", Filters{})
	if !api.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if n := mock.GetTotalCallCount(); n != 0 {
		t.Fatalf("expected no calls, got %d", n)
	}
	if o.State().Phase != Idle {
		t.Fatalf("phase = %v, want idle", o.State().Phase)
	}
}

func TestSearchStatsFailureIsIgnored(t *testing.T) {
	o, mock := newHTTPOrchestrator(t, Options{})
	mock.RegisterResponder(http.MethodPost, baseURL+"/search",
		httpmock.NewStringResponder(http.StatusOK, twoProducts))
	mock.RegisterResponder(http.MethodGet, baseURL+"/stats",
		httpmock.NewStringResponder(http.StatusInternalServerError, `{"error":"boom"}`))

	res, err := o.Search(context.Background(), "phone", Filters{})
	if err != nil {
		t.Fatalf("stats failure leaked: %v", err)
	}
	if len(res.Products) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	st := o.State()
	if st.Phase != Succeeded || st.Err != nil || st.Stats != nil {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestSearchFailureClearsResultsByDefault(t *testing.T) {
	for _, keep := range []bool{false, true} {
		o, mock := newHTTPOrchestrator(t, Options{KeepResultsOnFailure: keep})
		mock.RegisterResponder(http.MethodGet, baseURL+"/stats", httpmock.NewStringResponder(http.StatusOK, `{}`))
		mock.RegisterResponder(http.MethodPost, baseURL+"/search", httpmock.NewStringResponder(http.StatusOK, twoProducts))

		if _, err := o.Search(context.Background(), "phone", Filters{}); err != nil {
			t.Fatalf("first search: %v", err)
		}

		mock.RegisterResponder(http.MethodPost, baseURL+"/search",
			httpmock.NewStringResponder(http.StatusBadGateway, `{"error":"upstream down"}`))
		_, err := o.Search(context.Background(), "tablet", Filters{})
		var reqErr api.RequestError
		if !errors.As(err, &reqErr) || reqErr.Status != http.StatusBadGateway || reqErr.Message != "upstream down" {
			t.Fatalf("expected RequestError 502, got %v", err)
		}

		st := o.State()
		if st.Phase != Failed || st.Err == nil {
			t.Fatalf("keep=%v: unexpected state %+v", keep, st)
		}
		if keep && len(st.Result.Products) != 2 {
			t.Fatalf("keep=%v: results dropped", keep)
		}
		if !keep && len(st.Result.Products) != 0 {
			t.Fatalf("keep=%v: results kept", keep)
		}
	}
}

// fakeBackend lets a test decide when each search call returns.
type fakeBackend struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
	stats   atomic.Int32
}

func (f *fakeBackend) Search(ctx context.Context, req api.SearchRequest) (*api.SearchResponse, error) {
	f.mu.Lock()
	gate := f.gates[req.Query]
	f.mu.Unlock()
	f.started <- req.Query
	select {
	case <-gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &api.SearchResponse{
		Query:   req.Query,
		Results: []models.Product{{ID: models.ProductID(req.Query), Name: req.Query, Price: 1}},
	}, nil
}

func (f *fakeBackend) Stats(context.Context) (*models.Stats, error) {
	f.stats.Add(1)
	return &models.Stats{}, nil
}

func TestStaleSearchResponseIsDiscarded(t *testing.T) {
	fb := &fakeBackend{
		gates:   map[string]chan struct{}{"first": make(chan struct{}), "second": make(chan struct{})},
		started: make(chan string, 2),
	}
	o := NewOrchestrator(fb, Options{Timeout: 5 * time.Second})

	firstErr := make(chan error, 1)
	go func() {
		_, err := o.Search(context.Background(), "first", Filters{})
		firstErr <- err
	}()
	<-fb.started

	secondErr := make(chan error, 1)
	go func() {
		_, err := o.Search(context.Background(), "second", Filters{})
		secondErr <- err
	}()
	<-fb.started

	// the newer search resolves first, the older one after it
	close(fb.gates["second"])
	if err := <-secondErr; err != nil {
		t.Fatalf("second search: %v", err)
	}
	close(fb.gates["first"])
	if err := <-firstErr; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("first search err = %v, want ErrSuperseded", err)
	}

	st := o.State()
	if st.Phase != Succeeded || st.Query != "second" {
		t.Fatalf("unexpected state %+v", st)
	}
	if len(st.Result.Products) != 1 || st.Result.Products[0].Name != "second" {
		t.Fatalf("stale results displayed: %+v", st.Result.Products)
	}
	if n := fb.stats.Load(); n != 1 {
		t.Fatalf("stats refreshed %d times, want 1", n)
	}
}

func TestSearchTimeout(t *testing.T) {
	fb := &fakeBackend{
		gates:   map[string]chan struct{}{"slow": make(chan struct{})},
		started: make(chan string, 1),
	}
	o := NewOrchestrator(fb, Options{Timeout: 20 * time.Millisecond})

	_, err := o.Search(context.Background(), "slow", Filters{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if o.State().Phase != Failed {
		t.Fatalf("phase = %v, want failed", o.State().Phase)
	}
}
