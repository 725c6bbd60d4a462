package search

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lukman83/buysmart/internal/api"
	"github.com/lukman83/buysmart/internal/metrics"
	"github.com/lukman83/buysmart/internal/models"
	"github.com/lukman83/buysmart/internal/platform"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultTimeout sits well above the worst live-scrape latency.
const DefaultTimeout = 60 * time.Second

// ErrSuperseded is returned to a caller whose search finished after a newer
// one was started. Its response is dropped.
var ErrSuperseded = errors.New("search superseded by a newer query")

type Phase int

const (
	Idle Phase = iota
	Searching
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Result is one search's outcome in server order.
type Result struct {
	Query    string
	Products []models.Product
	Count    int
	Message  string
	Sources  []string
}

// State is a snapshot of the orchestrator.
type State struct {
	Phase  Phase
	Query  string
	Result Result
	Err    error
	Stats  *models.Stats
}

// Backend is the slice of the API the orchestrator calls.
type Backend interface {
	Search(ctx context.Context, req api.SearchRequest) (*api.SearchResponse, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

type Options struct {
	Timeout              time.Duration
	KeepResultsOnFailure bool
	Logger               *zap.Logger
	Metrics              *metrics.Metrics
}

// Orchestrator drives the search lifecycle. Searches may overlap; only the
// most recently started one is allowed to update state.
type Orchestrator struct {
	backend Backend
	opts    Options
	latest  atomic.Uint64

	mu    sync.Mutex
	state State
}

func NewOrchestrator(backend Backend, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Orchestrator{backend: backend, opts: opts}
}

// State returns a copy of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.state
	s.Result.Products = append([]models.Product(nil), o.state.Result.Products...)
	s.Result.Sources = append([]string(nil), o.state.Result.Sources...)
	return s
}

// Search validates input, runs the search and applies the response if no
// newer search has started meanwhile. Validation failures leave state and
// the network untouched.
func (o *Orchestrator) Search(ctx context.Context, query string, f Filters) (Result, error) {
	req, err := Normalize(query, f)
	if err != nil {
		return Result{}, err
	}

	token := o.latest.Add(1)
	o.mu.Lock()
	o.state.Phase = Searching
	o.state.Query = req.Query
	o.state.Err = nil
	o.mu.Unlock()

	mode := "fast"
	if !req.FastMode {
		mode = "full"
	}
	if req.IncludeLiveScraping {
		mode += " + live"
	}
	platform.ReportProgress(ctx, fmt.Sprintf("Searching %q (%s)...", req.Query, mode))
	o.opts.Logger.Debug("search started",
		zap.String("query", req.Query), zap.Uint64("token", token),
		zap.Bool("fast_mode", req.FastMode), zap.Bool("live", req.IncludeLiveScraping))

	callCtx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	resp, err := o.backend.Search(callCtx, req)
	cancel()

	o.mu.Lock()
	if token != o.latest.Load() {
		o.mu.Unlock()
		o.opts.Metrics.IncSearch("superseded")
		o.opts.Logger.Debug("dropping stale search response", zap.String("query", req.Query), zap.Uint64("token", token))
		return Result{}, ErrSuperseded
	}

	if err != nil {
		o.state.Phase = Failed
		o.state.Err = err
		if !o.opts.KeepResultsOnFailure {
			o.state.Result = Result{}
		}
		o.mu.Unlock()
		o.opts.Metrics.IncSearch("failed")
		o.opts.Logger.Warn("search failed", zap.String("query", req.Query), zap.String("reason", api.ErrorLabel(err)), zap.Error(err))
		return Result{}, err
	}

	res := Result{
		Query:    req.Query,
		Products: resp.Results,
		Count:    len(resp.Results),
		Message:  resp.Message,
		Sources:  resp.Sources,
	}
	if resp.Count != nil {
		res.Count = *resp.Count
	}
	o.state.Phase = Succeeded
	o.state.Result = res
	o.mu.Unlock()
	o.opts.Metrics.IncSearch("succeeded")
	o.opts.Logger.Info("search done", zap.String("query", req.Query), zap.Int("results", res.Count))

	o.refreshStats(ctx, token)
	return res, nil
}

// refreshStats is best effort: failure is recorded and otherwise ignored.
func (o *Orchestrator) refreshStats(ctx context.Context, token uint64) {
	stats, err := o.backend.Stats(ctx)
	if err != nil {
		o.recordSecondary("stats", err)
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if token == o.latest.Load() {
		o.state.Stats = stats
	}
}

func (o *Orchestrator) recordSecondary(op string, err error) {
	failure := api.SecondaryFailure{Op: op, Err: err}
	o.opts.Metrics.IncSecondaryFailure(op)
	o.opts.Logger.Warn("ignored failure", zap.String("op", op), zap.Error(failure))
}
