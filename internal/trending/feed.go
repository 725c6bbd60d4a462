package trending

import (
	"context"

	"github.com/lukman83/buysmart/internal/api"
	"github.com/lukman83/buysmart/internal/models"
	"go.uber.org/zap"
)

// Window and limit bounds, matching what the backend accepts.
const (
	DefaultDays  = 7
	DefaultLimit = 8
	MaxDays      = 30
	MaxLimit     = 50
)

// EmptyMessage is shown when a window has no trending products.
const EmptyMessage = "No trending products yet. Search and click products to build trends."

type Backend interface {
	TrendingProducts(ctx context.Context, days, limit int) (*api.TrendingResponse, error)
	TrendingSearches(ctx context.Context, days, limit int) ([]models.TrendingSearch, error)
}

// Result is one trending fetch. An empty Result is a valid outcome and is
// distinct from an error.
type Result struct {
	Days     int
	Since    string
	Products []models.Product
}

func (r Result) Empty() bool { return len(r.Products) == 0 }

// Feed fetches popularity rankings on demand. It keeps no state between
// calls.
type Feed struct {
	backend Backend
	logger  *zap.Logger
}

func NewFeed(backend Backend, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{backend: backend, logger: logger}
}

// Load returns the most-clicked products over the last days. Zero values
// take the defaults; anything else is clamped to the supported bounds.
func (f *Feed) Load(ctx context.Context, days, limit int) (Result, error) {
	days, limit = bounds(days, limit)

	resp, err := f.backend.TrendingProducts(ctx, days, limit)
	if err != nil {
		return Result{}, err
	}
	f.logger.Debug("trending loaded", zap.Int("days", days), zap.Int("items", len(resp.Items)))
	return Result{Days: days, Since: resp.Since, Products: resp.Items}, nil
}

// Searches returns the most frequent queries over the last days.
func (f *Feed) Searches(ctx context.Context, days, limit int) ([]models.TrendingSearch, error) {
	days, limit = bounds(days, limit)
	return f.backend.TrendingSearches(ctx, days, limit)
}

func bounds(days, limit int) (int, int) {
	if days == 0 {
		days = DefaultDays
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	return clamp(days, 1, MaxDays), clamp(limit, 1, MaxLimit)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
