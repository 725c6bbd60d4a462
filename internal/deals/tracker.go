package deals

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/lukman83/buysmart/internal/api"
	"github.com/lukman83/buysmart/internal/models"
)

const (
	historyCacheSize = 128
	historyCacheTTL  = 10 * time.Minute
)

type TrackerBackend interface {
	PriceHistory(ctx context.Context, id models.ProductID) ([]models.PricePoint, error)
	PriceAlerts(ctx context.Context) ([]models.PriceAlert, error)
	CreatePriceAlert(ctx context.Context, req api.AlertRequest) (*models.PriceAlert, error)
}

// Gate tells the tracker whether a user is signed in.
type Gate interface {
	Authenticated() bool
}

type alertInput struct {
	ProductID   string  `json:"product_id" validate:"required"`
	TargetPrice float64 `json:"target_price" validate:"gt=0"`
	Email       string  `json:"email" validate:"omitempty,email"`
}

// Tracker reads price history and manages price-drop alerts. History is
// cached briefly since it changes at most once per scrape.
type Tracker struct {
	backend TrackerBackend
	gate    Gate
	history *expirable.LRU[models.ProductID, []models.PricePoint]
}

func NewTracker(backend TrackerBackend, gate Gate) *Tracker {
	return &Tracker{
		backend: backend,
		gate:    gate,
		history: expirable.NewLRU[models.ProductID, []models.PricePoint](historyCacheSize, nil, historyCacheTTL),
	}
}

// PriceHistory returns the recorded prices for id, newest first.
func (t *Tracker) PriceHistory(ctx context.Context, id models.ProductID) ([]models.PricePoint, error) {
	if id == "" {
		return nil, api.ValidationError{Field: "product_id", Reason: "is required"}
	}
	if points, ok := t.history.Get(id); ok {
		return points, nil
	}
	points, err := t.backend.PriceHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	t.history.Add(id, points)
	return points, nil
}

// Alerts lists the signed-in user's price-drop alerts.
func (t *Tracker) Alerts(ctx context.Context) ([]models.PriceAlert, error) {
	if !t.gate.Authenticated() {
		return nil, api.ErrLoginRequired
	}
	return t.backend.PriceAlerts(ctx)
}

// CreateAlert asks to be told when id drops to target or below.
func (t *Tracker) CreateAlert(ctx context.Context, id models.ProductID, target float64, email string) (*models.PriceAlert, error) {
	in := alertInput{ProductID: id.String(), TargetPrice: target, Email: strings.TrimSpace(email)}
	if err := api.CheckStruct(in); err != nil {
		return nil, err
	}
	if !t.gate.Authenticated() {
		return nil, api.ErrLoginRequired
	}
	return t.backend.CreatePriceAlert(ctx, api.AlertRequest{ProductID: id, TargetPrice: target, Email: in.Email})
}
