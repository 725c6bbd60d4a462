package userdata

import (
	"context"
	"strings"
	"sync"

	"github.com/lukman83/buysmart/internal/api"
	"github.com/lukman83/buysmart/internal/metrics"
	"github.com/lukman83/buysmart/internal/models"
	"github.com/lukman83/buysmart/internal/platform"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HistoryLimit is how many past searches the panel shows.
const HistoryLimit = 50

// DefaultPurchaseStatus is recorded when the caller gives none.
const DefaultPurchaseStatus = "purchased"

// ErrLoginRequired is returned by every panel operation while anonymous.
var ErrLoginRequired = api.ErrLoginRequired

// Collection names, as reported in Snapshot.Failed.
const (
	Wishlist  = "wishlist"
	Purchases = "purchases"
	History   = "history"
)

// Backend is the slice of the API the panel reads and writes.
type Backend interface {
	Wishlist(ctx context.Context) ([]models.WishlistItem, error)
	Purchases(ctx context.Context) ([]models.PurchaseRecord, error)
	SearchHistory(ctx context.Context, limit int) ([]models.SearchHistoryEntry, error)
	AddToWishlist(ctx context.Context, id models.ProductID, data *models.Product) error
	RemoveFromWishlist(ctx context.Context, id models.ProductID) error
	ConfirmPurchase(ctx context.Context, req api.PurchaseRequest) error
}

// Gate tells the panel whether a user is signed in.
type Gate interface {
	Authenticated() bool
}

// Snapshot is the panel's view of the user's collections. A collection that
// failed to load is empty and named in Failed.
type Snapshot struct {
	Wishlist  []models.WishlistItem
	Purchases []models.PurchaseRecord
	History   []models.SearchHistoryEntry
	Failed    []string
}

type Panel struct {
	backend Backend
	gate    Gate
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	snap Snapshot
}

func NewPanel(backend Backend, gate Gate, logger *zap.Logger, m *metrics.Metrics) *Panel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Panel{backend: backend, gate: gate, logger: logger, metrics: m}
}

// Open loads all collections for a signed-in user.
func (p *Panel) Open(ctx context.Context) (Snapshot, error) {
	return p.Refresh(ctx)
}

// Close forgets what the panel showed.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap = Snapshot{}
}

// Snapshot returns what the panel currently shows.
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copySnapshot(p.snap)
}

// Refresh reloads the three collections concurrently. Each one is applied on
// its own as it arrives; a failure empties that collection only and is not
// returned.
func (p *Panel) Refresh(ctx context.Context) (Snapshot, error) {
	if !p.gate.Authenticated() {
		return Snapshot{}, ErrLoginRequired
	}

	p.mu.Lock()
	p.snap.Failed = nil
	p.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		items, err := p.backend.Wishlist(ctx)
		p.apply(Wishlist, err, func(s *Snapshot) { s.Wishlist = items })
		return nil
	})
	g.Go(func() error {
		items, err := p.backend.Purchases(ctx)
		p.apply(Purchases, err, func(s *Snapshot) { s.Purchases = items })
		return nil
	})
	g.Go(func() error {
		items, err := p.backend.SearchHistory(ctx, HistoryLimit)
		p.apply(History, err, func(s *Snapshot) { s.History = items })
		return nil
	})
	_ = g.Wait()

	return p.Snapshot(), nil
}

// apply swaps in one collection under the lock. On error the collection is
// emptied instead.
func (p *Panel) apply(name string, err error, set func(*Snapshot)) {
	if err != nil {
		p.recordSecondary("userdata."+name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		clearCollection(&p.snap, name)
		p.snap.Failed = append(p.snap.Failed, name)
		return
	}
	set(&p.snap)
}

func clearCollection(s *Snapshot, name string) {
	switch name {
	case Wishlist:
		s.Wishlist = nil
	case Purchases:
		s.Purchases = nil
	case History:
		s.History = nil
	}
}

// AddToWishlist saves product and reloads the panel.
func (p *Panel) AddToWishlist(ctx context.Context, product models.Product) (Snapshot, error) {
	if !p.gate.Authenticated() {
		return Snapshot{}, ErrLoginRequired
	}
	if product.ID == "" {
		return Snapshot{}, api.ValidationError{Field: "product_id", Reason: "is required"}
	}
	if err := p.backend.AddToWishlist(ctx, product.ID, snapshotOf(product)); err != nil {
		return Snapshot{}, err
	}
	return p.Refresh(ctx)
}

// RemoveFromWishlist deletes the item and reloads everything so the panel
// reflects the server, not a local guess.
func (p *Panel) RemoveFromWishlist(ctx context.Context, id models.ProductID) (Snapshot, error) {
	if !p.gate.Authenticated() {
		return Snapshot{}, ErrLoginRequired
	}
	if err := p.backend.RemoveFromWishlist(ctx, id); err != nil {
		return Snapshot{}, err
	}
	return p.Refresh(ctx)
}

// ConfirmPurchase records that the user bought product on its platform.
func (p *Panel) ConfirmPurchase(ctx context.Context, product models.Product, status string) (Snapshot, error) {
	if !p.gate.Authenticated() {
		return Snapshot{}, ErrLoginRequired
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = DefaultPurchaseStatus
	}
	if len(status) > 30 {
		return Snapshot{}, api.ValidationError{Field: "status", Reason: "must be at most 30 characters"}
	}
	pf := product.Platform
	if pf == "" {
		pf = platform.Other
	}
	req := api.PurchaseRequest{ProductID: product.ID, Platform: pf, Status: status, ProductData: snapshotOf(product)}
	if err := p.backend.ConfirmPurchase(ctx, req); err != nil {
		return Snapshot{}, err
	}
	return p.Refresh(ctx)
}

func (p *Panel) recordSecondary(op string, err error) {
	failure := api.SecondaryFailure{Op: op, Err: err}
	p.metrics.IncSecondaryFailure(op)
	p.logger.Warn("ignored failure", zap.String("op", op), zap.Error(failure))
}

// snapshotOf returns the product payload to send alongside an id, or nil when
// only the id is known.
func snapshotOf(p models.Product) *models.Product {
	if p.Name == "" {
		return nil
	}
	return &p
}

func copySnapshot(s Snapshot) Snapshot {
	return Snapshot{
		Wishlist:  append([]models.WishlistItem(nil), s.Wishlist...),
		Purchases: append([]models.PurchaseRecord(nil), s.Purchases...),
		History:   append([]models.SearchHistoryEntry(nil), s.History...),
		Failed:    append([]string(nil), s.Failed...),
	}
}
