// Package deals gets shoppers to a marketplace listing and keeps an eye on
// its price afterwards.
package deals

import (
	"context"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/lukman83/buysmart/internal/api"
	"github.com/lukman83/buysmart/internal/metrics"
	"github.com/lukman83/buysmart/internal/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrLinkUnavailable means neither a tracked redirect nor the product's own
// URL could be produced.
var ErrLinkUnavailable = errors.New("link not available")

// Click sources recorded with a redirect.
const (
	SourceSearch   = "search"
	SourceTrending = "trending"
	SourceWishlist = "wishlist"
)

type RedirectBackend interface {
	CreateRedirect(ctx context.Context, req api.RedirectRequest) (string, error)
	ResolveURL(ref string) (string, error)
}

// Linker resolves the URL to send a shopper to. Tracked redirects are
// preferred; the listing URL is the fallback.
type Linker struct {
	backend RedirectBackend
	logger  *zap.Logger
	metrics *metrics.Metrics
	open    func(url string)
}

func NewLinker(backend RedirectBackend, logger *zap.Logger, m *metrics.Metrics) *Linker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Linker{backend: backend, logger: logger, metrics: m, open: launcher.Open}
}

// Resolve registers a click and returns the redirect URL. If that fails the
// product's own URL is returned, and ErrLinkUnavailable if it has none.
func (l *Linker) Resolve(ctx context.Context, p models.Product, source, query string) (string, error) {
	if source == "" {
		source = SourceSearch
	}
	req := api.RedirectRequest{
		ProductID:   p.ID,
		Source:      source,
		SearchQuery: strings.TrimSpace(query),
	}
	if p.Name != "" {
		req.ProductData = &p
	}

	link, err := l.backend.CreateRedirect(ctx, req)
	if err == nil {
		var abs string
		if abs, err = l.backend.ResolveURL(link); err == nil {
			return abs, nil
		}
	}
	l.recordSecondary("redirect.create", err)

	if u := strings.TrimSpace(p.ProductURL); u != "" {
		return u, nil
	}
	return "", ErrLinkUnavailable
}

// Open resolves the link and hands it to the system browser.
func (l *Linker) Open(ctx context.Context, p models.Product, source, query string) (string, error) {
	u, err := l.Resolve(ctx, p, source, query)
	if err != nil {
		return "", err
	}
	l.open(u)
	return u, nil
}

func (l *Linker) recordSecondary(op string, err error) {
	failure := api.SecondaryFailure{Op: op, Err: err}
	l.metrics.IncSecondaryFailure(op)
	l.logger.Warn("falling back to listing url", zap.String("op", op), zap.Error(failure))
}
