// Package app wires the client components together from configuration.
package app

import (
	"context"
	"net/http"

	"github.com/lukman83/buysmart/config"
	"github.com/lukman83/buysmart/internal/api"
	"github.com/lukman83/buysmart/internal/compare"
	"github.com/lukman83/buysmart/internal/deals"
	"github.com/lukman83/buysmart/internal/httputil"
	"github.com/lukman83/buysmart/internal/metrics"
	"github.com/lukman83/buysmart/internal/search"
	"github.com/lukman83/buysmart/internal/session"
	"github.com/lukman83/buysmart/internal/transport"
	"github.com/lukman83/buysmart/internal/trending"
	"github.com/lukman83/buysmart/internal/userdata"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// App holds one fully wired client.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	Client   *api.Client
	Vault    *session.Vault
	Session  *session.Manager
	Search   *search.Orchestrator
	Compare  *compare.Selector
	Panel    *userdata.Panel
	Trending *trending.Feed
	Links    *deals.Linker
	Tracker  *deals.Tracker
}

// Options overrides pieces of the wiring, mainly for tests.
type Options struct {
	// Base is the innermost round tripper. Defaults to a pooled transport.
	Base http.RoundTripper
	// Store persists the credential. Defaults to a FileStore at
	// cfg.CredentialsPath or the default location.
	Store session.Store
}

// New builds an App from cfg, which must already be validated.
func New(cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := metrics.New()

	store := opts.Store
	if store == nil {
		path := cfg.CredentialsPath
		if path == "" {
			var err error
			if path, err = session.DefaultCredentialsPath(); err != nil {
				return nil, err
			}
		}
		store = session.NewFileStore(path)
	}
	vault, err := session.NewVault(store)
	if err != nil {
		return nil, err
	}

	proxyURLs, err := cfg.ProxyURLs()
	if err != nil {
		return nil, err
	}
	proxies, err := transport.ParseProxies(proxyURLs)
	if err != nil {
		return nil, errors.Wrap(err, "proxies")
	}

	base := opts.Base
	if base == nil {
		base = httputil.NewBaseTransport()
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	}
	rt := &transport.Transport{
		Base:        base,
		Credentials: vault,
		RateLimiter: limiter,
		Proxy:       proxies,
		UserAgent:   cfg.UserAgent,
	}

	client, err := api.NewClient(api.Options{
		BaseURL:        cfg.APIURL,
		HTTPClient:     httputil.NewHTTPClient(rt),
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger.Named("api"),
		Metrics:        m,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Client:  client,
		Vault:   vault,
		Search: search.NewOrchestrator(client, search.Options{
			Timeout:              cfg.SearchTimeout,
			KeepResultsOnFailure: cfg.KeepResultsOnFailure,
			Logger:               logger.Named("search"),
			Metrics:              m,
		}),
		Compare:  compare.NewSelector(),
		Trending: trending.NewFeed(client, logger.Named("trending")),
		Links:    deals.NewLinker(client, logger.Named("deals"), m),
	}
	a.Session = session.NewManager(client, vault, logger.Named("session"), m)
	a.Panel = userdata.NewPanel(client, a.Session, logger.Named("userdata"), m)
	a.Tracker = deals.NewTracker(client, a.Session)

	a.Session.OnAuthenticated(func(ctx context.Context) {
		_, _ = a.Panel.Refresh(ctx)
	})
	a.Session.OnLogout(a.Panel.Close)

	if proxies.Len() > 0 {
		logger.Debug("routing through proxies", zap.Int("count", proxies.Len()))
	}
	return a, nil
}
