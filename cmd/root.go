package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/lukman83/buysmart/config"
	"github.com/lukman83/buysmart/internal/app"
	"github.com/lukman83/buysmart/internal/logging"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:               "buysmart",
	Short:             "BuySmart - one search across Indian marketplaces",
	Long:              "Search Amazon, Flipkart, Meesho and Myntra at once, compare deals, and track prices from the terminal or over MCP.",
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("api-url", "", "BuySmart API base URL (default http://localhost:5000/api)")
	rootCmd.PersistentFlags().String("config", "", "Path to config.toml")
	rootCmd.PersistentFlags().Bool("verbose", false, "Debug logging on stderr")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	rootCmd.PersistentFlags().String("format", "table", "Output format: json, table")
	rootCmd.PersistentFlags().String("proxy-file", "", "Path to proxy list file")
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()

	path, _ := rootCmd.PersistentFlags().GetString("config")
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return err
		}
	} else if def, err := config.DefaultPath(); err == nil {
		if _, statErr := os.Stat(def); statErr == nil {
			if err := cfg.LoadFile(def); err != nil {
				return err
			}
		}
	}

	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("api-url"); v != "" {
		cfg.APIURL = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("verbose"); v {
		cfg.Verbose = true
	}
	if v, _ := rootCmd.PersistentFlags().GetString("metrics-addr"); v != "" {
		cfg.MetricsAddr = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("proxy-file"); v != "" {
		cfg.ProxyFile = v
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "config")
	}
	logger = logging.New(cfg.Verbose)
	return nil
}

// buildApp wires the client from the loaded config and starts the metrics
// listener when one is configured.
func buildApp() (*app.App, error) {
	a, err := app.New(cfg, logger, app.Options{})
	if err != nil {
		return nil, err
	}
	if cfg.MetricsAddr != "" {
		go serveMetrics(a, cfg.MetricsAddr)
	}
	return a, nil
}

func serveMetrics(a *app.App, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.Metrics.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("metrics listener stopped", zap.String("addr", addr), zap.Error(err))
	}
}

var errNotSignedIn = errors.New("not signed in; run 'buysmart login' first")

// signedIn re-validates the stored credential and fails when anonymous. The
// user data panel is not loaded.
func signedIn(ctx context.Context, a *app.App) error {
	if s := a.Session.Resume(ctx); s.Anonymous() {
		return errNotSignedIn
	}
	return nil
}

func outputFormat(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("format")
	return f
}
