package config

import (
	"bufio"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds all application configuration.
type Config struct {
	// Backend
	APIURL         string
	RequestTimeout time.Duration
	SearchTimeout  time.Duration
	UserAgent      string

	// Search behaviour
	KeepResultsOnFailure bool
	IncludeLiveScraping  bool

	// Client-side rate limiting; zero disables it
	RatePerSecond float64
	RateBurst     int

	// Proxy
	Proxies   []string
	ProxyFile string // file with one proxy URL per line

	// Session
	CredentialsPath string

	// HTTP server
	HTTPPort    string
	APIKey      string
	MetricsAddr string

	Verbose bool
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		APIURL:         "http://localhost:5000/api",
		RequestTimeout: 30 * time.Second,
		SearchTimeout:  60 * time.Second,
		UserAgent:      "buysmart-cli/1.0",
		RatePerSecond:  5,
		RateBurst:      10,
		HTTPPort:       "8080",
	}
}

// DefaultPath returns where the optional config file lives.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locate config dir")
	}
	return filepath.Join(dir, "buysmart", "config.toml"), nil
}

type tomlConfig struct {
	APIURL               string   `toml:"api_url"`
	RequestTimeout       string   `toml:"request_timeout"`
	SearchTimeout        string   `toml:"search_timeout"`
	UserAgent            string   `toml:"user_agent"`
	KeepResultsOnFailure *bool    `toml:"keep_results_on_failure"`
	IncludeLiveScraping  *bool    `toml:"include_live_scraping"`
	RatePerSecond        *float64 `toml:"rate_per_second"`
	RateBurst            *int     `toml:"rate_burst"`
	Proxies              []string `toml:"proxies"`
	ProxyFile            string   `toml:"proxy_file"`
	CredentialsPath      string   `toml:"credentials_path"`
	HTTPPort             string   `toml:"http_port"`
	APIKey               string   `toml:"api_key"`
	MetricsAddr          string   `toml:"metrics_addr"`
}

// LoadFile overrides c with the values set in a TOML file.
func (c *Config) LoadFile(path string) error {
	var tc tomlConfig
	if _, err := toml.DecodeFile(path, &tc); err != nil {
		return errors.Wrapf(err, "failed to decode toml file with path: %s", path)
	}

	if tc.APIURL != "" {
		c.APIURL = tc.APIURL
	}
	if tc.RequestTimeout != "" {
		d, err := time.ParseDuration(tc.RequestTimeout)
		if err != nil {
			return errors.Wrapf(err, "failed to parse request_timeout in %s", path)
		}
		c.RequestTimeout = d
	}
	if tc.SearchTimeout != "" {
		d, err := time.ParseDuration(tc.SearchTimeout)
		if err != nil {
			return errors.Wrapf(err, "failed to parse search_timeout in %s", path)
		}
		c.SearchTimeout = d
	}
	if tc.UserAgent != "" {
		c.UserAgent = tc.UserAgent
	}
	if tc.KeepResultsOnFailure != nil {
		c.KeepResultsOnFailure = *tc.KeepResultsOnFailure
	}
	if tc.IncludeLiveScraping != nil {
		c.IncludeLiveScraping = *tc.IncludeLiveScraping
	}
	if tc.RatePerSecond != nil {
		c.RatePerSecond = *tc.RatePerSecond
	}
	if tc.RateBurst != nil {
		c.RateBurst = *tc.RateBurst
	}
	if len(tc.Proxies) > 0 {
		c.Proxies = tc.Proxies
	}
	if tc.ProxyFile != "" {
		c.ProxyFile = tc.ProxyFile
	}
	if tc.CredentialsPath != "" {
		c.CredentialsPath = tc.CredentialsPath
	}
	if tc.HTTPPort != "" {
		c.HTTPPort = tc.HTTPPort
	}
	if tc.APIKey != "" {
		c.APIKey = tc.APIKey
	}
	if tc.MetricsAddr != "" {
		c.MetricsAddr = tc.MetricsAddr
	}
	return nil
}

// LoadFromEnv loads .env file (if present) then overrides config from environment variables.
func (c *Config) LoadFromEnv() {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	if v := os.Getenv("BUYSMART_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("BUYSMART_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestTimeout = d
		}
	}
	if v := os.Getenv("BUYSMART_SEARCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SearchTimeout = d
		}
	}
	if v := os.Getenv("BUYSMART_KEEP_RESULTS_ON_FAILURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.KeepResultsOnFailure = b
		}
	}
	if v := os.Getenv("BUYSMART_LIVE_SCRAPING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.IncludeLiveScraping = b
		}
	}
	if v := os.Getenv("BUYSMART_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RatePerSecond = f
		}
	}
	if v := os.Getenv("BUYSMART_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateBurst = n
		}
	}
	if v := os.Getenv("BUYSMART_PROXIES"); v != "" {
		c.Proxies = strings.Split(v, ",")
	}
	if v := os.Getenv("BUYSMART_PROXY_FILE"); v != "" {
		c.ProxyFile = v
	}
	if v := os.Getenv("BUYSMART_CREDENTIALS"); v != "" {
		c.CredentialsPath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.HTTPPort = v
	}
	if v := os.Getenv("BUYSMART_MCP_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("BUYSMART_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api url cannot be empty")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return errors.Wrap(err, "invalid api url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("api url must be http or https, got %q", c.APIURL)
	}
	if u.Host == "" {
		return errors.New("api url must include a host")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.SearchTimeout <= 0 {
		return errors.New("search timeout must be positive")
	}
	if c.RatePerSecond < 0 {
		return errors.New("rate per second cannot be negative")
	}
	if c.RatePerSecond > 0 && c.RateBurst <= 0 {
		return errors.New("rate burst must be positive when rate limiting is on")
	}
	if c.HTTPPort != "" {
		if p, err := strconv.Atoi(c.HTTPPort); err != nil || p <= 0 || p > 65535 {
			return errors.Errorf("http port %q is not a valid port", c.HTTPPort)
		}
	}
	return nil
}

// ProxyURLs returns the configured proxies plus any listed in ProxyFile.
// Blank lines and lines starting with # are skipped.
func (c *Config) ProxyURLs() ([]string, error) {
	out := append([]string(nil), c.Proxies...)
	if c.ProxyFile == "" {
		return out, nil
	}
	f, err := os.Open(c.ProxyFile)
	if err != nil {
		return nil, errors.Wrapf(err, "open proxy file %s", c.ProxyFile)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read proxy file %s", c.ProxyFile)
	}
	return out, nil
}
