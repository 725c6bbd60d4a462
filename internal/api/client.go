package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lukman83/buysmart/internal/httputil"
	"github.com/lukman83/buysmart/internal/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultRequestTimeout bounds calls whose context carries no deadline.
const DefaultRequestTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
}

// Client speaks the backend's JSON-over-HTTP contract. Authentication is
// attached by the HTTP client's transport, not per call.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewClient validates opts and returns a ready Client.
func NewClient(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "parse base url %q", opts.BaseURL)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", opts.BaseURL)
	}
	c := &Client{
		baseURL: u,
		http:    opts.HTTPClient,
		timeout: opts.RequestTimeout,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if c.http == nil {
		c.http = httputil.NewHTTPClient(nil)
	}
	if c.timeout <= 0 {
		c.timeout = DefaultRequestTimeout
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

// ResolveURL resolves a possibly relative link returned by the backend
// against the API origin.
func (c *Client) ResolveURL(ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrapf(err, "parse link %q", ref)
	}
	return c.baseURL.ResolveReference(r).String(), nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do issues one call. in is JSON-encoded when non-nil; out is decoded from a
// 2xx body when non-nil. Failures come back as AuthError or RequestError.
func (c *Client) do(ctx context.Context, op, method string, path []string, query url.Values, in, out any) (err error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		c.metrics.ObserveRequest(op, ErrorLabel(err), time.Since(start))
		if err != nil {
			c.logger.Debug("api call failed", zap.String("op", op), zap.Duration("took", time.Since(start)), zap.Error(err))
			return
		}
		c.logger.Debug("api call", zap.String("op", op), zap.Duration("took", time.Since(start)))
	}()

	target := c.baseURL.JoinPath(path...)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "%s: encode request", op)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return errors.Wrapf(err, "%s: build request", op)
	}
	httputil.SetHeaders(req, httputil.APIHeaders())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := httputil.ReadBody(resp)
	if err != nil {
		return RequestError{Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(respBody)
		if resp.StatusCode == http.StatusUnauthorized {
			return AuthError{Op: op, Message: msg}
		}
		return RequestError{Op: op, Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return RequestError{Op: op, Status: resp.StatusCode, Err: errors.Wrap(err, "decode response")}
	}
	return nil
}

func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error != "" {
			return eb.Error
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
