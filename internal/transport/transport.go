package transport

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// TokenSource yields the current bearer credential, or "" when anonymous.
type TokenSource interface {
	Token() string
}

// Transport is an http.RoundTripper applying the client pipeline:
// Headers → Credential → RateLimiter → Proxy → Send
type Transport struct {
	Base        http.RoundTripper
	Credentials TokenSource
	RateLimiter *rate.Limiter
	Proxy       *ProxyRotator
	UserAgent   string
	Headers     http.Header
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	// 1. Identity and default headers
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
	for key, vals := range t.Headers {
		if req.Header.Get(key) == "" {
			for _, v := range vals {
				req.Header.Add(key, v)
			}
		}
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	// 2. Bearer credential, attached uniformly whenever one is held
	req.Header.Del("Authorization")
	if t.Credentials != nil {
		if token := t.Credentials.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	// 3. Wait for rate limiter token
	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(req.Context()); err != nil {
			return nil, errors.Wrap(err, "rate limiter")
		}
	}

	// 4. Route through proxy if configured
	transport := t.Base
	if t.Proxy != nil {
		transport = t.Proxy.Next().Transport()
	}
	if transport == nil {
		transport = http.DefaultTransport
	}

	return transport.RoundTrip(req)
}
