package transport

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"golang.org/x/time/rate"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func echoHeaders(seen *http.Header) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		*seen = req.Header.Clone()
		return httpmock.NewStringResponse(http.StatusOK, `{}`), nil
	}
}

func TestRoundTripHeaders(t *testing.T) {
	tests := []struct {
		name      string
		token     TokenSource
		preset    http.Header
		wantAuth  string
		wantReqID string
	}{
		{
			name:     "bearer attached when a token is held",
			token:    staticToken("tok"),
			wantAuth: "Bearer tok",
		},
		{
			name:     "caller authorization is replaced by the anonymous state",
			token:    staticToken(""),
			preset:   http.Header{"Authorization": {"Bearer stale"}},
			wantAuth: "",
		},
		{
			name:      "request id kept when already set",
			preset:    http.Header{"X-Request-Id": {"fixed"}},
			wantReqID: "fixed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := httpmock.NewMockTransport()
			var seen http.Header
			mock.RegisterResponder(http.MethodGet, "http://api.test/ping", echoHeaders(&seen))

			rt := &Transport{Base: mock, Credentials: tt.token, UserAgent: "buysmart-test"}
			req, _ := http.NewRequest(http.MethodGet, "http://api.test/ping", nil)
			for k, v := range tt.preset {
				req.Header[k] = v
			}
			resp, err := rt.RoundTrip(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()

			if got := seen.Get("Authorization"); got != tt.wantAuth {
				t.Fatalf("Authorization = %q, want %q", got, tt.wantAuth)
			}
			if seen.Get("User-Agent") != "buysmart-test" {
				t.Fatalf("User-Agent = %q", seen.Get("User-Agent"))
			}
			id := seen.Get("X-Request-ID")
			if id == "" || (tt.wantReqID != "" && id != tt.wantReqID) {
				t.Fatalf("X-Request-ID = %q", id)
			}
			if req.Header.Get("User-Agent") != "" {
				t.Fatal("caller's request must not be mutated")
			}
		})
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodGet, "http://api.test/ping", httpmock.NewStringResponder(http.StatusOK, `{}`))

	limiter := rate.NewLimiter(rate.Every(1<<62), 1)
	limiter.Allow()
	rt := &Transport{Base: mock, RateLimiter: limiter}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://api.test/ping", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected limiter wait to fail on a cancelled context")
	}
	if n := mock.GetTotalCallCount(); n != 0 {
		t.Fatalf("request sent %d times", n)
	}
}

func TestParseProxies(t *testing.T) {
	r, err := ParseProxies([]string{"", "http://user:pw@proxy-a:3128", "socks5://proxy-b:1080"})
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d", r.Len())
	}
	first, second, third := r.Next().Name(), r.Next().Name(), r.Next().Name()
	if first != "proxy-a:3128" || second != "proxy-b:1080" || third != first {
		t.Fatalf("rotation = %s, %s, %s", first, second, third)
	}

	empty, err := ParseProxies(nil)
	if err != nil || empty.Len() != 0 {
		t.Fatalf("empty list: %v, %d", err, empty.Len())
	}

	if _, err := ParseProxies([]string{"ftp://proxy"}); err == nil {
		t.Fatal("unsupported scheme should be rejected")
	}
}
