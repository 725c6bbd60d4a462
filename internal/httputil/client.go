package httputil

import (
	"compress/gzip"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/pkg/errors"
)

// maxBodyBytes bounds how much of a response body is read into memory.
const maxBodyBytes = 8 << 20

// NewHTTPClient creates an HTTP client around transport. No client-wide
// timeout is set: deadlines come from each call's context, because search
// latency varies by two orders of magnitude.
func NewHTTPClient(transport http.RoundTripper) *http.Client {
	if transport == nil {
		transport = NewBaseTransport()
	}
	return &http.Client{Transport: transport}
}

// NewBaseTransport returns the pooled transport outbound calls share.
func NewBaseTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// ReadBody reads and decompresses an HTTP response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "gzip reader")
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	default:
		reader = resp.Body
	}
	body, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return body, nil
}
