package httputil

import "net/http"

// APIHeaders returns the headers every JSON API call carries.
func APIHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Accept-Encoding", "gzip, br")
	return h
}

// SetHeaders copies src into req without clobbering headers already set.
func SetHeaders(req *http.Request, src http.Header) {
	for key, vals := range src {
		if req.Header.Get(key) != "" {
			continue
		}
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}
}
