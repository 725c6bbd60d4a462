package search

import (
	"strings"

	"github.com/lukman83/buysmart/internal/api"
	"github.com/lukman83/buysmart/internal/platform"
)

// Filters is the user's filter input. Nil numeric fields mean "no
// constraint". FastMode defaults to true when nil; live scraping is opt-in.
type Filters struct {
	MinPrice            *float64            `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice            *float64            `json:"max_price" validate:"omitempty,gte=0"`
	Platforms           []platform.Platform `json:"platforms"`
	MinRating           *float64            `json:"min_rating" validate:"omitempty,gte=0,lte=5"`
	FastMode            *bool               `json:"fast_mode"`
	IncludeLiveScraping bool                `json:"include_live_scraping"`
}

// Float returns a pointer to v, for filling optional filter fields.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Normalize validates query and filters and builds the outbound payload.
// Unset filters are left nil so they are omitted on the wire.
func Normalize(query string, f Filters) (api.SearchRequest, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return api.SearchRequest{}, api.ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if err := api.CheckStruct(f); err != nil {
		return api.SearchRequest{}, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return api.SearchRequest{}, api.ValidationError{Field: "min_price", Reason: "must not exceed max_price"}
	}

	req := api.SearchRequest{
		Query: query,
		Filters: api.SearchFilters{
			MinPrice:  copyFloat(f.MinPrice),
			MaxPrice:  copyFloat(f.MaxPrice),
			MinRating: copyFloat(f.MinRating),
		},
		TopN:                api.SearchTopN,
		FastMode:            f.FastMode == nil || *f.FastMode,
		IncludeLiveScraping: f.IncludeLiveScraping,
	}

	seen := make(map[platform.Platform]bool, len(f.Platforms))
	for _, p := range f.Platforms {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		req.Filters.Platforms = append(req.Filters.Platforms, p.String())
	}
	return req, nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
