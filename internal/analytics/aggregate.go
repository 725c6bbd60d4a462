// Package analytics turns search results and server overviews into
// chart-ready series. Everything here is a pure function of its input.
package analytics

import (
	"github.com/lukman83/buysmart/internal/models"
	"github.com/lukman83/buysmart/internal/platform"
)

// PlatformSummary aggregates one platform's share of a result set.
type PlatformSummary struct {
	Platform  platform.Platform
	Count     int
	AvgPrice  float64
	AvgRating float64
	// Rated is how many products contributed to AvgRating.
	Rated int
}

// GroupByPlatform groups products by platform in first-seen order. Products
// without a rating are left out of AvgRating, which is 0 when none are rated.
func GroupByPlatform(products []models.Product) []PlatformSummary {
	type acc struct {
		count       int
		totalPrice  float64
		totalRating float64
		rated       int
	}

	var order []platform.Platform
	groups := make(map[platform.Platform]*acc)
	for _, p := range products {
		key := p.Platform
		if key == "" {
			key = platform.Other
		}
		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		g.totalPrice += p.Price
		if p.Rating != nil {
			g.totalRating += *p.Rating
			g.rated++
		}
	}

	out := make([]PlatformSummary, 0, len(order))
	for _, key := range order {
		g := groups[key]
		s := PlatformSummary{
			Platform: key,
			Count:    g.count,
			AvgPrice: g.totalPrice / float64(g.count),
			Rated:    g.rated,
		}
		if g.rated > 0 {
			s.AvgRating = g.totalRating / float64(g.rated)
		}
		out = append(out, s)
	}
	return out
}
