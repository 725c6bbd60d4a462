package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/lukman83/buysmart/internal/platform"
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ProductID identifies a product. The backend sends integers for stored
// products and may send strings for live results, so both decode.
type ProductID string

func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "decode product id")
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrapf(err, "decode product id %s", data)
	}
	*id = ProductID(n.String())
	return nil
}

// MarshalJSON emits all-digit ids as JSON numbers so the backend's integer
// lookups keep working.
func (id ProductID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ProductID) numeric() bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (id ProductID) String() string { return string(id) }

// Product is a marketplace listing as returned by search, trending,
// wishlist and purchase responses. It is never mutated after decoding.
type Product struct {
	ID            ProductID         `json:"id"`
	Name          string            `json:"name"`
	Platform      platform.Platform `json:"platform"`
	Price         float64           `json:"price"`
	OriginalPrice *float64          `json:"original_price,omitempty"`
	Rating        *float64          `json:"rating,omitempty"`
	ReviewCount   *int              `json:"review_count,omitempty"`
	ImageURL      string            `json:"image_url,omitempty"`
	ProductURL    string            `json:"product_url,omitempty"`
	Description   string            `json:"description,omitempty"`
	Category      string            `json:"category,omitempty"`
	Brand         string            `json:"brand,omitempty"`
	Clicks        int               `json:"clicks,omitempty"`
}

// DiscountPercent returns the rounded discount against the original price,
// or 0 when there is no original price above the current one.
func (p Product) DiscountPercent() int {
	if p.OriginalPrice == nil || *p.OriginalPrice <= p.Price || *p.OriginalPrice <= 0 {
		return 0
	}
	return int(math.Round((*p.OriginalPrice - p.Price) / *p.OriginalPrice * 100))
}

// DisplayName falls back to a placeholder for nameless listings.
func (p Product) DisplayName() string {
	if strings.TrimSpace(p.Name) == "" {
		return "Unknown Product"
	}
	return p.Name
}

type User struct {
	ID      json.Number `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	IsAdmin bool        `json:"is_admin,omitempty"`
}

type WishlistItem struct {
	ID        json.Number `json:"id"`
	ProductID ProductID   `json:"product_id"`
	CreatedAt string      `json:"created_at,omitempty"`
	Product   *Product    `json:"product"`
}

type PurchaseRecord struct {
	ID        json.Number       `json:"id"`
	ProductID ProductID         `json:"product_id"`
	Platform  platform.Platform `json:"platform"`
	Status    string            `json:"status"`
	CreatedAt string            `json:"created_at,omitempty"`
	Product   *Product          `json:"product"`
}

type SearchHistoryEntry struct {
	ID           json.Number `json:"id"`
	Query        string      `json:"query"`
	ResultsCount int         `json:"results_count,omitempty"`
	CreatedAt    string      `json:"created_at"`
}

type PricePoint struct {
	RecordedAt time.Time         `json:"recorded_at"`
	Price      float64           `json:"price"`
	Platform   platform.Platform `json:"platform,omitempty"`
}

// UnmarshalJSON accepts the backend's naive ISO timestamps (no zone).
func (pp *PricePoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		RecordedAt string            `json:"recorded_at"`
		Price      float64           `json:"price"`
		Platform   platform.Platform `json:"platform"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decode price point")
	}
	t, err := ParseTimestamp(raw.RecordedAt)
	if err != nil {
		return err
	}
	pp.RecordedAt, pp.Price, pp.Platform = t, raw.Price, raw.Platform
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp shapes the backend emits. Zone-less
// values are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized timestamp %q", s)
}

type PriceAlert struct {
	ID          json.Number       `json:"id"`
	ProductID   ProductID         `json:"product_id"`
	Platform    platform.Platform `json:"platform"`
	TargetPrice float64           `json:"target_price"`
	Email       string            `json:"email,omitempty"`
	IsActive    bool              `json:"is_active"`
	TriggeredAt string            `json:"triggered_at,omitempty"`
	Product     *Product          `json:"product,omitempty"`
}

type TrendingSearch struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// Stats is the backend's global catalogue summary. Display only.
type Stats struct {
	TotalProducts int            `json:"total_products"`
	Platforms     map[string]int `json:"platforms"`
	AveragePrice  float64        `json:"average_price"`
	AverageRating float64        `json:"average_rating"`
	LastUpdated   string         `json:"last_updated"`
}

// Counts is a label→count map that keeps the order the server sent.
type Counts = orderedmap.OrderedMap[string, int]

type PriceStat struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

type Totals struct {
	Products       int      `json:"products"`
	Users          int      `json:"users"`
	Clicks         int      `json:"clicks"`
	Purchases      int      `json:"purchases"`
	ConversionRate *float64 `json:"conversion_rate"`
}

type RecommendationEffectiveness struct {
	RecommendationClicks int      `json:"recommendation_clicks"`
	SearchClicks         int      `json:"search_clicks"`
	RecommendationCTR    *float64 `json:"recommendation_ctr"`
}

// AnalyticsOverview is the server-computed snapshot for a trailing window.
// Every section is optional on the wire.
type AnalyticsOverview struct {
	Since                       string                                    `json:"since"`
	Totals                      *Totals                                   `json:"totals"`
	PlatformCounts              *Counts                                   `json:"platform_counts"`
	CategoryCounts              *Counts                                   `json:"category_counts"`
	PriceStats                  *orderedmap.OrderedMap[string, PriceStat] `json:"price_stats"`
	ClicksByPlatform            *Counts                                   `json:"clicks_by_platform"`
	ClicksBySource              *Counts                                   `json:"clicks_by_source"`
	PurchasesByPlatform         *Counts                                   `json:"purchases_by_platform"`
	RecommendationEffectiveness *RecommendationEffectiveness              `json:"recommendation_effectiveness"`
	RecentAlertsTriggered       int                                       `json:"recent_alerts_triggered"`
}
