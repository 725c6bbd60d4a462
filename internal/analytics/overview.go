package analytics

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lukman83/buysmart/internal/api"
	"github.com/lukman83/buysmart/internal/models"
)

// Windows are the trailing day counts the overview supports.
var Windows = []int{7, 30, 90}

// CheckWindow rejects unsupported overview windows.
func CheckWindow(days int) error {
	for _, w := range Windows {
		if days == w {
			return nil
		}
	}
	return api.ValidationError{Field: "days", Reason: "must be one of 7, 30, 90"}
}

type Point struct {
	Label string
	Value int
}

// Slice is a pie segment. Percent is the share of the pie's own total.
type Slice struct {
	Label   string
	Value   int
	Percent float64
}

type PricePair struct {
	Platform string
	Mean     float64
	Median   float64
}

type KPIs struct {
	Products             int
	Users                int
	Clicks               int
	Purchases            int
	ConversionRate       string
	RecommendationCTR    string
	RecommendationClicks int
	SearchClicks         int
	RecentAlerts         int
	// TopCategories is "cat (n), ..." for the first three categories, or
	// empty when the overview has none.
	TopCategories string
}

// Dashboard is an overview reshaped into chart series.
type Dashboard struct {
	Since              string
	ClicksByPlatform   []Point
	ClickSources       []Slice
	ProductsByPlatform []Point
	PriceStats         []PricePair
	KPIs               KPIs
}

// Reshape converts an overview into chart series. Missing sections become
// empty series and zero KPIs.
func Reshape(ov *models.AnalyticsOverview) Dashboard {
	var d Dashboard
	if ov == nil {
		d.KPIs.ConversionRate = FormatPercent(nil)
		d.KPIs.RecommendationCTR = FormatPercent(nil)
		return d
	}

	d.Since = ov.Since
	d.ClicksByPlatform = points(ov.ClicksByPlatform)
	d.ProductsByPlatform = points(ov.PlatformCounts)
	d.ClickSources = pieSlices(ov.ClicksBySource)

	if ov.PriceStats != nil {
		for pair := ov.PriceStats.Oldest(); pair != nil; pair = pair.Next() {
			d.PriceStats = append(d.PriceStats, PricePair{
				Platform: pair.Key,
				Mean:     pair.Value.Mean,
				Median:   pair.Value.Median,
			})
		}
	}

	k := &d.KPIs
	var conversion, ctr *float64
	if t := ov.Totals; t != nil {
		k.Products, k.Users, k.Clicks, k.Purchases = t.Products, t.Users, t.Clicks, t.Purchases
		conversion = t.ConversionRate
	}
	if re := ov.RecommendationEffectiveness; re != nil {
		k.RecommendationClicks, k.SearchClicks = re.RecommendationClicks, re.SearchClicks
		ctr = re.RecommendationCTR
	}
	k.ConversionRate = FormatPercent(conversion)
	k.RecommendationCTR = FormatPercent(ctr)
	k.RecentAlerts = ov.RecentAlertsTriggered
	k.TopCategories = topCategories(ov.CategoryCounts, 3)
	return d
}

func points(c *models.Counts) []Point {
	if c == nil {
		return nil
	}
	out := make([]Point, 0, c.Len())
	for pair := c.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Point{Label: pair.Key, Value: pair.Value})
	}
	return out
}

func pieSlices(c *models.Counts) []Slice {
	if c == nil {
		return nil
	}
	total := 0
	for pair := c.Oldest(); pair != nil; pair = pair.Next() {
		total += pair.Value
	}
	out := make([]Slice, 0, c.Len())
	for pair := c.Oldest(); pair != nil; pair = pair.Next() {
		s := Slice{Label: titleCase(pair.Key), Value: pair.Value}
		if total > 0 {
			s.Percent = float64(pair.Value) / float64(total) * 100
		}
		out = append(out, s)
	}
	return out
}

func topCategories(c *models.Counts, n int) string {
	if c == nil {
		return ""
	}
	var parts []string
	for pair := c.Oldest(); pair != nil && len(parts) < n; pair = pair.Next() {
		parts = append(parts, fmt.Sprintf("%s (%d)", pair.Key, pair.Value))
	}
	return strings.Join(parts, ", ")
}

// titleCase upper-cases the first letter only.
func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
