package analytics

import (
	"github.com/lukman83/buysmart/internal/models"
)

// TrendPoint is one labelled price on a product's history chart.
type TrendPoint struct {
	Label string
	Price float64
}

// PriceTrend turns the server's newest-first history into a chronological
// series labelled like "Jan 2".
func PriceTrend(history []models.PricePoint) []TrendPoint {
	out := make([]TrendPoint, len(history))
	for i, pp := range history {
		out[len(history)-1-i] = TrendPoint{Label: pp.RecordedAt.Format("Jan 2"), Price: pp.Price}
	}
	return out
}
