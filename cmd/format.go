package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/lukman83/buysmart/internal/analytics"
	"github.com/lukman83/buysmart/internal/models"
	"github.com/lukman83/buysmart/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printProductsTable prints products in a human-friendly card layout.
func printProductsTable(w io.Writer, products []models.Product) {
	for i, p := range products {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, " %d. %s\n", i+1, p.DisplayName())

		// Price line with optional original price and discount
		priceLine := "    Price: " + analytics.FormatINR(p.Price)
		if d := p.DiscountPercent(); d > 0 {
			priceLine += fmt.Sprintf("  (was %s, -%d%%)", analytics.FormatINR(*p.OriginalPrice), d)
		}
		priceLine += "  |  " + p.Platform.String()
		if p.Rating != nil {
			priceLine += fmt.Sprintf("  |  %.1f★", *p.Rating)
			if p.ReviewCount != nil {
				priceLine += fmt.Sprintf(" (%d reviews)", *p.ReviewCount)
			}
		}
		fmt.Fprintln(w, priceLine)

		if meta := joinNonEmpty(" / ", p.Brand, p.Category); meta != "" {
			fmt.Fprintf(w, "    %s\n", meta)
		}
		if desc := ui.PlainText(p.Description); desc != "" {
			fmt.Fprintf(w, "    %s\n", ui.Truncate(desc, 120))
		}
		if p.ProductURL != "" {
			fmt.Fprintf(w, "    %s\n", cleanURL(p.ProductURL))
		}
	}
}

// cleanURL strips tracking query params and returns just the product page URL.
func cleanURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	return u.String()
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, sep)
}
