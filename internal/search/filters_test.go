package search

import (
	"encoding/json"
	"errors"
	"sort"
	"testing"

	"github.com/lukman83/buysmart/internal/api"
	"github.com/lukman83/buysmart/internal/platform"
)

func filterKeys(t *testing.T, req api.SearchRequest) []string {
	t.Helper()
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var payload struct {
		Filters map[string]json.RawMessage `json:"filters"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := make([]string, 0, len(payload.Filters))
	for k := range payload.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestNormalizeOmitsUnsetFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"none", Filters{}, []string{}},
		{"min only", Filters{MinPrice: Float(100)}, []string{"min_price"}},
		{"zero is a constraint", Filters{MinPrice: Float(0), MinRating: Float(0)}, []string{"min_price", "min_rating"}},
		{"platforms", Filters{Platforms: []platform.Platform{platform.Amazon}}, []string{"platforms"}},
		{"empty platforms omitted", Filters{Platforms: []platform.Platform{}}, []string{}},
		{"all", Filters{
			MinPrice:  Float(1),
			MaxPrice:  Float(2),
			MinRating: Float(4),
			Platforms: []platform.Platform{platform.Flipkart},
		}, []string{"max_price", "min_price", "min_rating", "platforms"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Normalize("phone", tt.filters)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			got := filterKeys(t, req)
			if len(got) != len(tt.want) {
				t.Fatalf("keys = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("keys = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	req, err := Normalize("  laptop  ", Filters{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if req.Query != "laptop" {
		t.Fatalf("query = %q", req.Query)
	}
	if req.TopN != 50 {
		t.Fatalf("top_n = %d", req.TopN)
	}
	if !req.FastMode {
		t.Fatal("fast mode should default to true")
	}
	if req.IncludeLiveScraping {
		t.Fatal("live scraping should default to false")
	}

	req, _ = Normalize("laptop", Filters{FastMode: Bool(false), IncludeLiveScraping: true})
	if req.FastMode || !req.IncludeLiveScraping {
		t.Fatalf("explicit modes not honoured: %+v", req)
	}
}

func TestNormalizeDedupesPlatforms(t *testing.T) {
	req, err := Normalize("shoes", Filters{Platforms: []platform.Platform{platform.Myntra, platform.Myntra, platform.Meesho}})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(req.Filters.Platforms) != 2 || req.Filters.Platforms[0] != "Myntra" || req.Filters.Platforms[1] != "Meesho" {
		t.Fatalf("platforms = %v", req.Filters.Platforms)
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		filters Filters
		field   string
	}{
		{"empty query", "", Filters{}, "query"},
		{"whitespace query", " \t\n", Filters{}, "query"},
		{"negative min", "x", Filters{MinPrice: Float(-1)}, "min_price"},
		{"negative max", "x", Filters{MaxPrice: Float(-5)}, "max_price"},
		{"rating above 5", "x", Filters{MinRating: Float(5.5)}, "min_rating"},
		{"min above max", "x", Filters{MinPrice: Float(500), MaxPrice: Float(100)}, "min_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.query, tt.filters)
			var verr api.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T %v", err, err)
			}
			if verr.Field != tt.field {
				t.Fatalf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}
