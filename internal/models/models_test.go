package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lukman83/buysmart/internal/platform"
)

func TestProductIDDecodesNumbersAndStrings(t *testing.T) {
	tests := []struct {
		in   string
		want ProductID
		out  string
	}{
		{`{"id":42}`, "42", `42`},
		{`{"id":"live-amazon-7"}`, "live-amazon-7", `"live-amazon-7"`},
		{`{"id":"17"}`, "17", `17`},
		{`{"id":null}`, "", `""`},
	}
	for _, tt := range tests {
		var p struct {
			ID ProductID `json:"id"`
		}
		if err := json.Unmarshal([]byte(tt.in), &p); err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if p.ID != tt.want {
			t.Fatalf("%s: id = %q, want %q", tt.in, p.ID, tt.want)
		}
		out, _ := json.Marshal(p.ID)
		if string(out) != tt.out {
			t.Fatalf("%s: marshal = %s, want %s", tt.in, out, tt.out)
		}
	}
}

func TestProductDecodeNormalizesPlatform(t *testing.T) {
	var p Product
	if err := json.Unmarshal([]byte(`{"id":1,"name":"Mixer","platform":"FLIPKART","price":2499,"original_price":3999}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Platform != platform.Flipkart {
		t.Fatalf("platform = %q", p.Platform)
	}
	if d := p.DiscountPercent(); d != 38 {
		t.Fatalf("discount = %d", d)
	}

	var unknown Product
	_ = json.Unmarshal([]byte(`{"platform":"ebay"}`), &unknown)
	if unknown.Platform != platform.Other {
		t.Fatalf("unknown platform = %q", unknown.Platform)
	}
	if unknown.DisplayName() != "Unknown Product" {
		t.Fatalf("display name = %q", unknown.DisplayName())
	}
}

func TestDiscountPercentNeedsHigherOriginal(t *testing.T) {
	lower := 100.0
	p := Product{Price: 150, OriginalPrice: &lower}
	if p.DiscountPercent() != 0 {
		t.Fatal("no discount when the original price is lower")
	}
	if (Product{Price: 150}).DiscountPercent() != 0 {
		t.Fatal("no discount without an original price")
	}
}

func TestPricePointNaiveTimestamp(t *testing.T) {
	var pp PricePoint
	if err := json.Unmarshal([]byte(`{"recorded_at":"2026-10-01T08:30:00.123456","price":999}`), &pp); err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 10, 1, 8, 30, 0, 123456000, time.UTC)
	if !pp.RecordedAt.Equal(want) {
		t.Fatalf("recorded_at = %v", pp.RecordedAt)
	}
	if err := json.Unmarshal([]byte(`{"recorded_at":"yesterday","price":1}`), &pp); err == nil {
		t.Fatal("expected error for an unparseable timestamp")
	}
}
