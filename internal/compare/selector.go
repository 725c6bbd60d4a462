package compare

import (
	"sync"

	"github.com/lukman83/buysmart/internal/api"
	"github.com/lukman83/buysmart/internal/models"
)

// Capacity is the most products that can be compared at once.
const Capacity = 3

const nameRunes = 15

// Selector is the bounded comparison set. Membership is by product id;
// selection order is kept for display.
type Selector struct {
	mu       sync.Mutex
	selected []models.Product
}

func NewSelector() *Selector {
	return &Selector{}
}

// Toggle removes p if selected, otherwise adds it. Adding past Capacity is
// refused with a ValidationError and leaves the set unchanged.
func (s *Selector) Toggle(p models.Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, cur := range s.selected {
		if cur.ID == p.ID {
			s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
			return true, nil
		}
	}
	if len(s.selected) >= Capacity {
		return false, api.ValidationError{Field: "comparison", Reason: "you can compare up to 3 products at a time"}
	}
	s.selected = append(s.selected, p)
	return true, nil
}

func (s *Selector) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

func (s *Selector) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selected)
}

func (s *Selector) Contains(id models.ProductID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.selected {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Selected returns the selection in the order it was made.
func (s *Selector) Selected() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Product(nil), s.selected...)
}

// Bar is one product's entry in the comparison chart.
type Bar struct {
	Label    string
	Platform string
	Price    float64
	Rating   float64
}

// Summary returns chart rows for the selection. ok is false when nothing is
// selected, in which case no comparison should be offered.
func (s *Selector) Summary() (bars []Bar, ok bool) {
	selected := s.Selected()
	if len(selected) == 0 {
		return nil, false
	}
	bars = make([]Bar, 0, len(selected))
	for _, p := range selected {
		b := Bar{Label: shortName(p.DisplayName()), Platform: p.Platform.String(), Price: p.Price}
		if p.Rating != nil {
			b.Rating = *p.Rating
		}
		bars = append(bars, b)
	}
	return bars, true
}

func shortName(name string) string {
	r := []rune(name)
	if len(r) <= nameRunes {
		return name
	}
	return string(r[:nameRunes]) + "..."
}
