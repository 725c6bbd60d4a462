package platform

import "strings"

// Platform is a marketplace a product was listed on.
type Platform string

const (
	Amazon   Platform = "Amazon"
	Flipkart Platform = "Flipkart"
	Meesho   Platform = "Meesho"
	Myntra   Platform = "Myntra"
	Other    Platform = "Other"
)

// Known lists the marketplaces the search backend aggregates, in display order.
func Known() []Platform {
	return []Platform{Amazon, Flipkart, Meesho, Myntra}
}

// Parse maps a marketplace name to a Platform, ignoring case.
// Unknown and empty names map to Other.
func Parse(name string) Platform {
	name = strings.TrimSpace(name)
	for _, p := range Known() {
		if strings.EqualFold(name, string(p)) {
			return p
		}
	}
	return Other
}

// ParseStrict is like Parse but reports whether name was a known marketplace.
func ParseStrict(name string) (Platform, bool) {
	p := Parse(name)
	return p, p != Other || strings.EqualFold(strings.TrimSpace(name), string(Other))
}

func (p Platform) String() string { return string(p) }

// UnmarshalText normalizes whatever spelling the backend sends.
func (p *Platform) UnmarshalText(text []byte) error {
	*p = Parse(string(text))
	return nil
}
