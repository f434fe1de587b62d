package enums

import "fmt"

// Marketplace identifies which e-commerce platform a linked store belongs to.
type Marketplace string

const (
	MarketplaceWildberries Marketplace = "wildberries"
	MarketplaceOzon        Marketplace = "ozon"
)

var validMarketplaces = []Marketplace{
	MarketplaceWildberries,
	MarketplaceOzon,
}

// String implements fmt.Stringer.
func (m Marketplace) String() string {
	return string(m)
}

// IsValid reports whether the value is known.
func (m Marketplace) IsValid() bool {
	for _, candidate := range validMarketplaces {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMarketplace converts raw input into a Marketplace.
func ParseMarketplace(value string) (Marketplace, error) {
	for _, candidate := range validMarketplaces {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid marketplace %q", value)
}
