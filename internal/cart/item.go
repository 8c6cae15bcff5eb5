package cart

import "strings"

const (
	// MinQuantity and MaxQuantity bound the quantity of a single line item.
	MinQuantity = 1
	MaxQuantity = 10

	// DefaultCurrency is used when a stored currency code is not a valid
	// 3-letter ISO code.
	DefaultCurrency = "USD"

	// PlaceholderName and PlaceholderImage fill in blank display fields.
	PlaceholderName  = "Unnamed product"
	PlaceholderImage = "/images/placeholder.png"
)

// LineItem is a single cart entry. UnitAmount is in minor currency units
// (cents for USD).
type LineItem struct {
	ProductID  string `json:"productId"`
	PriceID    string `json:"priceId"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	UnitAmount int64  `json:"unitAmount"`
	Currency   string `json:"currency"`
	Quantity   int    `json:"quantity"`
}

// ClampQuantity forces q into the [MinQuantity, MaxQuantity] range.
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// normalize fills defaults and clamps the quantity of an item whose
// ProductID/PriceID are already known to be non-empty.
func normalize(item LineItem) LineItem {
	item.ProductID = strings.TrimSpace(item.ProductID)
	item.PriceID = strings.TrimSpace(item.PriceID)
	item.Currency = normalizeCurrency(item.Currency)
	if strings.TrimSpace(item.Name) == "" {
		item.Name = PlaceholderName
	}
	if strings.TrimSpace(item.Image) == "" {
		item.Image = PlaceholderImage
	}
	if item.UnitAmount < 0 {
		item.UnitAmount = 0
	}
	item.Quantity = ClampQuantity(item.Quantity)
	return item
}

func normalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !currencyPattern.MatchString(code) {
		return DefaultCurrency
	}
	return code
}
