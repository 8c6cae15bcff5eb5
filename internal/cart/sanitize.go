package cart

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
)

// SchemaVersion is the current version of the persisted cart envelope.
// Readers accept any payload from version 0 upward; older versions go
// through the same sanitize path, there is no partial migration.
const SchemaVersion = 1

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// persistedCart is the wire format written to durable storage:
// {"state":{"items":[...]},"version":1}.
type persistedCart struct {
	State   persistedState `json:"state"`
	Version int            `json:"version"`
}

type persistedState struct {
	Items []json.RawMessage `json:"items"`
}

// Encode serializes items into the versioned storage envelope.
func Encode(items []LineItem) ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		raw = append(raw, data)
	}
	return json.Marshal(persistedCart{
		State:   persistedState{Items: raw},
		Version: SchemaVersion,
	})
}

// Sanitize rebuilds a safe item list from an untrusted persisted payload.
// It never fails: malformed payloads produce an empty cart, invalid entries
// are dropped, recoverable fields are defaulted. The result contains at most
// one entry per productId; duplicates are merged by summing quantities
// (capped at MaxQuantity) with the last-seen entry's other fields winning.
// Sanitize is idempotent: feeding its output back in changes nothing.
func Sanitize(payload []byte) []LineItem {
	var envelope persistedCart
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil
	}

	items := make([]LineItem, 0, len(envelope.State.Items))
	index := make(map[string]int, len(envelope.State.Items))

	for _, raw := range envelope.State.Items {
		item, ok := sanitizeEntry(raw)
		if !ok {
			continue
		}
		if at, exists := index[item.ProductID]; exists {
			merged := item // last-seen fields win
			merged.Quantity = item.Quantity + items[at].Quantity
			if merged.Quantity > MaxQuantity {
				merged.Quantity = MaxQuantity
			}
			items[at] = merged
			continue
		}
		index[item.ProductID] = len(items)
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil
	}
	return items
}

// sanitizeEntry validates a single stored entry. Entries that are not JSON
// objects, have blank identifiers, or carry a negative or non-numeric price
// are dropped; everything else is defaulted into range.
func sanitizeEntry(raw json.RawMessage) (LineItem, bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return LineItem{}, false
	}

	productID := strings.TrimSpace(stringField(fields, "productId"))
	priceID := strings.TrimSpace(stringField(fields, "priceId"))
	if productID == "" || priceID == "" {
		return LineItem{}, false
	}

	amount, ok := numberField(fields, "unitAmount")
	if !ok {
		return LineItem{}, false
	}
	unitAmount := int64(math.Round(amount))
	if unitAmount < 0 {
		return LineItem{}, false
	}

	quantity := MinQuantity
	if q, ok := numberField(fields, "quantity"); ok {
		quantity = ClampQuantity(int(math.Round(q)))
	}

	item := LineItem{
		ProductID:  productID,
		PriceID:    priceID,
		Name:       stringField(fields, "name"),
		Image:      stringField(fields, "image"),
		UnitAmount: unitAmount,
		Currency:   stringField(fields, "currency"),
		Quantity:   quantity,
	}
	return normalize(item), true
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func numberField(fields map[string]any, key string) (float64, bool) {
	n, ok := fields[key].(float64)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
