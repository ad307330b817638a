package handoff

import (
	"regexp"
	"strconv"
	"strings"
)

// CartLine is the shape the register expects when adding a line to its cart.
type CartLine struct {
	VariantID int64  `json:"variantId"`
	Quantity  int    `json:"quantity"`
	SKU       string `json:"sku,omitempty"`
	Title     string `json:"title,omitempty"`
}

var variantGIDPattern = regexp.MustCompile(`/ProductVariant/(\d+)$`)

// ProjectCartLines converts stored items into register cart lines. Items
// whose variant id does not resolve to a positive integer are left out.
func ProjectCartLines(items []Item) []CartLine {
	lines := make([]CartLine, 0, len(items))
	for _, it := range items {
		id, ok := NumericVariantID(it.VariantID)
		if !ok {
			continue
		}
		lines = append(lines, CartLine{
			VariantID: id,
			Quantity:  ClampQuantity(it.Quantity),
			SKU:       it.SKU,
			Title:     it.Title,
		})
	}
	return lines
}

// NumericVariantID extracts the numeric id from a global id such as
// "gid://shopify/ProductVariant/4242" or from a bare positive number.
func NumericVariantID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if m := variantGIDPattern.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
