package handoff

import (
	"strconv"
	"strings"
)

// Item bounds.
const (
	MinQuantity = 1
	MaxQuantity = 50
	MaxItems    = 100
)

// ItemInput is one item as received from a client. Quantity is the raw text
// of whatever the client sent (number or string).
type ItemInput struct {
	VariantID string
	SKU       string
	Barcode   string
	Title     string
	Quantity  string
}

// SanitizeItems trims fields, clamps quantities and drops items with no
// identifier at all. At most MaxItems survive, in input order.
func SanitizeItems(in []ItemInput) []Item {
	out := make([]Item, 0, len(in))
	for _, raw := range in {
		it := Item{
			VariantID: strings.TrimSpace(raw.VariantID),
			SKU:       strings.TrimSpace(raw.SKU),
			Barcode:   strings.TrimSpace(raw.Barcode),
			Title:     strings.TrimSpace(raw.Title),
			Quantity:  ParseQuantity(raw.Quantity),
		}
		if it.VariantID == "" && it.SKU == "" && it.Barcode == "" {
			continue
		}
		out = append(out, it)
		if len(out) == MaxItems {
			break
		}
	}
	return out
}

// ParseQuantity reads the leading integer of raw ("3", " 7 ", "2.9" -> 2).
// Anything unparsable counts as 1. The result is clamped to
// [MinQuantity, MaxQuantity].
func ParseQuantity(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return MinQuantity
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// Overflow: the sign decides which bound applies.
		if s[0] == '-' {
			return MinQuantity
		}
		return MaxQuantity
	}
	return ClampQuantity(n)
}

// ClampQuantity bounds n to [MinQuantity, MaxQuantity].
func ClampQuantity(n int) int {
	if n < MinQuantity {
		return MinQuantity
	}
	if n > MaxQuantity {
		return MaxQuantity
	}
	return n
}

// NormalizeCode upper-cases raw and strips everything but A-Z and 0-9, so
// "abc-234" and " ABC 234" both read as "ABC234".
func NormalizeCode(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeStoreID lower-cases and trims a store identifier.
func NormalizeStoreID(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
