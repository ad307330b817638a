package validation

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Quantity accepts a JSON number or string and keeps its text for the
// handoff sanitizer. Anything else decodes as empty, which counts as 1.
type Quantity string

func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*q = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*q = Quantity(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*q = Quantity(b)
	default:
		*q = ""
	}
	return nil
}

// HandoffItem is one scanned item in a create request.
type HandoffItem struct {
	VariantID string   `json:"variantId" validate:"max=256"`
	SKU       string   `json:"sku" validate:"max=128"`
	Barcode   string   `json:"barcode" validate:"max=128"`
	Title     string   `json:"title" validate:"max=512"`
	Quantity  Quantity `json:"quantity"`
}

// CreateHandoffRequest is the payload for POST /handoff/create. Store and
// item checks beyond size limits belong to the lifecycle service.
type CreateHandoffRequest struct {
	StoreID   string        `json:"storeId" validate:"max=64"`
	Items     []HandoffItem `json:"items" validate:"max=500,dive"`
	SessionID string        `json:"sessionId" validate:"max=128"`
}

// RetrieveQuery is the query string of GET /handoff/retrieve.
type RetrieveQuery struct {
	Code    string `form:"code" json:"code" validate:"handoff_code"`
	StoreID string `form:"storeId" json:"storeId" validate:"max=64"`
}

// ClaimRequest is the payload for POST /handoff/claim.
type ClaimRequest struct {
	Code    string `json:"code" validate:"handoff_code"`
	StoreID string `json:"storeId" validate:"required,max=64"`
}

// ClaimPOSRequest is the payload for POST /handoff/claim-pos, carrying
// inline staff credentials.
type ClaimPOSRequest struct {
	Code    string `json:"code" validate:"handoff_code"`
	StoreID string `json:"storeId" validate:"required,max=64"`
	StaffID string `json:"staffId" validate:"required,max=128"`
	PIN     string `json:"pin" validate:"required,max=64"`
}

// LoginRequest is the payload for POST /staff/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

// LookupQuery is the query string of GET /price-checker.
type LookupQuery struct {
	Barcode string `form:"barcode" json:"barcode" validate:"max=128"`
	SKU     string `form:"sku" json:"sku" validate:"max=128"`
}

// Kind returns the lookup field and trimmed value, preferring barcode.
func (q LookupQuery) Kind() (string, string) {
	if b := strings.TrimSpace(q.Barcode); b != "" {
		return "barcode", b
	}
	return "sku", strings.TrimSpace(q.SKU)
}

// TrackRequest is the payload for POST /analytics/track.
type TrackRequest struct {
	EventType    string          `json:"eventType" validate:"required,max=64"`
	LookupType   string          `json:"lookupType" validate:"max=32"`
	QueryValue   string          `json:"queryValue" validate:"max=256"`
	Success      *bool           `json:"success"`
	ErrorMessage string          `json:"errorMessage" validate:"max=1024"`
	Meta         json.RawMessage `json:"meta"`
}
