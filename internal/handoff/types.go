package handoff

import "time"

// Status is the lifecycle state of a handoff.
type Status string

// Handoff statuses. claimed and expired are terminal.
const (
	StatusOpen    Status = "open"
	StatusClaimed Status = "claimed"
	StatusExpired Status = "expired"
)

// Source tags records created by the kiosk web app.
const SourcePriceChecker = "price-checker-web"

// Item is one sanitized line of a handoff.
type Item struct {
	VariantID string `json:"variantId" dynamodbav:"variant_id"`
	SKU       string `json:"sku" dynamodbav:"sku"`
	Barcode   string `json:"barcode" dynamodbav:"barcode"`
	Title     string `json:"title" dynamodbav:"title"`
	Quantity  int    `json:"quantity" dynamodbav:"quantity"`
}

// Record is a persisted handoff.
type Record struct {
	ID                string     `json:"id" dynamodbav:"id"` // PK
	Code              string     `json:"code" dynamodbav:"handoff_code"`
	StoreID           string     `json:"storeId" dynamodbav:"store_id"`
	Status            Status     `json:"status" dynamodbav:"status"`
	Items             []Item     `json:"items" dynamodbav:"items"`
	CustomerSessionID string     `json:"-" dynamodbav:"customer_session_id,omitempty"`
	Source            string     `json:"-" dynamodbav:"source,omitempty"`
	ExpiresAt         time.Time  `json:"expiresAt" dynamodbav:"expires_at"`
	ClaimedAt         *time.Time `json:"claimedAt" dynamodbav:"claimed_at,omitempty"`
	ClaimedByStaffID  string     `json:"-" dynamodbav:"claimed_by_staff_id,omitempty"`
	CreatedAt         time.Time  `json:"createdAt" dynamodbav:"created_at"`
}

// Expired reports whether the record's lifetime has ended at now.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// EffectiveStatus is the status a reader should see: an open record past
// its expiry reads as expired even if the stored row has not been updated.
func (r *Record) EffectiveStatus(now time.Time) Status {
	if r.Status == StatusOpen && r.Expired(now) {
		return StatusExpired
	}
	return r.Status
}

// Patch is the set of fields a conditional update may change.
type Patch struct {
	Status           Status
	ClaimedAt        *time.Time
	ClaimedByStaffID string
}

// CreateCommand is a validated create request.
type CreateCommand struct {
	StoreID   string
	Items     []ItemInput
	SessionID string
}

// ClaimCommand is a claim request whose StaffID has already been
// authenticated, by session token or by inline PIN.
type ClaimCommand struct {
	Code    string
	StoreID string
	StaffID string
}

// ClaimResult carries the claimed record. Retry is set when the same staff
// member re-claimed a handoff they already hold.
type ClaimResult struct {
	Record *Record
	Retry  bool
}
