// Package analytics records price-checker usage events.
package analytics

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is one tracked interaction from the kiosk.
type Event struct {
	ID           string          `json:"id" dynamodbav:"id"` // PK
	EventType    string          `json:"eventType" dynamodbav:"event_type"`
	LookupType   string          `json:"lookupType,omitempty" dynamodbav:"lookup_type,omitempty"`
	QueryValue   string          `json:"queryValue,omitempty" dynamodbav:"query_value,omitempty"`
	Success      *bool           `json:"success,omitempty" dynamodbav:"success,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty" dynamodbav:"error_message,omitempty"`
	Meta         json.RawMessage `json:"meta,omitempty" dynamodbav:"-"`
	UserAgent    string          `json:"userAgent,omitempty" dynamodbav:"user_agent,omitempty"`
	IPAddress    string          `json:"ip,omitempty" dynamodbav:"ip_address,omitempty"`
	CreatedAt    time.Time       `json:"createdAt" dynamodbav:"created_at"`
}

// NewEvent trims the client-supplied fields and stamps id and time. Meta is
// kept only when it is a JSON object.
func NewEvent(eventType, lookupType, queryValue string, success *bool, errorMessage string, meta json.RawMessage, now time.Time) *Event {
	e := &Event{
		ID:           uuid.NewString(),
		EventType:    strings.TrimSpace(eventType),
		LookupType:   strings.TrimSpace(lookupType),
		QueryValue:   strings.TrimSpace(queryValue),
		Success:      success,
		ErrorMessage: strings.TrimSpace(errorMessage),
		CreatedAt:    now.UTC(),
	}
	var obj map[string]any
	if len(meta) > 0 && json.Unmarshal(meta, &obj) == nil && obj != nil {
		e.Meta = meta
	}
	return e
}

// Outcome labels the event for metrics: "success", "failure" or "unknown".
func (e *Event) Outcome() string {
	switch {
	case e.Success == nil:
		return "unknown"
	case *e.Success:
		return "success"
	default:
		return "failure"
	}
}
