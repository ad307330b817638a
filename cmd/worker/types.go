package main

import (
	"time"

	"github.com/imrishuroy/pos-handoff/internal/analytics"
)

// eventItem is the events table row. Meta is kept as its JSON text.
type eventItem struct {
	ID           string    `dynamodbav:"id"` // PK
	EventType    string    `dynamodbav:"event_type"`
	LookupType   string    `dynamodbav:"lookup_type,omitempty"`
	QueryValue   string    `dynamodbav:"query_value,omitempty"`
	Success      *bool     `dynamodbav:"success,omitempty"`
	ErrorMessage string    `dynamodbav:"error_message,omitempty"`
	Meta         string    `dynamodbav:"meta,omitempty"`
	UserAgent    string    `dynamodbav:"user_agent,omitempty"`
	IPAddress    string    `dynamodbav:"ip_address,omitempty"`
	CreatedAt    time.Time `dynamodbav:"created_at"`
	ReceivedAt   time.Time `dynamodbav:"received_at"`
}

func newEventItem(e *analytics.Event, receivedAt time.Time) eventItem {
	return eventItem{
		ID:           e.ID,
		EventType:    e.EventType,
		LookupType:   e.LookupType,
		QueryValue:   e.QueryValue,
		Success:      e.Success,
		ErrorMessage: e.ErrorMessage,
		Meta:         string(e.Meta),
		UserAgent:    e.UserAgent,
		IPAddress:    e.IPAddress,
		CreatedAt:    e.CreatedAt,
		ReceivedAt:   receivedAt,
	}
}
