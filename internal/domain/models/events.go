package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventQuoteStatusChanged  EventType = "quote.status_changed"
	EventQuoteModified       EventType = "quote.modified"
	EventQuoteIVUpdated      EventType = "quote.iv_updated"
	EventTermSheetDecided    EventType = "termsheet.status_changed"
	EventTermSheetSubmitted  EventType = "termsheet.submitted"
	EventInterestRateCreated EventType = "interest_rate.created"
	EventLogin               EventType = "auth.login"
)

// DeskEvent records a decision taken through the portal.
type DeskEvent struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	Actor      string          `json:"actor"`
	Subject    string          `json:"subject"`
	Status     string          `json:"status,omitempty"`
	Count      int             `json:"count"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewDeskEvent stamps a new event with a random id.
func NewDeskEvent(t EventType, actor, subject string, now time.Time) DeskEvent {
	return DeskEvent{
		ID:         uuid.NewString(),
		Type:       t,
		Actor:      actor,
		Subject:    subject,
		Count:      1,
		OccurredAt: now.UTC(),
	}
}

// WithPayload attaches v as the JSON payload. Values that cannot be encoded
// are dropped.
func (e DeskEvent) WithPayload(v interface{}) DeskEvent {
	if b, err := json.Marshal(v); err == nil {
		e.Payload = b
	}
	return e
}

// AuditQuery selects stored desk events.
type AuditQuery struct {
	Type  string `query:"type" json:"type"`
	Actor string `query:"actor" json:"actor"`
	Limit int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}
