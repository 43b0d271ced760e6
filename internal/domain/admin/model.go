package admin

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Organization maps to the organization table. It is the root of every
// synchronization run.
type Organization struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	Name       string    `db:"name" json:"name"`
	Active     bool      `db:"active" json:"active"`
	TypeCode   *string   `db:"type_code" json:"type_code,omitempty"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Email      *string   `db:"email" json:"email,omitempty"`
	City       *string   `db:"city" json:"city,omitempty"`
	Country    *string   `db:"country" json:"country,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SyncRun is one finished synchronization run and its aggregate result.
type SyncRun struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	Source     string          `db:"source" json:"source"`
	Scope      string          `db:"scope" json:"scope"`
	Status     string          `db:"status" json:"status"`
	StartedAt  time.Time       `db:"started_at" json:"started_at"`
	FinishedAt time.Time       `db:"finished_at" json:"finished_at"`
	Result     json.RawMessage `db:"result" json:"result"`
}
