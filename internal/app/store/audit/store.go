// internal/app/store/audit/store.go
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/folioadmin/internal/app/backend"
	"github.com/google/uuid"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUnknownUser   = "login_failed_unknown_user"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLogout                   = "logout"
)

// Admin event types
const (
	EventSectorCreated = "sector_created"
	EventSectorUpdated = "sector_updated"
	EventSectorDeleted = "sector_deleted"
)

// Table is the backend table audit events are written to.
const Table = "audit_events"

// Event represents an audit event.
type Event struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Category  string `json:"category"`
	EventType string `json:"event_type"`
	Success   bool   `json:"success"`

	// Actor is the login id of whoever acted; TargetID is the affected row.
	Actor    string `json:"actor"`
	TargetID string `json:"target_id"`

	IP            string            `json:"ip"`
	FailureReason string            `json:"failure_reason"`
	Details       map[string]string `json:"details"`
}

type Store struct {
	be  backend.Backend
	now func() time.Time
}

func New(be backend.Backend) *Store {
	return &Store{be: be, now: time.Now}
}

// Log persists e, assigning an id and timestamp when missing.
func (s *Store) Log(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	details := e.Details
	if details == nil {
		details = map[string]string{}
	}

	err := s.be.Insert(ctx, Table, backend.Row{
		"id":             e.ID,
		"created_at":     e.CreatedAt,
		"category":       e.Category,
		"event_type":     e.EventType,
		"success":        e.Success,
		"actor":          e.Actor,
		"target_id":      e.TargetID,
		"ip":             e.IP,
		"failure_reason": e.FailureReason,
		"details":        details,
	})
	if err != nil {
		return fmt.Errorf("store audit event %s: %w", e.EventType, err)
	}
	return nil
}

// Recent returns the newest events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.be.Select(ctx, Table, backend.Query{
		OrderBy:    "created_at",
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return backend.DecodeRows[Event](rows)
}
