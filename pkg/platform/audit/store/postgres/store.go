package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/google/uuid"

	audit "trustscore/pkg/platform/audit"
)

// Store implements audit.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const eventColumns = `id, category, timestamp, action, credential_id, credential_type,
			   subject, issuer, actor, decision, reason, request_id`

// Append inserts an audit event. Events carrying an ID are idempotent.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	eventID := event.ID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, query,
		eventID,
		string(event.Category),
		event.Timestamp,
		event.Action,
		event.CredentialID,
		event.CredentialType,
		event.Subject,
		event.Issuer,
		event.Actor,
		event.Decision,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns events for a subject, newest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM audit_events
		WHERE subject = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// clampLimit keeps the LIMIT parameter inside Postgres' int4 range.
func clampLimit(limit int) int32 {
	switch {
	case limit <= 0:
		return 100
	case limit > math.MaxInt32:
		return math.MaxInt32
	default:
		return int32(limit)
	}
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			category string
		)
		err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&event.Action,
			&event.CredentialID,
			&event.CredentialType,
			&event.Subject,
			&event.Issuer,
			&event.Actor,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
