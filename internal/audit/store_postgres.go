package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	txcontext "bloodbank/pkg/platform/tx"
)

// PostgresStore persists the trail in audit_events. Inserts honor an
// enclosing transaction from context when a caller enrolls them in one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	const query = `
		INSERT INTO audit_events (id, timestamp, actor, action, blood_group, units, decision, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		event.Timestamp,
		event.Actor,
		event.Action,
		event.BloodGroup,
		event.Units,
		event.Decision,
		event.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByActor(ctx context.Context, actor string) ([]Event, error) {
	const query = `
		SELECT timestamp, actor, action, blood_group, units, decision, reason
		FROM audit_events
		WHERE actor = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, actor)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	const query = `
		SELECT timestamp, actor, action, blood_group, units, decision, reason
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var event Event
		err := rows.Scan(
			&event.Timestamp,
			&event.Actor,
			&event.Action,
			&event.BloodGroup,
			&event.Units,
			&event.Decision,
			&event.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
