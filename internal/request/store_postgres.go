package request

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bloodbank/internal/domain"
	txcontext "bloodbank/pkg/platform/tx"
)

// PostgresStore persists request history in blood_requests. Appends honor an
// enclosing transaction from context so an Approved record and the ledger
// debit commit together.
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

func (s *PostgresStore) Append(ctx context.Context, record domain.RequestRecord) error {
	const query = `
		INSERT INTO blood_requests (id, patient_id, blood_group, units, requested_on, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		record.ID,
		uuid.UUID(record.PatientID),
		record.BloodGroup.String(),
		record.Units,
		record.Date,
		string(record.Status),
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByPatient(ctx context.Context, patientID domain.PatientID) ([]domain.RequestRecord, error) {
	const query = `
		SELECT id, patient_id, blood_group, units, requested_on, status
		FROM blood_requests
		WHERE patient_id = $1
		ORDER BY requested_on DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(patientID))
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]domain.RequestRecord, error) {
	const query = `
		SELECT id, patient_id, blood_group, units, requested_on, status
		FROM blood_requests
		ORDER BY requested_on DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func scanRequests(rows *sql.Rows) ([]domain.RequestRecord, error) {
	var records []domain.RequestRecord
	for rows.Next() {
		var (
			record    domain.RequestRecord
			patientID uuid.UUID
			groupRaw  string
			statusRaw string
		)
		if err := rows.Scan(&record.ID, &patientID, &groupRaw, &record.Units, &record.Date, &statusRaw); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		group, err := domain.ParseBloodGroup(groupRaw)
		if err != nil {
			return nil, fmt.Errorf("request row: %w", err)
		}
		record.PatientID = domain.PatientID(patientID)
		record.BloodGroup = group
		record.Status = domain.RequestStatus(statusRaw)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return records, nil
}
