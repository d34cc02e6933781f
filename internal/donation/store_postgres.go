package donation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bloodbank/internal/domain"
	txcontext "bloodbank/pkg/platform/tx"
)

// PostgresStore persists donation history in blood_donations. Appends honor
// an enclosing transaction from context so the record and the ledger credit
// commit together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, record domain.DonationRecord) error {
	const query = `
		INSERT INTO blood_donations (id, donor_id, blood_group, units, donated_on)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		record.ID,
		uuid.UUID(record.DonorID),
		record.BloodGroup.String(),
		record.Units,
		record.Date,
	)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

func (s *PostgresStore) LastDonationDate(ctx context.Context, donorID domain.DonorID) (*time.Time, error) {
	const query = `
		SELECT donated_on FROM blood_donations
		WHERE donor_id = $1
		ORDER BY donated_on DESC
		LIMIT 1
	`
	var date time.Time
	err := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(donorID)).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last donation: %w", err)
	}
	return &date, nil
}

func (s *PostgresStore) ListByDonor(ctx context.Context, donorID domain.DonorID) ([]domain.DonationRecord, error) {
	const query = `
		SELECT id, donor_id, blood_group, units, donated_on
		FROM blood_donations
		WHERE donor_id = $1
		ORDER BY donated_on DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(donorID))
	if err != nil {
		return nil, fmt.Errorf("query donations: %w", err)
	}
	defer rows.Close()
	return scanDonations(rows)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]domain.DonationRecord, error) {
	const query = `
		SELECT id, donor_id, blood_group, units, donated_on
		FROM blood_donations
		ORDER BY donated_on DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query donations: %w", err)
	}
	defer rows.Close()
	return scanDonations(rows)
}

func scanDonations(rows *sql.Rows) ([]domain.DonationRecord, error) {
	var records []domain.DonationRecord
	for rows.Next() {
		var (
			record   domain.DonationRecord
			donorID  uuid.UUID
			groupRaw string
		)
		if err := rows.Scan(&record.ID, &donorID, &groupRaw, &record.Units, &record.Date); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		group, err := domain.ParseBloodGroup(groupRaw)
		if err != nil {
			return nil, fmt.Errorf("donation row: %w", err)
		}
		record.DonorID = domain.DonorID(donorID)
		record.BloodGroup = group
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donations: %w", err)
	}
	return records, nil
}
