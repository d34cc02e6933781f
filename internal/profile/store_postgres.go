package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bloodbank/internal/domain"
	"bloodbank/pkg/platform/sentinel"
)

// PostgresStore persists profiles in the donors and patients tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveDonor(ctx context.Context, donor domain.DonorProfile) error {
	const query = `
		INSERT INTO donors (id, name, blood_group, contact_number, address, approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    blood_group = EXCLUDED.blood_group,
		    contact_number = EXCLUDED.contact_number,
		    address = EXCLUDED.address,
		    approved = EXCLUDED.approved
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(donor.ID), donor.Name, donor.BloodGroup.String(),
		donor.ContactNumber, donor.Address, donor.Approved,
	)
	if err != nil {
		return fmt.Errorf("save donor: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindDonor(ctx context.Context, id domain.DonorID) (domain.DonorProfile, error) {
	const query = `
		SELECT id, name, blood_group, contact_number, address, approved
		FROM donors WHERE id = $1
	`
	donor, err := scanDonor(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DonorProfile{}, sentinel.ErrNotFound
	}
	return donor, err
}

func (s *PostgresStore) ListDonors(ctx context.Context) ([]domain.DonorProfile, error) {
	const query = `
		SELECT id, name, blood_group, contact_number, address, approved
		FROM donors ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query donors: %w", err)
	}
	defer rows.Close()

	var donors []domain.DonorProfile
	for rows.Next() {
		donor, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		donors = append(donors, donor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donors: %w", err)
	}
	return donors, nil
}

func (s *PostgresStore) SavePatient(ctx context.Context, patient domain.PatientProfile) error {
	const query = `
		INSERT INTO patients (id, name, blood_group, contact_number, address, approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    blood_group = EXCLUDED.blood_group,
		    contact_number = EXCLUDED.contact_number,
		    address = EXCLUDED.address,
		    approved = EXCLUDED.approved
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(patient.ID), patient.Name, patient.BloodGroup.String(),
		patient.ContactNumber, patient.Address, patient.Approved,
	)
	if err != nil {
		return fmt.Errorf("save patient: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindPatient(ctx context.Context, id domain.PatientID) (domain.PatientProfile, error) {
	const query = `
		SELECT id, name, blood_group, contact_number, address, approved
		FROM patients WHERE id = $1
	`
	patient, err := scanPatient(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PatientProfile{}, sentinel.ErrNotFound
	}
	return patient, err
}

func (s *PostgresStore) ListPatients(ctx context.Context) ([]domain.PatientProfile, error) {
	const query = `
		SELECT id, name, blood_group, contact_number, address, approved
		FROM patients ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var patients []domain.PatientProfile
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonor(row rowScanner) (domain.DonorProfile, error) {
	var (
		donor    domain.DonorProfile
		id       uuid.UUID
		groupRaw string
	)
	err := row.Scan(&id, &donor.Name, &groupRaw, &donor.ContactNumber, &donor.Address, &donor.Approved)
	if err != nil {
		return domain.DonorProfile{}, err
	}
	group, err := domain.ParseBloodGroup(groupRaw)
	if err != nil {
		return domain.DonorProfile{}, fmt.Errorf("donor row: %w", err)
	}
	donor.ID = domain.DonorID(id)
	donor.BloodGroup = group
	return donor, nil
}

func scanPatient(row rowScanner) (domain.PatientProfile, error) {
	var (
		patient  domain.PatientProfile
		id       uuid.UUID
		groupRaw string
	)
	err := row.Scan(&id, &patient.Name, &groupRaw, &patient.ContactNumber, &patient.Address, &patient.Approved)
	if err != nil {
		return domain.PatientProfile{}, err
	}
	group, err := domain.ParseBloodGroup(groupRaw)
	if err != nil {
		return domain.PatientProfile{}, fmt.Errorf("patient row: %w", err)
	}
	patient.ID = domain.PatientID(id)
	patient.BloodGroup = group
	return patient, nil
}
