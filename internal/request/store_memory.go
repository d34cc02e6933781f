package request

import (
	"context"
	"sync"

	"bloodbank/internal/domain"
)

// InMemoryStore keeps request history per patient.
type InMemoryStore struct {
	mu        sync.RWMutex
	byPatient map[domain.PatientID][]domain.RequestRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byPatient: make(map[domain.PatientID][]domain.RequestRecord)}
}

func (s *InMemoryStore) Append(_ context.Context, record domain.RequestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPatient[record.PatientID] = append(s.byPatient[record.PatientID], record)
	return nil
}

func (s *InMemoryStore) ListByPatient(_ context.Context, patientID domain.PatientID) ([]domain.RequestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.RequestRecord{}, s.byPatient[patientID]...), nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]domain.RequestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.RequestRecord
	for _, records := range s.byPatient {
		out = append(out, records...)
	}
	return out, nil
}
