package profile

import (
	"context"
	"sync"

	"bloodbank/internal/domain"
	"bloodbank/pkg/platform/sentinel"
)

// InMemoryStore keeps profiles in maps guarded by one RWMutex; profile
// lookups are reads on the hot path, writes only happen through the admin
// surface.
type InMemoryStore struct {
	mu       sync.RWMutex
	donors   map[domain.DonorID]domain.DonorProfile
	patients map[domain.PatientID]domain.PatientProfile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		donors:   make(map[domain.DonorID]domain.DonorProfile),
		patients: make(map[domain.PatientID]domain.PatientProfile),
	}
}

func (s *InMemoryStore) SaveDonor(_ context.Context, donor domain.DonorProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donors[donor.ID] = donor
	return nil
}

func (s *InMemoryStore) FindDonor(_ context.Context, id domain.DonorID) (domain.DonorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if donor, ok := s.donors[id]; ok {
		return donor, nil
	}
	return domain.DonorProfile{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListDonors(_ context.Context) ([]domain.DonorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DonorProfile, 0, len(s.donors))
	for _, donor := range s.donors {
		out = append(out, donor)
	}
	return out, nil
}

func (s *InMemoryStore) SavePatient(_ context.Context, patient domain.PatientProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[patient.ID] = patient
	return nil
}

func (s *InMemoryStore) FindPatient(_ context.Context, id domain.PatientID) (domain.PatientProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if patient, ok := s.patients[id]; ok {
		return patient, nil
	}
	return domain.PatientProfile{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListPatients(_ context.Context) ([]domain.PatientProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PatientProfile, 0, len(s.patients))
	for _, patient := range s.patients {
		out = append(out, patient)
	}
	return out, nil
}
