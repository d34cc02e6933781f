package donation

import (
	"context"
	"sync"
	"time"

	"bloodbank/internal/domain"
)

// InMemoryStore keeps donation history per donor. It intentionally favors
// clarity over performance.
type InMemoryStore struct {
	mu      sync.RWMutex
	byDonor map[domain.DonorID][]domain.DonationRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byDonor: make(map[domain.DonorID][]domain.DonationRecord)}
}

func (s *InMemoryStore) Append(_ context.Context, record domain.DonationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byDonor[record.DonorID] = append(s.byDonor[record.DonorID], record)
	return nil
}

func (s *InMemoryStore) LastDonationDate(_ context.Context, donorID domain.DonorID) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.byDonor[donorID]
	if len(records) == 0 {
		return nil, nil
	}
	last := records[0].Date
	for _, record := range records[1:] {
		if record.Date.After(last) {
			last = record.Date
		}
	}
	return &last, nil
}

func (s *InMemoryStore) ListByDonor(_ context.Context, donorID domain.DonorID) ([]domain.DonationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DonationRecord{}, s.byDonor[donorID]...), nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]domain.DonationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.DonationRecord
	for _, records := range s.byDonor {
		out = append(out, records...)
	}
	return out, nil
}
