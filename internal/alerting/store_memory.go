package alerting

import (
	"context"
	"sync"
	"time"

	"RapidSafe/internal/models"
)

// MemoryStore keeps records in a map. Tests use it in place of the gorm
// store; records handed out are copies.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]models.AlertRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]models.AlertRecord)}
}

func (s *MemoryStore) Create(_ context.Context, rec *models.AlertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	cp := *rec
	cp.EmergencyContacts = append([]string(nil), rec.EmergencyContacts...)
	s.data[rec.AlertID] = cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, alertID string) (*models.AlertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[alertID]
	if !ok {
		return nil, models.ErrAlertNotFound
	}
	rec.EmergencyContacts = append([]string(nil), rec.EmergencyContacts...)
	return &rec, nil
}

func (s *MemoryStore) UpdateLocation(_ context.Context, alertID string, loc models.Location, at time.Time, direction *float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data[alertID]
	if !ok || !rec.Active() {
		return false, nil
	}
	at = at.UTC()
	if at.UnixNano() <= rec.LastUpdatedNs {
		return false, nil
	}
	rec.CurrentLocation = loc
	rec.LastUpdated = &at
	rec.LastUpdatedNs = at.UnixNano()
	rec.Direction = direction
	s.data[alertID] = rec
	return true, nil
}

func (s *MemoryStore) Transition(_ context.Context, alertID, status string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data[alertID]
	if !ok || !rec.Active() {
		return false, nil
	}
	at = at.UTC()
	rec.Status = status
	rec.ResolvedAt = &at
	s.data[alertID] = rec
	return true, nil
}

func (s *MemoryStore) CountActive(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, rec := range s.data {
		if rec.Active() {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
