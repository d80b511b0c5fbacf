package alerting

import (
	"context"
	"time"

	"gorm.io/gorm"

	"RapidSafe/internal/models"
)

// Store persists alert records.
type Store interface {
	Create(ctx context.Context, rec *models.AlertRecord) error
	Get(ctx context.Context, alertID string) (*models.AlertRecord, error)
	// UpdateLocation reports false when the record is not active or the
	// update is not newer than the stored one.
	UpdateLocation(ctx context.Context, alertID string, loc models.Location, at time.Time, direction *float64) (bool, error)
	// Transition reports false when the record was no longer active.
	Transition(ctx context.Context, alertID, status string, at time.Time) (bool, error)
	CountActive(ctx context.Context) (int64, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore 基于 gorm 的存储，调用方负责迁移 models.AlertRecord
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Create(ctx context.Context, rec *models.AlertRecord) error {
	return models.CreateAlertRecord(s.db.WithContext(ctx), rec)
}

func (s *gormStore) Get(ctx context.Context, alertID string) (*models.AlertRecord, error) {
	return models.GetAlertRecord(s.db.WithContext(ctx), alertID)
}

func (s *gormStore) UpdateLocation(ctx context.Context, alertID string, loc models.Location, at time.Time, direction *float64) (bool, error) {
	return models.UpdateAlertLocation(s.db.WithContext(ctx), alertID, loc, at, direction)
}

func (s *gormStore) Transition(ctx context.Context, alertID, status string, at time.Time) (bool, error) {
	return models.TransitionAlertStatus(s.db.WithContext(ctx), alertID, status, at)
}

func (s *gormStore) CountActive(ctx context.Context) (int64, error) {
	return models.CountActiveAlerts(s.db.WithContext(ctx))
}
