package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"RapidSafe/internal/models"
)

// Log is the device's append-only record of dispatched alerts.
type Log struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) (*Log, error) {
	if err := db.AutoMigrate(&models.HistoryEntry{}); err != nil {
		return nil, err
	}
	return &Log{db: db, now: time.Now}, nil
}

// Append stores e, filling id, timestamp and status when empty.
func (l *Log) Append(ctx context.Context, e models.HistoryEntry) (*models.HistoryEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	if e.Status == "" {
		e.Status = models.HistoryStatusSent
	}
	if err := l.db.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns up to limit entries, newest first. limit<=0 means all.
func (l *Log) List(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	var out []models.HistoryEntry
	q := l.db.WithContext(ctx).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return out, q.Find(&out).Error
}
