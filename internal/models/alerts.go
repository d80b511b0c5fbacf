package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	AlertStatusActive    = "active"
	AlertStatusResolved  = "resolved"
	AlertStatusCancelled = "cancelled"

	TriggerNormalSOS = "normal_sos"
	TriggerDuressPin = "duress_pin"
)

var ErrAlertNotFound = errors.New("alert not found")

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AlertRecord 求助警报记录，AlertID 创建后不可变
type AlertRecord struct {
	ID                uint       `json:"-" gorm:"primaryKey"`
	AlertID           string     `json:"alertId" gorm:"size:36;uniqueIndex"`
	UserID            string     `json:"userId" gorm:"size:128;index"`
	Status            string     `json:"status" gorm:"size:16;index"`
	TriggerMethod     string     `json:"triggerMethod" gorm:"size:16"`
	InitialLocation   Location   `json:"initialLocation" gorm:"embedded;embeddedPrefix:initial_"`
	CurrentLocation   Location   `json:"currentLocation" gorm:"embedded;embeddedPrefix:current_"`
	LastUpdated       *time.Time `json:"lastUpdated"`
	LastUpdatedNs     int64      `json:"-"` // 纳秒，单调比较用，避免依赖数据库的时间精度
	Direction         *float64   `json:"direction"`
	EmergencyContacts []string   `json:"emergencyContacts" gorm:"serializer:json;type:text"`
	CreatedAt         time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `json:"-" gorm:"autoUpdateTime"`
	ResolvedAt        *time.Time `json:"resolvedAt,omitempty"`
}

func (r *AlertRecord) Active() bool { return r.Status == AlertStatusActive }

// CreateAlertRecord 写入新警报
func CreateAlertRecord(db *gorm.DB, rec *AlertRecord) error {
	return db.Create(rec).Error
}

// GetAlertRecord 按 alertId 查询
func GetAlertRecord(db *gorm.DB, alertID string) (*AlertRecord, error) {
	var rec AlertRecord
	err := db.Where("alert_id = ?", alertID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateAlertLocation moves currentLocation forward. It reports false when
// the record is not active or already holds a fix at or after at.
func UpdateAlertLocation(db *gorm.DB, alertID string, loc Location, at time.Time, direction *float64) (bool, error) {
	at = at.UTC()
	res := db.Model(&AlertRecord{}).
		Where("alert_id = ? AND status = ? AND last_updated_ns < ?", alertID, AlertStatusActive, at.UnixNano()).
		Updates(map[string]any{
			"current_lat":     loc.Lat,
			"current_lng":     loc.Lng,
			"last_updated":    at,
			"last_updated_ns": at.UnixNano(),
			"direction":       direction,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// TransitionAlertStatus moves an active alert to status. It reports false
// when the alert was no longer active.
func TransitionAlertStatus(db *gorm.DB, alertID, status string, at time.Time) (bool, error) {
	res := db.Model(&AlertRecord{}).
		Where("alert_id = ? AND status = ?", alertID, AlertStatusActive).
		Updates(map[string]any{"status": status, "resolved_at": at.UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountActiveAlerts 当前 active 状态的警报数
func CountActiveAlerts(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&AlertRecord{}).Where("status = ?", AlertStatusActive).Count(&n).Error
	return n, err
}

// ListAlertsByUser 用户的警报，按创建时间倒序
func ListAlertsByUser(db *gorm.DB, userID string, limit int) ([]AlertRecord, error) {
	var out []AlertRecord
	q := db.Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return out, q.Find(&out).Error
}
