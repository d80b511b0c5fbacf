package models

import (
	"time"
)

// Credentials 设备本地的 PIN 设置，单行表
type Credentials struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	NormalPin string    `json:"-" gorm:"size:4"`
	DuressPin string    `json:"-" gorm:"size:4"`
	IsPinSet  bool      `json:"isPinSet"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Contact 紧急联系人
type Contact struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Name        string    `json:"name" gorm:"size:128"`
	PhoneNumber string    `json:"phoneNumber" gorm:"size:32"`
	CreatedAt   time.Time `json:"-" gorm:"autoCreateTime"`
}

const (
	HistoryTypeDuress = "Duress Alert"
	HistoryTypeSOS    = "SOS Alert"

	HistoryStatusSent = "Sent"
)

// HistoryEntry 本地历史记录，只追加
type HistoryEntry struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Timestamp   time.Time `json:"timestamp" gorm:"index"`
	Type        string    `json:"type" gorm:"size:32"`
	Description string    `json:"description" gorm:"size:512"`
	Recipients  []string  `json:"recipients" gorm:"serializer:json;type:text"`
	Status      string    `json:"status" gorm:"size:16"`
	AlertID     string    `json:"alertId,omitempty" gorm:"size:36"`
}
