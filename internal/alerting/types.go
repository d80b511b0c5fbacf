package alerting

import (
	"time"

	"RapidSafe/internal/models"
)

// Identity is the authenticated caller of an operation.
type Identity struct {
	UID string
}

type Contact struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

type CreateAlertRequest struct {
	UserID          string          `json:"userId"`
	TriggerMethod   string          `json:"triggerMethod"`
	InitialLocation models.Location `json:"initialLocation"`
	Contacts        []Contact       `json:"contacts"`
	// DisplayName is how the user is named in the text message. Optional.
	DisplayName string `json:"displayName,omitempty"`
	Language    string `json:"language,omitempty"`
}

type CreateAlertResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	AlertID string `json:"alertId"`
}

type LocationUpdate struct {
	CurrentLocation models.Location `json:"currentLocation"`
	LastUpdated     time.Time       `json:"lastUpdated"`
	Direction       *float64        `json:"direction,omitempty"`
}

type LocationUpdateResult struct {
	Applied bool `json:"applied"`
}

// Snapshot is the public tracking view of an alert. It never carries the
// owner or the contacts' numbers.
type Snapshot struct {
	AlertID         string          `json:"alertId"`
	Status          string          `json:"status"`
	TriggerMethod   string          `json:"triggerMethod"`
	InitialLocation models.Location `json:"initialLocation"`
	CurrentLocation models.Location `json:"currentLocation"`
	LastUpdated     *time.Time      `json:"lastUpdated"`
	Direction       *float64        `json:"direction"`
	CreatedAt       time.Time       `json:"createdAt"`
	ResolvedAt      *time.Time      `json:"resolvedAt,omitempty"`
}

func snapshotOf(rec *models.AlertRecord) Snapshot {
	return Snapshot{
		AlertID:         rec.AlertID,
		Status:          rec.Status,
		TriggerMethod:   rec.TriggerMethod,
		InitialLocation: rec.InitialLocation,
		CurrentLocation: rec.CurrentLocation,
		LastUpdated:     rec.LastUpdated,
		Direction:       rec.Direction,
		CreatedAt:       rec.CreatedAt,
		ResolvedAt:      rec.ResolvedAt,
	}
}

// Delivery is the outcome of one text message.
type Delivery struct {
	ContactID string
	Phone     string
	Err       error
}
