// Package dispatch runs one SOS lifecycle on the device: position fix,
// backend submit, then live tracking.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"RapidSafe/internal/alerting"
	"RapidSafe/internal/device/geo"
	"RapidSafe/internal/models"
	"RapidSafe/pkg/logger"
)

type Outcome string

const (
	OutcomeSuccess                  Outcome = "success"
	OutcomePartialSuccessNoTracking Outcome = "partial_success_no_tracking"
	OutcomeBackendFailed            Outcome = "backend_communication_failed"
)

// BackendFailedMessage is reported when the alert never reached the backend.
const BackendFailedMessage = "Backend communication failed."

// Backend submits a new alert.
type Backend interface {
	CreateAlert(ctx context.Context, req *alerting.CreateAlertRequest) (*alerting.CreateAlertResponse, error)
}

// Tracking starts live position streaming for an alert.
type Tracking interface {
	Start(ctx context.Context, alertID string) error
}

// Ender closes an alert on the backend. status is models.AlertStatusResolved
// or models.AlertStatusCancelled.
type Ender interface {
	EndAlert(ctx context.Context, alertID, status string) (*alerting.Snapshot, error)
}

type AlertResult struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	AlertID string  `json:"alertId,omitempty"`
	Outcome Outcome `json:"outcome"`
}

type Client struct {
	fixes       geo.FixProvider
	backend     Backend
	tracking    Tracking
	fixTimeout  time.Duration
	displayName string
}

type Option func(*Client)

// WithFixTimeout bounds the one-shot fix, default 10s.
func WithFixTimeout(d time.Duration) Option { return func(c *Client) { c.fixTimeout = d } }

// WithDisplayName names the user in the contacts' text message.
func WithDisplayName(name string) Option { return func(c *Client) { c.displayName = name } }

func NewClient(fixes geo.FixProvider, backend Backend, tracking Tracking, opts ...Option) *Client {
	c := &Client{fixes: fixes, backend: backend, tracking: tracking, fixTimeout: 10 * time.Second}
	for _, o := range opts {
		o(c)
	}
	return c
}

// InitiateSOS never lets a missing fix or a tracking failure suppress the
// notification: the fix falls back to (0,0) and tracking is best effort.
func (c *Client) InitiateSOS(ctx context.Context, userID, triggerMethod string, contacts []models.Contact) AlertResult {
	// 1. 定位，失败则使用 (0,0)
	loc := models.Location{}
	if pos, err := geo.FixWithTimeout(ctx, c.fixes, c.fixTimeout); err != nil {
		logger.Warn("location fix failed, using 0,0", zap.Error(err))
	} else {
		loc = models.Location{Lat: pos.Lat, Lng: pos.Lng}
	}

	// 2. 提交后端
	req := &alerting.CreateAlertRequest{
		UserID:          userID,
		TriggerMethod:   triggerMethod,
		InitialLocation: loc,
		Contacts:        toWire(contacts),
		DisplayName:     c.displayName,
	}
	resp, err := c.backend.CreateAlert(ctx, req)
	if err != nil {
		logger.Error("SOS initiation failed", zap.String("trigger", triggerMethod), zap.Error(err))
		return AlertResult{Success: false, Message: BackendFailedMessage, Outcome: OutcomeBackendFailed}
	}
	if resp == nil || !resp.Success {
		msg := BackendFailedMessage
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		return AlertResult{Success: false, Message: msg, Outcome: OutcomeBackendFailed}
	}

	res := AlertResult{Success: true, Message: resp.Message, AlertID: resp.AlertID, Outcome: OutcomeSuccess}

	// 3. 开始追踪，失败只记录日志
	if resp.AlertID == "" {
		logger.Warn("backend returned no alert id, tracking skipped")
		res.Outcome = OutcomePartialSuccessNoTracking
		return res
	}
	if err := c.tracking.Start(ctx, resp.AlertID); err != nil {
		logger.Warn("tracking not started", zap.String("alert_id", resp.AlertID), zap.Error(err))
		res.Outcome = OutcomePartialSuccessNoTracking
	}
	return res
}

func toWire(contacts []models.Contact) []alerting.Contact {
	out := make([]alerting.Contact, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, alerting.Contact{ID: c.ID, Name: c.Name, PhoneNumber: c.PhoneNumber})
	}
	return out
}

// EndSOS stops live tracking and then resolves or cancels the alert.
func (c *Client) EndSOS(ctx context.Context, alertID, status string) (*alerting.Snapshot, error) {
	if status != models.AlertStatusResolved && status != models.AlertStatusCancelled {
		return nil, fmt.Errorf("cannot end alert with status %q", status)
	}
	if st, ok := c.tracking.(interface{ Stop() error }); ok {
		if err := st.Stop(); err != nil {
			logger.Warn("stop tracking", zap.String("alert_id", alertID), zap.Error(err))
		}
	}
	e, ok := c.backend.(Ender)
	if !ok {
		return nil, fmt.Errorf("backend cannot end alerts")
	}
	snap, err := e.EndAlert(ctx, alertID, status)
	if err != nil {
		return nil, err
	}
	logger.Info("alert ended", zap.String("alert_id", alertID), zap.String("status", snap.Status))
	return snap, nil
}
