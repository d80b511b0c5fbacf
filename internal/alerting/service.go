package alerting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"RapidSafe/internal/models"
	apperrors "RapidSafe/pkg/errors"
	"RapidSafe/pkg/logger"
	"RapidSafe/pkg/metrics"
)

// Event names pushed to tracking pages.
const (
	EventLocation = "location"
	EventStatus   = "status"
)

// Publisher pushes alert changes to live tracking subscribers.
type Publisher interface {
	Publish(topic, name string, v interface{})
	Close(topic string)
}

type Service struct {
	store    Store
	fanout   *Fanout
	messages *MessageBuilder
	pubs     []Publisher
	lang     string
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

// WithPublisher adds a live-tracking channel. May be given more than once.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.pubs = append(s.pubs, p) } }

func WithLanguage(lang string) Option { return func(s *Service) { s.lang = lang } }

func NewService(store Store, fanout *Fanout, messages *MessageBuilder, opts ...Option) *Service {
	s := &Service{
		store:    store,
		fanout:   fanout,
		messages: messages,
		lang:     "en",
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func reject(err *apperrors.Error) error {
	metrics.AlertRejected(err.Status())
	return err
}

// CreateAlert records a new active alert and notifies every contact. It
// returns only after the record is stored and all sends have finished.
// Individual send failures never fail the call.
func (s *Service) CreateAlert(ctx context.Context, caller *Identity, req CreateAlertRequest) (*CreateAlertResponse, error) {
	if caller == nil || caller.UID == "" {
		return nil, reject(apperrors.Unauthenticated("The function must be called by an authenticated user."))
	}
	if caller.UID != req.UserID {
		return nil, reject(apperrors.PermissionDenied("User ID mismatch. Cannot trigger an alert for another user."))
	}
	if len(req.Contacts) == 0 {
		logger.Warn("alert triggered without contacts", zap.String("user_id", req.UserID))
		return nil, reject(apperrors.InvalidArgument("No emergency contacts found to notify."))
	}
	if req.TriggerMethod != models.TriggerNormalSOS && req.TriggerMethod != models.TriggerDuressPin {
		return nil, reject(apperrors.InvalidArgument("triggerMethod must be normal_sos or duress_pin"))
	}
	phones := make([]string, 0, len(req.Contacts))
	for _, c := range req.Contacts {
		if c.PhoneNumber == "" {
			return nil, reject(apperrors.InvalidArgument("every contact needs a phone number"))
		}
		phones = append(phones, c.PhoneNumber)
	}
	if !plausible(req.InitialLocation) {
		logger.Warn("initial location out of range", zap.Float64("lat", req.InitialLocation.Lat), zap.Float64("lng", req.InitialLocation.Lng))
	}

	rec := &models.AlertRecord{
		AlertID:           s.newID(),
		UserID:            req.UserID,
		Status:            models.AlertStatusActive,
		TriggerMethod:     req.TriggerMethod,
		InitialLocation:   req.InitialLocation,
		CurrentLocation:   req.InitialLocation,
		EmergencyContacts: phones,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, apperrors.Wrap(err, "failed to store alert")
	}
	metrics.AlertCreated(rec.TriggerMethod)
	logger.Info("alert created",
		zap.String("alert_id", rec.AlertID),
		zap.String("user_id", rec.UserID),
		zap.String("trigger", rec.TriggerMethod))

	lang := req.Language
	if lang == "" {
		lang = s.lang
	}
	body := s.messages.Build(lang, rec.TriggerMethod, req.DisplayName, rec.AlertID)
	// 客户端断开不应中断短信发送
	s.fanout.Notify(context.WithoutCancel(ctx), rec.AlertID, rec.TriggerMethod, req.Contacts, body)

	return &CreateAlertResponse{
		Success: true,
		Message: "Alert initiated and contacts notified.",
		AlertID: rec.AlertID,
	}, nil
}

// UpdateLocation applies a streamed fix to the owner's active alert. A fix
// that is not newer than the stored one is ignored and reported as not
// applied.
func (s *Service) UpdateLocation(ctx context.Context, caller *Identity, alertID string, upd LocationUpdate) (bool, error) {
	if upd.LastUpdated.IsZero() {
		metrics.LocationUpdate("rejected")
		return false, apperrors.InvalidArgument("lastUpdated is required")
	}
	rec, err := s.owned(ctx, caller, alertID)
	if err != nil {
		metrics.LocationUpdate("rejected")
		return false, err
	}
	if !rec.Active() {
		metrics.LocationUpdate("rejected")
		return false, apperrors.FailedPrecondition("alert is " + rec.Status)
	}

	applied, err := s.store.UpdateLocation(ctx, alertID, upd.CurrentLocation, upd.LastUpdated, upd.Direction)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to update location")
	}
	if !applied {
		// 区分并发结束与过期时间戳
		if cur, err := s.store.Get(ctx, alertID); err == nil && !cur.Active() {
			metrics.LocationUpdate("rejected")
			return false, apperrors.FailedPrecondition("alert is " + cur.Status)
		}
		metrics.LocationUpdate("stale")
		return false, nil
	}
	metrics.LocationUpdate("applied")

	if len(s.pubs) > 0 {
		if cur, err := s.store.Get(ctx, alertID); err == nil {
			snap := snapshotOf(cur)
			for _, p := range s.pubs {
				p.Publish(alertID, EventLocation, snap)
			}
		}
	}
	return true, nil
}

func (s *Service) Resolve(ctx context.Context, caller *Identity, alertID string) (*Snapshot, error) {
	return s.transition(ctx, caller, alertID, models.AlertStatusResolved)
}

func (s *Service) Cancel(ctx context.Context, caller *Identity, alertID string) (*Snapshot, error) {
	return s.transition(ctx, caller, alertID, models.AlertStatusCancelled)
}

func (s *Service) transition(ctx context.Context, caller *Identity, alertID, status string) (*Snapshot, error) {
	rec, err := s.owned(ctx, caller, alertID)
	if err != nil {
		return nil, err
	}
	if rec.Status == status {
		snap := snapshotOf(rec)
		return &snap, nil
	}
	if !rec.Active() {
		return nil, apperrors.FailedPrecondition("alert is already " + rec.Status)
	}

	ok, err := s.store.Transition(ctx, alertID, status, s.now())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to update alert status")
	}
	cur, err := s.store.Get(ctx, alertID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to reload alert")
	}
	if !ok && cur.Status != status {
		return nil, apperrors.FailedPrecondition("alert is already " + cur.Status)
	}
	logger.Info("alert closed", zap.String("alert_id", alertID), zap.String("status", status))

	snap := snapshotOf(cur)
	for _, p := range s.pubs {
		p.Publish(alertID, EventStatus, snap)
		p.Close(alertID)
	}
	return &snap, nil
}

// Get returns the public tracking snapshot.
func (s *Service) Get(ctx context.Context, alertID string) (*Snapshot, error) {
	rec, err := s.store.Get(ctx, alertID)
	if err != nil {
		return nil, classifyLookup(err)
	}
	snap := snapshotOf(rec)
	return &snap, nil
}

// RefreshActiveGauge updates the active-alerts gauge from the store.
func (s *Service) RefreshActiveGauge(ctx context.Context) {
	n, err := s.store.CountActive(ctx)
	if err != nil {
		logger.Warn("count active alerts", zap.Error(err))
		return
	}
	metrics.SetActiveAlerts(n)
}

func (s *Service) owned(ctx context.Context, caller *Identity, alertID string) (*models.AlertRecord, error) {
	if caller == nil || caller.UID == "" {
		return nil, apperrors.Unauthenticated("authentication required")
	}
	rec, err := s.store.Get(ctx, alertID)
	if err != nil {
		return nil, classifyLookup(err)
	}
	if rec.UserID != caller.UID {
		return nil, apperrors.PermissionDenied("alert belongs to another user")
	}
	return rec, nil
}

func classifyLookup(err error) error {
	if errors.Is(err, models.ErrAlertNotFound) {
		return apperrors.NotFound("alert not found")
	}
	return apperrors.Wrap(err, "failed to load alert")
}

func plausible(l models.Location) bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}
