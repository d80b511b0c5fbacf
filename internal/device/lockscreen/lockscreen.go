// Package lockscreen is the caller of the PIN gate. Normal and duress
// unlocks look the same to whoever is watching the screen.
package lockscreen

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"RapidSafe/internal/device/dispatch"
	"RapidSafe/internal/device/pingate"
	"RapidSafe/internal/device/settings"
	"RapidSafe/internal/models"
	"RapidSafe/pkg/logger"
)

type Route string

const (
	RouteHome   Route = "home"
	RouteDecoy  Route = "decoy"
	RouteLocked Route = "locked"
)

// AccessDenied is shown for both duress and invalid codes.
const AccessDenied = "Access Denied"

type Response struct {
	Route   Route  `json:"route"`
	Message string `json:"message"`
}

type Credentials interface {
	GetCredentials(ctx context.Context) (models.Credentials, error)
	ListContacts(ctx context.Context) ([]models.Contact, error)
}

type Dispatcher interface {
	InitiateSOS(ctx context.Context, userID, triggerMethod string, contacts []models.Contact) dispatch.AlertResult
}

type History interface {
	Append(ctx context.Context, e models.HistoryEntry) (*models.HistoryEntry, error)
}

type Screen struct {
	userID   string
	creds    Credentials
	dispatch Dispatcher
	history  History

	mu    sync.Mutex
	input []byte
}

func New(userID string, creds Credentials, d Dispatcher, h History) *Screen {
	return &Screen{userID: userID, creds: creds, dispatch: d, history: h}
}

// Press appends one digit to the input buffer. Extra digits are dropped.
func (s *Screen) Press(d byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < '0' || d > '9' || len(s.input) >= pingate.PinLength {
		return
	}
	s.input = append(s.input, d)
}

// Input returns the buffered digits.
func (s *Screen) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.input)
}

// Submit evaluates code, or the buffered digits when code is empty. The
// buffer is cleared before evaluation whatever the outcome.
func (s *Screen) Submit(ctx context.Context, code string) (Response, error) {
	s.mu.Lock()
	if code == "" {
		code = string(s.input)
	}
	s.input = s.input[:0]
	s.mu.Unlock()

	if !pingate.ValidFormat(code) {
		return Response{}, settings.ErrMalformedPin
	}
	creds, err := s.creds.GetCredentials(ctx)
	if err != nil {
		return Response{}, err
	}

	switch pingate.Evaluate(code, creds) {
	case pingate.Normal:
		return Response{Route: RouteHome}, nil
	case pingate.Duress:
		s.duress(ctx)
		return Response{Route: RouteDecoy, Message: AccessDenied}, nil
	default:
		return Response{Route: RouteLocked, Message: AccessDenied}, nil
	}
}

// duress 触发静默报警，失败只记录日志
func (s *Screen) duress(ctx context.Context) {
	contacts, err := s.creds.ListContacts(ctx)
	if err != nil {
		logger.Error("load contacts failed", zap.Error(err))
	}
	res := s.dispatch.InitiateSOS(ctx, s.userID, models.TriggerDuressPin, contacts)
	if !res.Success {
		logger.Error("duress dispatch failed", zap.String("outcome", string(res.Outcome)), zap.String("message", res.Message))
		return
	}
	if _, err := s.history.Append(ctx, Entry(models.TriggerDuressPin, res, contacts)); err != nil {
		logger.Warn("history append failed", zap.String("alert_id", res.AlertID), zap.Error(err))
	}
}

// Entry builds the history record of a successful dispatch.
func Entry(trigger string, res dispatch.AlertResult, contacts []models.Contact) models.HistoryEntry {
	typ := models.HistoryTypeSOS
	if trigger == models.TriggerDuressPin {
		typ = models.HistoryTypeDuress
	}
	names := make([]string, 0, len(contacts))
	for _, c := range contacts {
		if c.Name != "" {
			names = append(names, c.Name)
		} else {
			names = append(names, c.PhoneNumber)
		}
	}
	return models.HistoryEntry{
		Type:        typ,
		Description: fmt.Sprintf("%s sent to %s", typ, strings.Join(names, ", ")),
		Recipients:  names,
		Status:      models.HistoryStatusSent,
		AlertID:     res.AlertID,
	}
}
