package alerting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"RapidSafe/pkg/logger"
	"RapidSafe/pkg/metrics"
	"RapidSafe/pkg/notification"
)

// Fanout sends one message per contact concurrently and waits for all of
// them. A failing recipient never affects the others.
type Fanout struct {
	sms     notification.SMSSender
	timeout time.Duration
}

func NewFanout(sms notification.SMSSender, perSendTimeout time.Duration) *Fanout {
	if perSendTimeout <= 0 {
		perSendTimeout = 15 * time.Second
	}
	return &Fanout{sms: sms, timeout: perSendTimeout}
}

// Notify returns one Delivery per contact, in contact order.
func (f *Fanout) Notify(ctx context.Context, alertID, trigger string, contacts []Contact, body string) []Delivery {
	start := time.Now()
	out := make([]Delivery, len(contacts))

	var wg sync.WaitGroup
	for i, c := range contacts {
		wg.Add(1)
		go func(i int, c Contact) {
			defer wg.Done()
			out[i] = Delivery{ContactID: c.ID, Phone: c.PhoneNumber, Err: f.send(ctx, c.PhoneNumber, body)}
		}(i, c)
	}
	wg.Wait()

	failed := 0
	for _, d := range out {
		metrics.NotificationResult(trigger, d.Err == nil)
		if d.Err != nil {
			failed++
			logger.Error("failed to send SMS",
				zap.String("alert_id", alertID),
				zap.String("phone", d.Phone),
				zap.Error(d.Err))
		}
	}
	metrics.ObserveFanout(time.Since(start))
	logger.Info("notification fanout finished",
		zap.String("alert_id", alertID),
		zap.Int("recipients", len(contacts)),
		zap.Int("failed", failed))
	return out
}

func (f *Fanout) send(ctx context.Context, phone, body string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sms sender panicked: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return f.sms.Send(ctx, phone, body)
}
