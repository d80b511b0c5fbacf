package notification

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"RapidSafe/pkg/logger"
)

// SMSSender sends one text to one phone number. Implementations report the
// per-recipient outcome through the returned error only.
type SMSSender interface {
	Send(ctx context.Context, phone, body string) error
}

// SMSConfig 短信通道配置
type SMSConfig struct {
	Provider   string `env:"SMS_PROVIDER"` // twilio | log
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	From       string `env:"TWILIO_FROM"`
	BaseURL    string `env:"TWILIO_BASE_URL"` // 可选，覆盖 https://api.twilio.com
}

// NewSMSSender 根据配置选择短信通道
func NewSMSSender(cfg SMSConfig) (SMSSender, error) {
	switch strings.ToLower(cfg.Provider) {
	case "twilio":
		if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
			return nil, fmt.Errorf("twilio sms requires account sid, auth token and from number")
		}
		cli, err := NewTwilioSDKClient(cfg)
		if err != nil {
			return nil, err
		}
		return NewTwilioSMS(cfg, cli), nil
	case "", "log":
		return LogSMS{}, nil
	default:
		return nil, fmt.Errorf("unsupported sms provider: %s", cfg.Provider)
	}
}

// LogSMS writes messages to the log instead of sending them. Used in
// development and when no provider is configured.
type LogSMS struct{}

func (LogSMS) Send(_ context.Context, phone, body string) error {
	logger.Info("sms (log transport)", zap.String("to", phone), zap.String("body", body))
	return nil
}
