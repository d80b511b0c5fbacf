package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioClient 便于替换/注入的发送接口（适配真实 SDK）
type TwilioClient interface {
	CreateMessage(ctx context.Context, from, to, body string) error
}

type TwilioSMS struct {
	cfg SMSConfig
	cli TwilioClient
}

func NewTwilioSMS(cfg SMSConfig, cli TwilioClient) *TwilioSMS {
	return &TwilioSMS{cfg: cfg, cli: cli}
}

func (t *TwilioSMS) Send(ctx context.Context, phone, body string) error {
	if t.cli == nil {
		return fmt.Errorf("TwilioClient not configured")
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("empty recipient")
	}
	return t.cli.CreateMessage(ctx, t.cfg.From, phone, body)
}

// twilioSDKClient sends through the Messages resource of twilio-go.
type twilioSDKClient struct {
	rest *twilio.RestClient
}

// NewTwilioSDKClient builds the SDK client. BaseURL, when set, replaces
// scheme and host of every API request (mock servers, egress proxies).
func NewTwilioSDKClient(cfg SMSConfig) (TwilioClient, error) {
	hc := &http.Client{Timeout: 20 * time.Second}
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid twilio base url %q", cfg.BaseURL)
		}
		hc.Transport = rebaseTransport{base: u, next: http.DefaultTransport}
	}
	c := &twclient.Client{
		Credentials: twclient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  hc,
	}
	c.SetAccountSid(cfg.AccountSID)
	return &twilioSDKClient{rest: twilio.NewRestClientWithParams(twilio.ClientParams{Client: c})}, nil
}

func (c *twilioSDKClient) CreateMessage(ctx context.Context, from, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(from)
	params.SetTo(to)
	params.SetBody(body)

	// SDK 调用不接受 context，超时由 select 兜底
	errc := make(chan error, 1)
	go func() {
		_, err := c.rest.Api.CreateMessage(params)
		errc <- err
	}()
	select {
	case err := <-errc:
		var te *twclient.TwilioRestError
		if errors.As(err, &te) {
			return fmt.Errorf("twilio: %d %s (code %d)", te.Status, te.Message, te.Code)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type rebaseTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t rebaseTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = t.base.Scheme
	r.URL.Host = t.base.Host
	r.Host = t.base.Host
	return t.next.RoundTrip(r)
}
