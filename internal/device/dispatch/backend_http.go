package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"RapidSafe/internal/alerting"
	"RapidSafe/internal/models"
	apperrors "RapidSafe/pkg/errors"
)

// HTTPBackend talks to the server's JSON API with a bearer token. It also
// serves as the streamer's LocationPusher.
type HTTPBackend struct {
	BaseURL string // e.g. http://localhost:8080/api
	Token   string
	Client  *http.Client
}

func NewHTTPBackend(baseURL, token string, timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
	}
}

type errorEnvelope struct {
	Error struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func (b *HTTPBackend) CreateAlert(ctx context.Context, req *alerting.CreateAlertRequest) (*alerting.CreateAlertResponse, error) {
	out := new(alerting.CreateAlertResponse)
	if err := b.do(ctx, http.MethodPost, "/alerts", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *HTTPBackend) PushLocation(ctx context.Context, alertID string, upd alerting.LocationUpdate) (bool, error) {
	out := new(alerting.LocationUpdateResult)
	if err := b.do(ctx, http.MethodPut, "/alerts/"+url.PathEscape(alertID)+"/location", upd, out); err != nil {
		return false, err
	}
	return out.Applied, nil
}

func (b *HTTPBackend) EndAlert(ctx context.Context, alertID, status string) (*alerting.Snapshot, error) {
	action := "resolve"
	if status == models.AlertStatusCancelled {
		action = "cancel"
	}
	var out struct {
		Data alerting.Snapshot `json:"data"`
	}
	if err := b.do(ctx, http.MethodPost, "/alerts/"+url.PathEscape(alertID)+"/"+action, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, b.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.Token != "" {
		req.Header.Set("Authorization", "Bearer "+b.Token)
	}

	cli := b.Client
	if cli == nil {
		cli = http.DefaultClient
	}
	resp, err := cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var env errorEnvelope
		if json.NewDecoder(resp.Body).Decode(&env) == nil && env.Error.Status != "" {
			return apperrors.WithCode(apperrors.CodeOf(env.Error.Status), env.Error.Message)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
