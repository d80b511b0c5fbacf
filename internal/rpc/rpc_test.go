package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"RapidSafe/internal/alerting"
	"RapidSafe/internal/models"
	"RapidSafe/pkg/grpcx"
	"RapidSafe/pkg/i18n"
)

type okSMS struct{}

func (okSMS) Send(context.Context, string, string) error { return nil }

type tokenMap map[string]string

func (m tokenMap) Verify(_ context.Context, tok string) (string, bool) {
	uid, ok := m[tok]
	return uid, ok
}

func startServer(t *testing.T) *bufconn.Listener {
	t.Helper()
	tr, err := i18n.NewI18nSupport("en", "")
	require.NoError(t, err)
	svc := alerting.NewService(alerting.NewMemoryStore(), alerting.NewFanout(okSMS{}, time.Second), alerting.NewMessageBuilder(tr, "http://t"))

	lis := bufconn.Listen(1 << 20)
	gs := grpcx.NewServer(grpcx.ServerConfig{UnaryTimeout: 5 * time.Second})
	Register(gs, NewServer(svc, tokenMap{"tok-u1": "u1"}))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)
	return lis
}

func dial(t *testing.T, lis *bufconn.Listener, token string) *Client {
	t.Helper()
	cc, err := grpcx.Dial(grpcx.ClientConfig{Target: "passthrough:///bufnet", WithInsecure: true, BearerToken: token},
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })
	return NewClient(cc)
}

func req(uid string) *alerting.CreateAlertRequest {
	return &alerting.CreateAlertRequest{
		UserID:        uid,
		TriggerMethod: models.TriggerNormalSOS,
		Contacts:      []alerting.Contact{{ID: "c1", Name: "A", PhoneNumber: "+1"}},
	}
}

func TestCreateAndUpdateOverGRPC(t *testing.T) {
	lis := startServer(t)
	cli := dial(t, lis, "tok-u1")
	ctx := context.Background()

	resp, err := cli.CreateAlert(ctx, req("u1"))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.AlertID)

	res, err := cli.UpdateLocation(ctx, &UpdateLocationRequest{
		AlertID: resp.AlertID,
		Update:  alerting.LocationUpdate{CurrentLocation: models.Location{Lat: 1, Lng: 2}, LastUpdated: time.Now()},
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)
}

func TestErrorCodesOverGRPC(t *testing.T) {
	lis := startServer(t)
	ctx := context.Background()

	_, err := dial(t, lis, "").CreateAlert(ctx, req("u1"))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	authed := dial(t, lis, "tok-u1")
	_, err = authed.CreateAlert(ctx, req("u2"))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	empty := req("u1")
	empty.Contacts = nil
	_, err = authed.CreateAlert(ctx, empty)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = authed.UpdateLocation(ctx, &UpdateLocationRequest{AlertID: "nope", Update: alerting.LocationUpdate{LastUpdated: time.Now()}})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestResolveAndCancelOverGRPC(t *testing.T) {
	lis := startServer(t)
	ctx := context.Background()
	cli := dial(t, lis, "tok-u1")

	resp, err := cli.CreateAlert(ctx, req("u1"))
	require.NoError(t, err)

	snap, err := cli.ResolveAlert(ctx, &AlertRef{AlertID: resp.AlertID})
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, snap.Status)

	_, err = cli.CancelAlert(ctx, &AlertRef{AlertID: resp.AlertID})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = dial(t, lis, "").ResolveAlert(ctx, &AlertRef{AlertID: resp.AlertID})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
