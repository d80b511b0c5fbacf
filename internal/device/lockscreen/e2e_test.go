package lockscreen_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RapidSafe/internal/alerting"
	"RapidSafe/internal/auth"
	"RapidSafe/internal/device/dispatch"
	"RapidSafe/internal/device/geo"
	"RapidSafe/internal/device/history"
	"RapidSafe/internal/device/lockscreen"
	"RapidSafe/internal/device/settings"
	"RapidSafe/internal/device/streamer"
	handlers "RapidSafe/internal/handler"
	"RapidSafe/internal/models"
	"RapidSafe/pkg/cache"
	"RapidSafe/pkg/i18n"
	"RapidSafe/pkg/middleware"
	"RapidSafe/pkg/sse"
	"RapidSafe/pkg/util"
)

type smsLog struct {
	mu     sync.Mutex
	phones []string
}

func (s *smsLog) Send(_ context.Context, phone, _ string) error {
	s.mu.Lock()
	s.phones = append(s.phones, phone)
	s.mu.Unlock()
	return nil
}

type handTracker struct {
	mu sync.Mutex
	cb func(geo.Position)
}

func (h *handTracker) Watch(_ context.Context, _ geo.WatchOptions, cb func(geo.Position)) (func(), error) {
	h.mu.Lock()
	h.cb = cb
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		h.cb = nil
		h.mu.Unlock()
	}, nil
}

func (h *handTracker) fire(p geo.Position) {
	h.mu.Lock()
	cb := h.cb
	h.mu.Unlock()
	if cb != nil {
		cb(p)
	}
}

type fixedFix struct{ pos geo.Position }

func (f fixedFix) CurrentPosition(context.Context) (geo.Position, error) { return f.pos, nil }

func TestDuressPinEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	// backend
	serverDB, err := util.InitDatabase("sqlite", filepath.Join(t.TempDir(), "server.db"), &models.AlertRecord{})
	require.NoError(t, err)
	c, err := cache.NewCache(cache.Config{Type: "gocache"})
	require.NoError(t, err)
	tokens := auth.NewTokenStore(c)
	tokens.Seed(ctx, []string{"tok-u1:u1"})
	tr, err := i18n.NewI18nSupport("en", "")
	require.NoError(t, err)
	sms := &smsLog{}
	hub := sse.NewHub(time.Minute)
	svc := alerting.NewService(alerting.NewGormStore(serverDB),
		alerting.NewFanout(sms, time.Second),
		alerting.NewMessageBuilder(tr, "http://t.example"),
		alerting.WithPublisher(hub))
	engine := gin.New()
	handlers.NewHandlers(handlers.Dependencies{
		DB:             serverDB,
		Alerts:         svc,
		Hub:            hub,
		Tokens:         tokens,
		Idempotency:    c,
		IdempotencyTTL: time.Minute,
		TrackLimiter:   middleware.NewRateLimiter(middleware.RateLimiterConfig{Rate: "1000-M"}, nil),
	}).Register(engine)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	// device
	deviceDB, err := util.InitDatabase("sqlite", filepath.Join(t.TempDir(), "device.db"))
	require.NoError(t, err)
	store, err := settings.New(deviceDB)
	require.NoError(t, err)
	require.NoError(t, store.SetPins(ctx, "1234", "9999"))
	_, err = store.AddContact(ctx, "Alice", "+15550001")
	require.NoError(t, err)
	_, err = store.AddContact(ctx, "Bob", "+15550002")
	require.NoError(t, err)
	hist, err := history.New(deviceDB)
	require.NoError(t, err)

	backend := dispatch.NewHTTPBackend(srv.URL+"/api", "tok-u1", 5*time.Second)
	tracker := &handTracker{}
	st := streamer.New(&geo.StaticPermissions{Foreground: true, Background: true}, tracker, backend, streamer.Config{})
	defer st.Close()
	client := dispatch.NewClient(fixedFix{geo.Position{Lat: 40.7, Lng: -74.0}}, backend, st)
	screen := lockscreen.New("u1", store, client, hist)

	resp, err := screen.Submit(ctx, "9999")
	require.NoError(t, err)
	assert.Equal(t, lockscreen.Response{Route: lockscreen.RouteDecoy, Message: lockscreen.AccessDenied}, resp)

	var rec models.AlertRecord
	require.NoError(t, serverDB.Where("user_id = ?", "u1").First(&rec).Error)
	assert.Equal(t, models.TriggerDuressPin, rec.TriggerMethod)
	assert.Equal(t, models.AlertStatusActive, rec.Status)
	assert.ElementsMatch(t, []string{"+15550001", "+15550002"}, rec.EmergencyContacts)
	assert.Equal(t, models.Location{Lat: 40.7, Lng: -74.0}, rec.InitialLocation)

	sms.mu.Lock()
	assert.ElementsMatch(t, []string{"+15550001", "+15550002"}, sms.phones)
	sms.mu.Unlock()

	entries, err := hist.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.HistoryTypeDuress, entries[0].Type)
	assert.Equal(t, rec.AlertID, entries[0].AlertID)

	assert.Equal(t, streamer.Active, st.State())
	assert.Equal(t, rec.AlertID, st.AlertID())

	tracker.fire(geo.Position{Lat: 40.71, Lng: -74.01, Timestamp: time.Now()})

	var moved models.AlertRecord
	require.NoError(t, serverDB.Where("alert_id = ?", rec.AlertID).First(&moved).Error)
	assert.Equal(t, models.Location{Lat: 40.71, Lng: -74.01}, moved.CurrentLocation)
	require.NotNil(t, moved.LastUpdated)
	assert.Equal(t, models.Location{Lat: 40.7, Lng: -74.0}, moved.InitialLocation)

	require.NoError(t, st.Stop())
	assert.Equal(t, streamer.Idle, st.State())
}
