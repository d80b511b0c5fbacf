package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesOnlyTopic(t *testing.T) {
	h := NewHub(time.Minute)
	a := h.subscribe("a1")
	b := h.subscribe("b1")

	h.Publish("a1", "location", map[string]float64{"lat": 1, "lng": 2})

	select {
	case msg := <-a.ch:
		assert.Contains(t, msg, "event: location")
		assert.Contains(t, msg, `"lat":1`)
	case <-time.After(time.Second):
		t.Fatal("subscriber of a1 got nothing")
	}
	select {
	case msg := <-b.ch:
		t.Fatalf("unexpected frame on b1: %q", msg)
	default:
	}
}

func TestLateSubscriberGetsLastEvent(t *testing.T) {
	h := NewHub(time.Minute)
	h.Publish("a1", "location", map[string]int{"n": 1})
	h.Publish("a1", "location", map[string]int{"n": 2})

	c := h.subscribe("a1")
	msg := <-c.ch
	assert.Contains(t, msg, `"n":2`)
}

func TestCloseDisconnects(t *testing.T) {
	h := NewHub(time.Minute)
	c := h.subscribe("a1")
	require.Equal(t, 1, h.Subscribers("a1"))

	h.Close("a1")
	<-c.done
	assert.Equal(t, 0, h.Subscribers("a1"))

	late := h.subscribe("a1")
	select {
	case <-late.ch:
		t.Fatal("retained event should be dropped on Close")
	default:
	}
}

func TestServeStreamsFrames(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHub(time.Minute)
	r := gin.New()
	r.GET("/track/:id/events", func(c *gin.Context) { h.Serve(c, c.Param("id")) })
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/track/a1/events", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return h.Subscribers("a1") == 1 }, time.Second, 5*time.Millisecond)
	h.Publish("a1", "status", map[string]string{"status": "resolved"})

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "data: ") && strings.Contains(sc.Text(), "resolved") {
			return
		}
	}
	t.Fatal("stream ended before the status frame")
}
