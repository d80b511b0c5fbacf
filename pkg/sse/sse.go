package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"RapidSafe/pkg/logger"
)

// Event is one frame pushed to tracking pages.
type Event struct {
	ID   uint64
	Name string
	Data string
}

func (e Event) frame() string {
	return fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", e.ID, e.Name, e.Data)
}

type client struct {
	id    string
	topic string
	ch    chan string
	done  chan struct{}
}

// Hub fans events out to subscribers grouped by topic (an alert id).
// The newest event of every topic is kept so late subscribers start from
// the current state instead of a blank page.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*client
	topics   map[string]map[string]bool // topic -> clientID set
	last     map[string]Event
	seq      uint64
	interval time.Duration
	retryMs  int
}

func NewHub(interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Hub{
		clients:  make(map[string]*client),
		topics:   make(map[string]map[string]bool),
		last:     make(map[string]Event),
		interval: interval,
		retryMs:  5000,
	}
}

func (h *Hub) subscribe(topic string) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &client{id: uuid.NewString(), topic: topic, ch: make(chan string, 64), done: make(chan struct{})}
	h.clients[c.id] = c
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[string]bool)
	}
	h.topics[topic][c.id] = true
	if ev, ok := h.last[topic]; ok {
		c.ch <- ev.frame()
	}
	return c
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	close(c.done)
	delete(h.topics[c.topic], id)
	if len(h.topics[c.topic]) == 0 {
		delete(h.topics, c.topic)
	}
	delete(h.clients, id)
}

// Publish sends name/v to every subscriber of topic. Slow subscribers drop
// frames rather than block the publisher.
func (h *Hub) Publish(topic, name string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Warn("sse: marshal event", zap.String("topic", topic), zap.Error(err))
		return
	}

	h.mu.Lock()
	h.seq++
	ev := Event{ID: h.seq, Name: name, Data: string(b)}
	h.last[topic] = ev
	frame := ev.frame()
	for id := range h.topics[topic] {
		if c := h.clients[id]; c != nil {
			select {
			case c.ch <- frame:
			default:
			}
		}
	}
	h.mu.Unlock()
}

// Close drops the retained event of topic and disconnects its subscribers.
func (h *Hub) Close(topic string) {
	h.mu.Lock()
	ids := make([]string, 0, len(h.topics[topic]))
	for id := range h.topics[topic] {
		ids = append(ids, id)
	}
	delete(h.last, topic)
	h.mu.Unlock()
	for _, id := range ids {
		h.unsubscribe(id)
	}
}

// Subscribers returns the number of open streams on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) Serve(c *gin.Context, topic string) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	fmt.Fprintf(c.Writer, "retry: %s\n\n", strconv.Itoa(h.retryMs))
	flusher.Flush()

	sub := h.subscribe(topic)
	defer h.unsubscribe(sub.id)

	ping := time.NewTicker(h.interval)
	defer ping.Stop()

	for {
		select {
		case <-sub.done:
			// Close 前已入队的帧仍要送达
			for {
				select {
				case msg := <-sub.ch:
					_, _ = c.Writer.Write([]byte(msg))
				default:
					flusher.Flush()
					return
				}
			}
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			fmt.Fprint(c.Writer, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case msg := <-sub.ch:
			_, _ = c.Writer.Write([]byte(msg))
			flusher.Flush()
		}
	}
}
