// Package websocket pushes per-topic events to browser clients. A topic is
// one alert id; a tracking page subscribes to it and receives every
// location and status change until the topic is closed.
package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"RapidSafe/pkg/logger"
)

// Message 定义WebSocket消息结构
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Topic     string      `json:"topic,omitempty"`
}

// Connection 表示一个WebSocket连接
type Connection struct {
	ID    string
	Topic string
	Conn  *websocket.Conn
	Send  chan []byte
	Hub   *Hub

	mu       sync.Mutex
	lastPing time.Time
	closed   bool // Send 已关闭，受 Hub.mu 保护
}

// Hub 管理所有WebSocket连接
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Connection
	count  int64
	config *Config
}

// NewHub 创建新的Hub实例
func NewHub(config *Config) *Hub {
	if config == nil {
		config = DefaultConfig()
	}
	return &Hub{topics: make(map[string]map[string]*Connection), config: config}
}

func (h *Hub) newConnection(topic string, ws *websocket.Conn) *Connection {
	return &Connection{
		ID:       uuid.NewString(),
		Topic:    topic,
		Conn:     ws,
		Send:     make(chan []byte, h.config.MessageBufferSize),
		Hub:      h,
		lastPing: time.Now(),
	}
}

// register 在连接数未达上限时加入 topic
func (h *Hub) register(c *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count >= h.config.MaxConnections {
		return false
	}
	conns := h.topics[c.Topic]
	if conns == nil {
		conns = make(map[string]*Connection)
		h.topics[c.Topic] = conns
	}
	conns[c.ID] = c
	h.count++
	return true
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.topics[c.Topic]; ok {
		if _, ok := conns[c.ID]; ok {
			delete(conns, c.ID)
			h.count--
		}
		if len(conns) == 0 {
			delete(h.topics, c.Topic)
		}
	}
	h.closeSendLocked(c)
}

func (h *Hub) closeSendLocked(c *Connection) {
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Publish 向 topic 的所有连接发送消息，发送缓冲满的连接丢弃本条
func (h *Hub) Publish(topic, name string, v interface{}) {
	data, err := json.Marshal(Message{Type: name, Data: v, Timestamp: time.Now().Unix(), Topic: topic})
	if err != nil {
		logger.Warn("websocket marshal failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.topics[topic] {
		if c.closed {
			continue
		}
		select {
		case c.Send <- data:
		default:
			logger.Warn("websocket send buffer full", zap.String("conn", c.ID), zap.String("topic", topic))
		}
	}
}

// Close 结束 topic：已排队的消息发送完后关闭连接
func (h *Hub) Close(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.topics[topic] {
		h.closeSendLocked(c)
		delete(h.topics[topic], id)
		h.count--
	}
	delete(h.topics, topic)
}

// Shutdown closes every connection.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	topics := make([]string, 0, len(h.topics))
	for t := range h.topics {
		topics = append(topics, t)
	}
	h.mu.RUnlock()
	for _, t := range topics {
		h.Close(t)
	}
}

// Subscribers 返回 topic 的连接数
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// GetConnectionCount 获取连接总数
func (h *Hub) GetConnectionCount() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
