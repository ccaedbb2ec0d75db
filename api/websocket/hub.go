package websocket

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/openalpha/crowdchain/api/types"
	"github.com/openalpha/crowdchain/metrics"
)

// Hub maintains the set of active clients and fans chain events out to
// channel subscribers. Channels:
//
//	pools              every pool status transition
//	pool:<id>          contributions and status changes for one pool
type Hub struct {
	clients  map[*Client]bool
	channels map[string]map[*Client]bool

	// Register/unregister requests
	register   chan *Client
	unregister chan *Client

	// Channel subscription requests
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest

	mu sync.RWMutex

	config    *HubConfig
	collector *metrics.Collector
}

// HubConfig contains hub configuration
type HubConfig struct {
	MaxSubscriptions int
	MessageRateLimit int // Messages per second per client
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		MaxSubscriptions: 50,
		MessageRateLimit: 20,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
	Action  string // "subscribe" or "unsubscribe"
}

// NewHub creates a new Hub
func NewHub(config *HubConfig) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:     make(map[*Client]bool),
		channels:    make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *SubscriptionRequest, 256),
		unsubscribe: make(chan *SubscriptionRequest, 256),
		config:      config,
		collector:   metrics.GetCollector(),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)
		}
	}
}

// registerClient adds a new client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.collector.RecordWSConnection(1)
}

// unregisterClient removes a client
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)

		for channel, clients := range h.channels {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.channels, channel)
			}
		}

		close(client.send)
		h.collector.RecordWSConnection(-1)
	}
}

// handleSubscription handles a subscription request
func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]bool)
	}
	h.channels[channel][client] = true
	h.collector.WSSubscriptions.WithLabelValues(channel).Set(float64(len(h.channels[channel])))

	confirmation := &WSMessage{
		Type:    "subscribed",
		Channel: channel,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// handleUnsubscription handles an unsubscription request
func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if clients, ok := h.channels[channel]; ok {
		delete(clients, client)
		h.collector.WSSubscriptions.WithLabelValues(channel).Set(float64(len(clients)))
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}

	confirmation := &WSMessage{
		Type:    "unsubscribed",
		Channel: channel,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// BroadcastToChannel sends a message to all clients subscribed to a channel
func (h *Hub) BroadcastToChannel(channel string, message interface{}) {
	h.mu.RLock()
	clients, ok := h.channels[channel]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Copy to avoid holding the lock during sends
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	timer := metrics.NewTimer()
	for _, client := range clientList {
		select {
		case client.send <- data:
		default:
			// Client buffer is full, skip
		}
	}
	h.collector.RecordWSMessage(channel, timer.ElapsedMs())
}

// ============ Domain broadcasts ============

// BroadcastContribution fans a contribution out to the pool's channel
func (h *Hub) BroadcastContribution(event *types.ContributionEvent) {
	channel := "pool:" + strconv.FormatUint(event.PoolID, 10)
	h.BroadcastToChannel(channel, &WSMessage{
		Type:    "contribution",
		Channel: channel,
		Data:    event,
	})
}

// BroadcastPoolStatus fans a status transition out to the pool's channel and
// the global pools channel
func (h *Hub) BroadcastPoolStatus(event *types.PoolStatusEvent) {
	channel := "pool:" + strconv.FormatUint(event.PoolID, 10)
	msg := &WSMessage{
		Type:    "pool_status",
		Channel: channel,
		Data:    event,
	}
	h.BroadcastToChannel(channel, msg)
	h.BroadcastToChannel("pools", &WSMessage{
		Type:    "pool_status",
		Channel: "pools",
		Data:    event,
	})
}

// BroadcastPoolSummary fans an updated pool summary out to the pools channel
func (h *Hub) BroadcastPoolSummary(summary *types.PoolSummary) {
	h.BroadcastToChannel("pools", &WSMessage{
		Type:    "pool",
		Channel: "pools",
		Data:    summary,
	})
}

// ============ Message Types ============

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel"`
	Data    interface{} `json:"data,omitempty"`
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.channels[channel]; ok {
		return len(clients)
	}
	return 0
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	client := NewClient(h, conn, clientID, getClientIPFromRequest(r))

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// Helper function to get client IP
func getClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
