package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/caching"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 8
	refreshKey     = "incident-feed"
)

// Client is one connected websocket subscriber.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{Conn: conn, Send: make(chan []byte, sendBufferSize)}
}

// IncidentPayload is the message pushed to subscribers.
type IncidentPayload struct {
	Type        string                   `json:"type"`
	Incidents   []incidents.IncidentInfo `json:"incidents"`
	GeneratedAt time.Time                `json:"generatedAt"`
}

// IncidentBroadcaster fans the banner incident list out to every connected
// client, on register and then every interval.
type IncidentBroadcaster struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	source     IncidentSource
	interval   time.Duration
	lock       *caching.RefreshLock
	logger     *logging.ChanneledLogger
	done       chan struct{}

	mu   sync.RWMutex
	last []byte
}

func NewIncidentBroadcaster(source IncidentSource, interval time.Duration, logger *logging.ChanneledLogger) *IncidentBroadcaster {
	return &IncidentBroadcaster{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		source:     source,
		interval:   interval,
		lock:       caching.NewRefreshLock(),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run is the broadcaster main loop. It returns when ctx is cancelled, closing
// every client's send channel.
func (b *IncidentBroadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	defer close(b.done)

	b.logger.Realtime().Info("Incident broadcaster started", "interval", b.interval)

	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for client := range b.clients {
				close(client.Send)
				delete(b.clients, client)
			}
			b.mu.Unlock()
			b.logger.Realtime().Info("Incident broadcaster stopped")
			return

		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			last := b.last
			count := len(b.clients)
			b.mu.Unlock()

			b.logger.Realtime().Debug("Incident feed client registered", "clients", count)
			if last != nil {
				select {
				case client.Send <- last:
				default:
				}
			} else {
				go b.refresh(ctx)
			}

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			count := len(b.clients)
			b.mu.Unlock()
			b.logger.Realtime().Debug("Incident feed client unregistered", "clients", count)

		case <-ticker.C:
			go b.refresh(ctx)
		}
	}
}

// Register reports false once the broadcaster has stopped.
func (b *IncidentBroadcaster) Register(client *Client) bool {
	select {
	case b.register <- client:
		return true
	case <-b.done:
		return false
	}
}

func (b *IncidentBroadcaster) Unregister(client *Client) {
	select {
	case b.unregister <- client:
	case <-b.done:
	}
}

func (b *IncidentBroadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// refresh reloads the incident list and pushes it to every client. Concurrent
// refreshes collapse into one.
func (b *IncidentBroadcaster) refresh(ctx context.Context) {
	if !b.lock.TryLock(refreshKey) {
		return
	}
	defer b.lock.Unlock(refreshKey)

	list, err := b.source.ListBannerIncidents(ctx)
	if err != nil {
		b.logger.Realtime().Warn("Incident feed refresh failed", "error", err.Error())
		return
	}
	if list == nil {
		list = []incidents.IncidentInfo{}
	}

	message, err := json.Marshal(IncidentPayload{Type: "incidents", Incidents: list, GeneratedAt: time.Now().UTC()})
	if err != nil {
		b.logger.Realtime().Error("Error marshaling incident payload", "error", err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = message
	for client := range b.clients {
		select {
		case client.Send <- message:
		default:
			b.logger.Realtime().Warn("Incident feed client buffer full, message dropped")
		}
	}
}

// Serve registers conn and pumps messages until the peer goes away.
func (b *IncidentBroadcaster) Serve(conn *websocket.Conn) {
	client := NewClient(conn)
	if !b.Register(client) {
		conn.Close()
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		writePump(client)
	}()

	readPump(client)
	b.Unregister(client)
	<-done
}

// readPump discards inbound frames and returns once the connection fails.
func readPump(c *Client) {
	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
