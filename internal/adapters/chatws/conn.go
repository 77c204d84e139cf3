// Package chatws dials the relay's chat websocket and exposes it as a
// core.ChatTransport.
package chatws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/snesh-101/meetup-rtc/internal/core"
	"github.com/snesh-101/meetup-rtc/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

const (
	writeWait     = 5 * time.Second
	sendQueueSize = 32
)

// wireEvent is the room-scoped chat envelope. Type is one of
// "join", "send", "receive".
type wireEvent struct {
	Type         string `json:"type"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	UserID       string `json:"userId,omitempty"`
	TargetUserID string `json:"targetUserId,omitempty"`
	Text         string `json:"text,omitempty"`
}

// Dialer opens one transport per room key against the relay endpoint.
type Dialer struct {
	endpoint string
	header   http.Header
}

// NewDialer takes the ws endpoint (e.g. ws://host/api/ws/chat) and headers
// carrying the session credentials.
func NewDialer(endpoint string, header http.Header) *Dialer {
	return &Dialer{endpoint: endpoint, header: header}
}

func (d *Dialer) Dial(ctx context.Context, key domain.RoomKey, local *domain.User) (core.ChatTransport, error) {
	u := fmt.Sprintf("%s?room=%s", d.endpoint, url.QueryEscape(string(key)))
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, u, d.header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, domain.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("%w: dial %s: %w", domain.ErrTransport, d.endpoint, err)
	}

	c := &Conn{
		conn: ws,
		send: make(chan core.Frame, sendQueueSize),
	}
	go c.writePump()
	go c.readPump()

	log.Info().Str("module", "chatws").Str("room", string(key)).Msg("chat transport connected")
	return c, nil
}

// Conn is one live chat connection. Close is safe to call more than once.
type Conn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu           sync.RWMutex
	closed       bool
	onReceive    func(domain.ChatMessage)
	onDisconnect func(error)
}

func (c *Conn) Announce(j core.JoinAnnouncement) error {
	return c.sendEvent(wireEvent{
		Type:         "join",
		FirstName:    j.FirstName,
		UserID:       string(j.UserID),
		TargetUserID: string(j.TargetUserID),
	})
}

func (c *Conn) Send(m core.OutboundMessage) error {
	return c.sendEvent(wireEvent{
		Type:         "send",
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		UserID:       string(m.UserID),
		TargetUserID: string(m.TargetUserID),
		Text:         m.Text,
	})
}

func (c *Conn) OnReceive(fn func(domain.ChatMessage)) {
	c.mu.Lock()
	c.onReceive = fn
	c.mu.Unlock()
}

func (c *Conn) OnDisconnect(fn func(error)) {
	c.mu.Lock()
	c.onDisconnect = fn
	c.mu.Unlock()
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (c *Conn) sendEvent(ev wireEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.trySend(b)
}

func (c *Conn) trySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return domain.ErrSessionClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) writePump() {
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Error().Err(err).Str("module", "chatws").Msg("writePump set deadline")
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error().Err(err).Str("module", "chatws").Msg("writePump write error")
			return
		}
	}
}

func (c *Conn) readPump() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.RLock()
			closed := c.closed
			fn := c.onDisconnect
			c.mu.RUnlock()
			if !closed {
				log.Warn().Err(err).Str("module", "chatws").Msg("readPump read error")
				if fn != nil {
					fn(err)
				}
			}
			return
		}
		c.dispatch(data)
	}
}

func (c *Conn) dispatch(data []byte) {
	var ev wireEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Error().Err(err).Str("module", "chatws").Msg("bad json")
		return
	}
	switch ev.Type {
	case "receive":
		c.mu.RLock()
		fn := c.onReceive
		c.mu.RUnlock()
		if fn != nil {
			fn(domain.ChatMessage{FirstName: ev.FirstName, LastName: ev.LastName, Text: ev.Text})
		}
	default:
		log.Warn().Str("module", "chatws").Str("type", ev.Type).Msg("unknown event")
	}
}
