// Package chathub terminates chat websockets on the relay and fans
// messages out within each room.
package chathub

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/snesh-101/meetup-rtc/internal/app"
	"github.com/snesh-101/meetup-rtc/internal/core"
	"github.com/snesh-101/meetup-rtc/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

const writeWait = 5 * time.Second

type Controller struct {
	Hub      *app.Hub
	Registry *app.Registry
	Store    core.HistoryWriter

	ReadLimit int64
}

func NewController(hub *app.Hub, reg *app.Registry, store core.HistoryWriter, readLimit int64) *Controller {
	return &Controller{Hub: hub, Registry: reg, Store: store, ReadLimit: readLimit}
}

// wsChatConn is the relay side of one chat socket.
type wsChatConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool

	// set once the join event attached us to a room
	room *app.ChatRoom
	peer domain.UserID
	uid  domain.UserID
}

func (c *wsChatConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsChatConn) Close() {
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

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleChat upgrades the request and runs the socket until teardown. The
// caller's identity comes from the session middleware.
func (ctl *Controller) HandleChat(ctx context.Context, c *gin.Context) {
	userVal, ok := c.Get("user")
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	user := userVal.(*domain.User)
	sid := app.SessionID(uuid.NewString())

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "chathub").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &wsChatConn{
		conn: ws,
		send: make(chan core.Frame, 32),
		uid:  user.ID,
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Registry.Bind(sid, user, conn, cancel)
	log.Info().Str("module", "chathub").Str("sid", string(sid)).Str("user", string(user.ID)).Msg("new chat socket")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, user, conn)
}

func (ctl *Controller) writePump(ctx context.Context, c *wsChatConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "chathub").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "chathub").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sid app.SessionID, user *domain.User, c *wsChatConn) {
	defer func() {
		log.Info().Str("module", "chathub").Str("sid", string(sid)).Msg("readPump closing")
		ctl.detach(c)
		ctl.Registry.Unbind(sid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "chathub").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleEvent(ctx, sid, user, c, data)
		}
	}
}

func (ctl *Controller) detach(c *wsChatConn) {
	c.mu.Lock()
	room := c.room
	c.room = nil
	c.mu.Unlock()
	if room == nil {
		return
	}
	room.Detach(c.uid, c)
	ctl.Hub.Prune(room.Key())
}
