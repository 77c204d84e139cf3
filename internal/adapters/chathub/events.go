package chathub

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/snesh-101/meetup-rtc/internal/app"
	"github.com/snesh-101/meetup-rtc/internal/domain"
)

// wireEvent mirrors the client envelope: "join" and "send" inbound,
// "receive" outbound.
type wireEvent struct {
	Type         string `json:"type"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	UserID       string `json:"userId,omitempty"`
	TargetUserID string `json:"targetUserId,omitempty"`
	Text         string `json:"text,omitempty"`
}

func (ctl *Controller) handleEvent(ctx context.Context, sid app.SessionID, user *domain.User, c *wsChatConn, data []byte) {
	var ev wireEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Error().Err(err).Str("module", "chathub").Msg("bad json")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_payload"})
		return
	}

	switch ev.Type {
	case "join":
		ctl.handleJoin(sid, user, c, ev)
	case "send":
		ctl.handleSend(ctx, user, c, ev)
	case "ping":
		ctl.sendJSON(c, map[string]any{"type": "pong"})
	default:
		log.Warn().Str("module", "chathub").Str("type", ev.Type).Msg("unknown event")
	}
}

// handleJoin attaches the socket to the canonical room for the pair. The
// key is derived server-side from the authenticated identity, never trusted
// from the payload's userId field.
func (ctl *Controller) handleJoin(sid app.SessionID, user *domain.User, c *wsChatConn, ev wireEvent) {
	target := domain.UserID(ev.TargetUserID)
	if target == "" {
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "missing target"})
		return
	}
	key := domain.ChatRoomKey(user.ID, target)

	room := ctl.Hub.GetOrCreate(key)
	replaced := room.Attach(user.ID, c)

	c.mu.Lock()
	c.room = room
	c.peer = target
	c.mu.Unlock()
	ctl.Registry.SetRoom(sid, key)

	// A fresh screen for the same room supersedes the old socket.
	if replaced != nil && replaced != app.Subscriber(c) {
		replaced.Close()
	}

	log.Info().Str("module", "chathub").Str("room", string(key)).Str("user", string(user.ID)).Str("first_name", ev.FirstName).Msg("joined chat room")
}

// handleSend persists the message and fans a receive event out to the room,
// sender included. Persistence failure is logged, not fatal: live delivery
// favors availability.
func (ctl *Controller) handleSend(ctx context.Context, user *domain.User, c *wsChatConn, ev wireEvent) {
	if strings.TrimSpace(ev.Text) == "" {
		return
	}

	c.mu.RLock()
	room := c.room
	peer := c.peer
	c.mu.RUnlock()
	if room == nil {
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "not in a room"})
		return
	}

	msg := domain.ChatMessage{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Text:      ev.Text,
	}

	// The recipient comes from the joined room, never from the payload: a
	// socket attached to one conversation cannot persist under another.
	if ctl.Store != nil {
		if err := ctl.Store.Append(ctx, user.ID, peer, msg); err != nil {
			log.Warn().Err(err).Str("module", "chathub").Str("room", string(room.Key())).Msg("message persist failed")
		}
	}

	out, err := json.Marshal(wireEvent{
		Type:      "receive",
		FirstName: msg.FirstName,
		LastName:  msg.LastName,
		Text:      msg.Text,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "chathub").Msg("marshal receive")
		return
	}
	sent := room.Deliver(out)
	log.Debug().Str("module", "chathub").Str("room", string(room.Key())).Int("sent_to", sent).Msg("message delivered")
}

func (ctl *Controller) sendJSON(c *wsChatConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "chathub").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
