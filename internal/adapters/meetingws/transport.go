// Package meetingws is the provider signaling client: it joins a meeting
// room over websocket, surfaces the provider's roster and media events, and
// carries local media-state commands.
package meetingws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/snesh-101/meetup-rtc/internal/core"
	"github.com/snesh-101/meetup-rtc/internal/domain"
)

const (
	writeWait     = 5 * time.Second
	sendQueueSize = 32
)

// signalEvent is the provider's event envelope.
type signalEvent struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participantId,omitempty"`
	DisplayName   string `json:"displayName,omitempty"`
	MicOn         bool   `json:"micOn"`
	WebcamOn      bool   `json:"webcamOn"`
	Token         string `json:"token,omitempty"`
	RoomID        string `json:"roomId,omitempty"`
}

// Transport implements core.MeetingTransport over the provider's ws
// signaling endpoint. One Transport serves one meeting session.
type Transport struct {
	endpoint string

	mu     sync.RWMutex
	conn   *websocket.Conn
	send   chan core.Frame
	closed bool
	local  domain.Participant

	onJoined       func(domain.Participant)
	onLeft         func(domain.ParticipantID)
	onMediaChanged func(id domain.ParticipantID, micOn, webcamOn bool)
	onDisconnected func(error)
}

func New(endpoint string) *Transport {
	return &Transport{endpoint: endpoint}
}

func (t *Transport) OnParticipantJoined(fn func(domain.Participant)) {
	t.mu.Lock()
	t.onJoined = fn
	t.mu.Unlock()
}

func (t *Transport) OnParticipantLeft(fn func(domain.ParticipantID)) {
	t.mu.Lock()
	t.onLeft = fn
	t.mu.Unlock()
}

func (t *Transport) OnMediaChanged(fn func(id domain.ParticipantID, micOn, webcamOn bool)) {
	t.mu.Lock()
	t.onMediaChanged = fn
	t.mu.Unlock()
}

func (t *Transport) OnDisconnected(fn func(error)) {
	t.mu.Lock()
	t.onDisconnected = fn
	t.mu.Unlock()
}

// Join dials the signaling endpoint and announces the local participant.
func (t *Transport) Join(ctx context.Context, token string, room domain.RoomID, local domain.Participant) error {
	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		return errors.New("transport already joined")
	}
	t.mu.Unlock()

	u := fmt.Sprintf("%s?roomId=%s&token=%s", t.endpoint, url.QueryEscape(string(room)), url.QueryEscape(token))
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("%w: dial signaling: %w", domain.ErrTransport, err)
	}

	send := make(chan core.Frame, sendQueueSize)
	t.mu.Lock()
	t.conn = ws
	t.send = send
	t.closed = false
	t.local = local
	t.mu.Unlock()

	// The pumps take their own conn reference: teardown nils t.conn, and a
	// pump must never observe that.
	go t.writePump(ws, send)
	go t.readPump(ws)

	if err := t.sendEvent(signalEvent{
		Type:          "join",
		ParticipantID: string(local.ID),
		DisplayName:   local.DisplayName,
		MicOn:         local.MicOn,
		WebcamOn:      local.WebcamOn,
	}); err != nil {
		t.teardown()
		return fmt.Errorf("%w: announce join: %w", domain.ErrTransport, err)
	}

	log.Info().Str("module", "meetingws").Str("room", string(room)).Msg("signaling connected")
	return nil
}

// Leave tells the provider we are gone and releases the connection. The
// caller's local state is already released by the time this runs; an error
// here is informational.
func (t *Transport) Leave() error {
	err := t.sendEvent(signalEvent{Type: "leave"})
	t.teardown()
	return err
}

func (t *Transport) SetMic(ctx context.Context, on bool) error {
	return t.setMedia(ctx, on, t.localWebcam())
}

func (t *Transport) SetWebcam(ctx context.Context, on bool) error {
	return t.setMedia(ctx, t.localMic(), on)
}

func (t *Transport) setMedia(_ context.Context, micOn, webcamOn bool) error {
	t.mu.RLock()
	id := t.local.ID
	t.mu.RUnlock()

	if err := t.sendEvent(signalEvent{
		Type:          "media-state-changed",
		ParticipantID: string(id),
		MicOn:         micOn,
		WebcamOn:      webcamOn,
	}); err != nil {
		return err
	}

	// Cache only what actually went out: a rejected command must not bleed
	// into the composite state of the next one.
	t.mu.Lock()
	t.local.MicOn = micOn
	t.local.WebcamOn = webcamOn
	t.mu.Unlock()
	return nil
}

func (t *Transport) localMic() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.local.MicOn
}

func (t *Transport) localWebcam() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.local.WebcamOn
}

func (t *Transport) sendEvent(ev signalEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed || t.conn == nil {
		return domain.ErrSessionClosed
	}
	select {
	case t.send <- b:
		return nil
	default:
		return errors.New("backpressure")
	}
}

func (t *Transport) teardown() {
	t.mu.Lock()
	if t.closed || t.conn == nil {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.send)
	_ = t.conn.Close()
	t.conn = nil
	t.mu.Unlock()
}

func (t *Transport) writePump(conn *websocket.Conn, send chan core.Frame) {
	for data := range send {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Error().Err(err).Str("module", "meetingws").Msg("writePump set deadline")
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error().Err(err).Str("module", "meetingws").Msg("writePump write error")
			return
		}
	}
}

func (t *Transport) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.mu.RLock()
			closed := t.closed
			fn := t.onDisconnected
			t.mu.RUnlock()
			if !closed && fn != nil {
				fn(err)
			}
			return
		}
		t.dispatch(data)
	}
}

func (t *Transport) dispatch(data []byte) {
	var ev signalEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Error().Err(err).Str("module", "meetingws").Msg("bad json")
		return
	}

	t.mu.RLock()
	joined, left, media := t.onJoined, t.onLeft, t.onMediaChanged
	t.mu.RUnlock()

	switch ev.Type {
	case "participant-joined":
		if joined != nil {
			joined(domain.Participant{
				ID:          domain.ParticipantID(ev.ParticipantID),
				DisplayName: ev.DisplayName,
				MicOn:       ev.MicOn,
				WebcamOn:    ev.WebcamOn,
			})
		}
	case "participant-left":
		if left != nil {
			left(domain.ParticipantID(ev.ParticipantID))
		}
	case "media-state-changed":
		if media != nil {
			media(domain.ParticipantID(ev.ParticipantID), ev.MicOn, ev.WebcamOn)
		}
	default:
		log.Warn().Str("module", "meetingws").Str("type", ev.Type).Msg("unknown signal")
	}
}
