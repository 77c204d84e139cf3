package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/snesh-101/meetup-rtc/internal/domain"
)

type chatState int

const (
	chatUnopened chatState = iota
	chatOpen
	chatClosed
)

// SessionManager opens chat sessions. One live transport per session;
// a closed session is never resurrected, Open always builds a fresh one.
type SessionManager struct {
	dialer  ChatDialer
	history HistoryReader
}

func NewSessionManager(dialer ChatDialer, history HistoryReader) *SessionManager {
	return &SessionManager{dialer: dialer, history: history}
}

// Open resolves the room key for (local, target), loads history and attaches
// a transport. A history failure degrades to an empty local history; the
// session still opens and live messages flow.
func (m *SessionManager) Open(ctx context.Context, local *domain.User, target domain.UserID) (*ChatSession, error) {
	if local == nil || local.ID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	key := domain.ChatRoomKey(local.ID, target)

	s := &ChatSession{
		key:    key,
		local:  local,
		target: target,
		state:  chatUnopened,
	}

	history, err := m.history.Fetch(ctx, target)
	if err != nil {
		log.Warn().Err(err).Str("module", "core.chat").Str("room", string(key)).Msg("history fetch failed, starting empty")
	} else {
		s.messages = history
	}

	tr, err := m.dialer.Dial(ctx, key, local)
	if err != nil {
		return nil, fmt.Errorf("dial chat room %s: %w", key, err)
	}
	tr.OnReceive(s.receive)
	tr.OnDisconnect(s.disconnected)

	if err := tr.Announce(JoinAnnouncement{
		FirstName:    local.FirstName,
		UserID:       local.ID,
		TargetUserID: target,
	}); err != nil {
		tr.Close()
		return nil, fmt.Errorf("announce join: %w", err)
	}

	s.mu.Lock()
	s.transport = tr
	s.state = chatOpen
	s.mu.Unlock()

	log.Info().Str("module", "core.chat").Str("room", string(key)).Str("user", string(local.ID)).Msg("chat session open")
	return s, nil
}

// ChatSession owns one chat room's transport and its in-memory ordered
// message sequence. The sequence is append-only for the session lifetime.
type ChatSession struct {
	key    domain.RoomKey
	local  *domain.User
	target domain.UserID

	mu           sync.RWMutex
	state        chatState
	transport    ChatTransport
	messages     []domain.ChatMessage
	onMessage    func(domain.ChatMessage)
	onDisconnect func(error)
}

func (s *ChatSession) Key() domain.RoomKey { return s.key }

// Send emits one outbound message event, fire-and-forget: no server ack is
// awaited and no retry is made. Empty (or whitespace-only) text is rejected
// before touching the transport.
func (s *ChatSession) Send(text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyMessage
	}

	s.mu.RLock()
	tr := s.transport
	open := s.state == chatOpen
	s.mu.RUnlock()
	if !open || tr == nil {
		return domain.ErrSessionClosed
	}

	if err := tr.Send(OutboundMessage{
		FirstName:    s.local.FirstName,
		LastName:     s.local.LastName,
		UserID:       s.local.ID,
		TargetUserID: s.target,
		Text:         text,
	}); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	return nil
}

// OnMessage registers an observer invoked after each inbound message has been
// appended. At most one observer; a second call replaces the first.
func (s *ChatSession) OnMessage(fn func(domain.ChatMessage)) {
	s.mu.Lock()
	s.onMessage = fn
	s.mu.Unlock()
}

// OnDisconnect registers an observer for transport drops. The session does
// not reconnect; it only surfaces the signal.
func (s *ChatSession) OnDisconnect(fn func(error)) {
	s.mu.Lock()
	s.onDisconnect = fn
	s.mu.Unlock()
}

// Messages returns a snapshot copy of the ordered sequence.
func (s *ChatSession) Messages() []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Close disconnects the transport exactly once. Safe to call repeatedly,
// e.g. a teardown racing a room-key change. After Close the session is
// terminal: Send and inbound delivery are no-ops.
func (s *ChatSession) Close() {
	s.mu.Lock()
	if s.state == chatClosed {
		s.mu.Unlock()
		return
	}
	s.state = chatClosed
	tr := s.transport
	s.transport = nil
	s.mu.Unlock()

	if tr != nil {
		tr.Close()
	}
	log.Info().Str("module", "core.chat").Str("room", string(s.key)).Msg("chat session closed")
}

// receive appends in transport delivery order. No reordering, no dedup:
// if the transport redelivers, duplicates appear.
func (s *ChatSession) receive(msg domain.ChatMessage) {
	s.mu.Lock()
	if s.state == chatClosed {
		s.mu.Unlock()
		return
	}
	s.messages = append(s.messages, msg)
	fn := s.onMessage
	s.mu.Unlock()

	if fn != nil {
		fn(msg)
	}
}

func (s *ChatSession) disconnected(err error) {
	s.mu.RLock()
	fn := s.onDisconnect
	closed := s.state == chatClosed
	s.mu.RUnlock()
	if closed {
		return
	}
	log.Warn().Err(err).Str("module", "core.chat").Str("room", string(s.key)).Msg("chat transport dropped")
	if fn != nil {
		fn(err)
	}
}
