package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snesh-101/meetup-rtc/internal/domain"
)

var alice = &domain.User{ID: "u1", FirstName: "Alice", LastName: "Anders"}

func TestOpenRequiresIdentity(t *testing.T) {
	m := NewSessionManager(&fakeDialer{}, &fakeHistory{})

	_, err := m.Open(context.Background(), nil, "u2")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	_, err = m.Open(context.Background(), &domain.User{}, "u2")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestOpenLoadsHistoryAndAnnounces(t *testing.T) {
	dialer := &fakeDialer{}
	hist := &fakeHistory{msgs: []domain.ChatMessage{
		{FirstName: "Bob", LastName: "Baker", Text: "earlier"},
	}}
	m := NewSessionManager(dialer, hist)

	s, err := m.Open(context.Background(), alice, "u2")
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, domain.ChatRoomKey("u1", "u2"), s.Key())
	assert.Equal(t, hist.msgs, s.Messages())

	require.Len(t, dialer.dialed, 1)
	tr := dialer.dialed[0]
	require.Len(t, tr.announced, 1)
	assert.Equal(t, JoinAnnouncement{
		FirstName:    "Alice",
		UserID:       "u1",
		TargetUserID: "u2",
	}, tr.announced[0])
}

func TestOpenDegradesWhenHistoryFails(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewSessionManager(dialer, &fakeHistory{err: errors.New("store down")})

	s, err := m.Open(context.Background(), alice, "u2")
	require.NoError(t, err)
	defer s.Close()

	assert.Empty(t, s.Messages())

	// live messages still flow
	dialer.dialed[0].deliver(domain.ChatMessage{FirstName: "Bob", Text: "hi"})
	require.Len(t, s.Messages(), 1)
	assert.NoError(t, s.Send("hello"))
}

func TestSendRejectsEmptyText(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewSessionManager(dialer, &fakeHistory{})
	s, err := m.Open(context.Background(), alice, "u2")
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.Send(""), domain.ErrEmptyMessage)
	assert.ErrorIs(t, s.Send("   "), domain.ErrEmptyMessage)
	assert.Empty(t, dialer.dialed[0].sentMessages())
}

func TestSendCarriesSenderIdentity(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewSessionManager(dialer, &fakeHistory{})
	s, err := m.Open(context.Background(), alice, "u2")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Send("hi"))
	sent := dialer.dialed[0].sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, OutboundMessage{
		FirstName:    "Alice",
		LastName:     "Anders",
		UserID:       "u1",
		TargetUserID: "u2",
		Text:         "hi",
	}, sent[0])
}

func TestReceiveAppendsInDeliveryOrder(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewSessionManager(dialer, &fakeHistory{})
	s, err := m.Open(context.Background(), alice, "u2")
	require.NoError(t, err)
	defer s.Close()

	var observed []domain.ChatMessage
	s.OnMessage(func(msg domain.ChatMessage) { observed = append(observed, msg) })

	tr := dialer.dialed[0]
	tr.deliver(domain.ChatMessage{FirstName: "Bob", Text: "one"})
	tr.deliver(domain.ChatMessage{FirstName: "Bob", Text: "two"})
	tr.deliver(domain.ChatMessage{FirstName: "Bob", Text: "three"})

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Text)
	assert.Equal(t, "two", msgs[1].Text)
	assert.Equal(t, "three", msgs[2].Text)
	assert.Equal(t, msgs, observed)
}

func TestCloseDisconnectsExactlyOnce(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewSessionManager(dialer, &fakeHistory{})
	s, err := m.Open(context.Background(), alice, "u2")
	require.NoError(t, err)

	s.Close()
	s.Close()
	s.Close()
	assert.Equal(t, 1, dialer.dialed[0].closes())

	// terminal: send and inbound delivery are no-ops
	assert.ErrorIs(t, s.Send("late"), domain.ErrSessionClosed)
	dialer.dialed[0].deliver(domain.ChatMessage{Text: "ghost"})
	assert.Empty(t, s.Messages())
}

func TestReopenYieldsIndependentSession(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewSessionManager(dialer, &fakeHistory{})

	s1, err := m.Open(context.Background(), alice, "u2")
	require.NoError(t, err)
	dialer.dialed[0].deliver(domain.ChatMessage{FirstName: "Bob", Text: "old"})
	s1.Close()

	s2, err := m.Open(context.Background(), alice, "u2")
	require.NoError(t, err)
	defer s2.Close()

	require.Len(t, dialer.dialed, 2)
	assert.NotSame(t, dialer.dialed[0], dialer.dialed[1])
	assert.Empty(t, s2.Messages(), "second session must not see the first session's messages")
}

// Two open sessions on the same room key: A sends "hi", B appends it as the
// last element, exactly once.
func TestCounterpartReceivesMessage(t *testing.T) {
	bob := &domain.User{ID: "u2", FirstName: "Bob", LastName: "Baker"}
	dialer := &fakeDialer{}
	m := NewSessionManager(dialer, &fakeHistory{})

	sa, err := m.Open(context.Background(), alice, bob.ID)
	require.NoError(t, err)
	defer sa.Close()
	sb, err := m.Open(context.Background(), bob, alice.ID)
	require.NoError(t, err)
	defer sb.Close()

	require.Equal(t, sa.Key(), sb.Key())

	// relay behavior: the send event comes back to the room as a receive event
	require.NoError(t, sa.Send("hi"))
	sent := dialer.dialed[0].sentMessages()[0]
	dialer.dialed[1].deliver(domain.ChatMessage{
		FirstName: sent.FirstName,
		LastName:  sent.LastName,
		Text:      sent.Text,
	})

	msgs := sb.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.ChatMessage{FirstName: "Alice", LastName: "Anders", Text: "hi"}, msgs[len(msgs)-1])
}

func TestDisconnectSignalSurfaces(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewSessionManager(dialer, &fakeHistory{})
	s, err := m.Open(context.Background(), alice, "u2")
	require.NoError(t, err)
	defer s.Close()

	var got error
	s.OnDisconnect(func(err error) { got = err })

	dropErr := errors.New("connection reset")
	dialer.dialed[0].onDisconnect(dropErr)
	assert.Equal(t, dropErr, got)
}
