package core

import (
	"context"

	"github.com/snesh-101/meetup-rtc/internal/domain"
)

// Frame is a raw wire payload.
type Frame []byte

// JoinAnnouncement is the client's join event for a chat room. It carries
// enough identity for the counterpart's UI to personalize rendering.
type JoinAnnouncement struct {
	FirstName    string        `json:"firstName"`
	UserID       domain.UserID `json:"userId"`
	TargetUserID domain.UserID `json:"targetUserId"`
}

// OutboundMessage is the client's send event for a chat room.
type OutboundMessage struct {
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	UserID       domain.UserID `json:"userId"`
	TargetUserID domain.UserID `json:"targetUserId"`
	Text         string        `json:"text"`
}

// ChatTransport is the live bidirectional connection for one chat room.
// Owned by the ChatSession; the session must Close() it exactly once.
type ChatTransport interface {
	Announce(JoinAnnouncement) error
	Send(OutboundMessage) error
	// OnReceive registers the inbound handler. The transport invokes it once
	// per message, in delivery order.
	OnReceive(func(domain.ChatMessage))
	// OnDisconnect registers a handler for transport-level drops. The core
	// does not retry; the caller owns retry policy.
	OnDisconnect(func(error))
	Close()
}

// ChatDialer establishes one transport per room key.
type ChatDialer interface {
	Dial(ctx context.Context, key domain.RoomKey, local *domain.User) (ChatTransport, error)
}

// HistoryReader is the narrow read contract against the persistent chat store.
type HistoryReader interface {
	Fetch(ctx context.Context, target domain.UserID) ([]domain.ChatMessage, error)
}

// HistoryWriter is the relay's write contract against the chat store.
// Durability is delegated entirely to the store.
type HistoryWriter interface {
	Append(ctx context.Context, from, to domain.UserID, msg domain.ChatMessage) error
}

// MeetingProvider is the provider's room-identity API: token issuance,
// room creation and room validation. Media itself is hosted by the provider.
type MeetingProvider interface {
	GetToken(ctx context.Context) (string, error)
	CreateRoom(ctx context.Context, token string) (domain.RoomID, error)
	ValidateRoom(ctx context.Context, token string, room domain.RoomID) (bool, error)
}

// MediaControls drives the local device state on the provider session.
type MediaControls interface {
	SetMic(ctx context.Context, on bool) error
	SetWebcam(ctx context.Context, on bool) error
}

// MeetingTransport is the provider session for one meeting. Roster and media
// events are pushed through the registered callbacks; register before Join so
// no event is lost.
type MeetingTransport interface {
	MediaControls

	Join(ctx context.Context, token string, room domain.RoomID, local domain.Participant) error
	Leave() error

	OnParticipantJoined(func(domain.Participant))
	OnParticipantLeft(func(domain.ParticipantID))
	OnMediaChanged(func(id domain.ParticipantID, micOn, webcamOn bool))
	OnDisconnected(func(error))
}
