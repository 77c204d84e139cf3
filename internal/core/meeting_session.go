package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/snesh-101/meetup-rtc/internal/domain"
)

// MeetingState is the lifecycle position of a meeting session.
type MeetingState int

const (
	StateNoToken MeetingState = iota
	StateAwaitingRoomChoice
	StateValidating
	StateJoining
	StateInMeeting
	StateLeft
)

func (s MeetingState) String() string {
	switch s {
	case StateNoToken:
		return "no_token"
	case StateAwaitingRoomChoice:
		return "awaiting_room_choice"
	case StateValidating:
		return "validating"
	case StateJoining:
		return "joining"
	case StateInMeeting:
		return "in_meeting"
	case StateLeft:
		return "left"
	default:
		return "unknown"
	}
}

// MeetingController drives the token/room/join lifecycle against the provider.
// A room id is only joinable once it has been vouched for: either minted by
// CreateRoom or confirmed by a successful validation. Guessed ids never reach
// the transport.
type MeetingController struct {
	provider  MeetingProvider
	transport MeetingTransport
	local     *domain.User

	mu      sync.Mutex
	state   MeetingState
	token   string
	roomID  domain.RoomID
	vouched bool

	roster  *Roster
	toggles *ToggleArbiter
}

func NewMeetingController(provider MeetingProvider, transport MeetingTransport, local *domain.User) *MeetingController {
	c := &MeetingController{
		provider:  provider,
		transport: transport,
		local:     local,
		state:     StateNoToken,
		roster:    NewRoster(),
	}
	// Both mic and webcam start enabled on join.
	c.toggles = NewToggleArbiter(transport, true, true)
	return c
}

func (c *MeetingController) State() MeetingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *MeetingController) RoomID() domain.RoomID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *MeetingController) Roster() *Roster         { return c.roster }
func (c *MeetingController) Toggles() *ToggleArbiter { return c.toggles }

// Activate acquires the provider token. It is the precondition for every
// other meeting operation; on failure the controller stays in NoToken and
// may be retried.
func (c *MeetingController) Activate(ctx context.Context) error {
	if c.local == nil || c.local.ID == "" {
		return domain.ErrNotAuthenticated
	}
	c.mu.Lock()
	if c.state != StateNoToken {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	token, err := c.provider.GetToken(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "core.meeting").Msg("token acquisition failed")
		return fmt.Errorf("%w: %w", domain.ErrTokenUnavailable, err)
	}

	c.mu.Lock()
	c.token = token
	c.state = StateAwaitingRoomChoice
	c.mu.Unlock()
	log.Info().Str("module", "core.meeting").Msg("token acquired")
	return nil
}

// CreateRoom mints a fresh room at the provider. The returned id is vouched
// and becomes the join target.
func (c *MeetingController) CreateRoom(ctx context.Context) (domain.RoomID, error) {
	c.mu.Lock()
	if c.state != StateAwaitingRoomChoice {
		c.mu.Unlock()
		return "", fmt.Errorf("create room in state %s: %w", c.state, domain.ErrNoRoomChosen)
	}
	token := c.token
	c.mu.Unlock()

	id, err := c.provider.CreateRoom(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRoomCreationFailed, err)
	}

	c.mu.Lock()
	c.roomID = id
	c.vouched = true
	c.mu.Unlock()
	log.Info().Str("module", "core.meeting").Str("room", string(id)).Msg("room created")
	return id, nil
}

// SelectRoom validates a user-supplied room id. A clean "not joinable" answer
// surfaces as ErrInvalidMeetingID and leaves the controller awaiting another
// choice; a network failure surfaces as a retryable transport error instead.
func (c *MeetingController) SelectRoom(ctx context.Context, candidate string) error {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return domain.ErrNoRoomChosen
	}

	c.mu.Lock()
	if c.state != StateAwaitingRoomChoice {
		c.mu.Unlock()
		return fmt.Errorf("select room in state %s: %w", c.state, domain.ErrNoRoomChosen)
	}
	token := c.token
	c.state = StateValidating
	c.mu.Unlock()

	valid, err := c.provider.ValidateRoom(ctx, token, domain.RoomID(candidate))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateAwaitingRoomChoice
	if err != nil {
		return fmt.Errorf("%w: validate room: %w", domain.ErrTransport, err)
	}
	if !valid {
		log.Info().Str("module", "core.meeting").Str("room", candidate).Msg("room id rejected by provider")
		return domain.ErrInvalidMeetingID
	}
	c.roomID = domain.RoomID(candidate)
	c.vouched = true
	return nil
}

// Join attaches the transport to the vouched room. Calling Join while
// already in the meeting is a no-op.
func (c *MeetingController) Join(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateInMeeting {
		c.mu.Unlock()
		return nil
	}
	if c.state != StateAwaitingRoomChoice || !c.vouched {
		c.mu.Unlock()
		return domain.ErrNoRoomChosen
	}
	token, room := c.token, c.roomID
	c.state = StateJoining
	c.mu.Unlock()

	localPart := domain.Participant{
		ID:          domain.ParticipantID(c.local.ID),
		DisplayName: c.local.DisplayName(),
		MicOn:       c.toggles.MicOn(),
		WebcamOn:    c.toggles.WebcamOn(),
		IsLocal:     true,
	}

	// Register roster handlers before the transport can emit anything.
	c.transport.OnParticipantJoined(c.roster.Upsert)
	c.transport.OnParticipantLeft(c.roster.Remove)
	c.transport.OnMediaChanged(c.roster.SetMedia)
	c.transport.OnDisconnected(func(err error) {
		log.Warn().Err(err).Str("module", "core.meeting").Str("room", string(room)).Msg("meeting transport dropped")
	})

	if err := c.transport.Join(ctx, token, room, localPart); err != nil {
		c.mu.Lock()
		c.state = StateAwaitingRoomChoice
		c.mu.Unlock()
		return fmt.Errorf("%w: join room %s: %w", domain.ErrTransport, room, err)
	}

	c.roster.SetLocal(localPart)

	c.mu.Lock()
	c.state = StateInMeeting
	c.mu.Unlock()
	log.Info().Str("module", "core.meeting").Str("room", string(room)).Msg("joined meeting")
	return nil
}

// Leave is local-first: state flips to Left and the roster clears even when
// the provider-side leave fails. Provider failures are logged, not surfaced.
func (c *MeetingController) Leave() {
	c.mu.Lock()
	if c.state == StateLeft {
		c.mu.Unlock()
		return
	}
	wasJoined := c.state == StateInMeeting
	room := c.roomID
	c.state = StateLeft
	c.mu.Unlock()

	c.roster.Clear()

	if wasJoined {
		if err := c.transport.Leave(); err != nil {
			log.Warn().Err(err).Str("module", "core.meeting").Str("room", string(room)).Msg("provider leave failed, local state already released")
		}
	}
	log.Info().Str("module", "core.meeting").Str("room", string(room)).Msg("left meeting")
}
