package core

import (
	"context"
	"sync"

	"github.com/snesh-101/meetup-rtc/internal/domain"
)

// fakeChatTransport records outbound traffic and lets tests inject inbound
// events through the registered handlers.
type fakeChatTransport struct {
	mu           sync.Mutex
	announced    []JoinAnnouncement
	sent         []OutboundMessage
	onReceive    func(domain.ChatMessage)
	onDisconnect func(error)
	closeCount   int
	announceErr  error
	sendErr      error
}

func (f *fakeChatTransport) Announce(j JoinAnnouncement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.announceErr != nil {
		return f.announceErr
	}
	f.announced = append(f.announced, j)
	return nil
}

func (f *fakeChatTransport) Send(m OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeChatTransport) OnReceive(fn func(domain.ChatMessage)) {
	f.mu.Lock()
	f.onReceive = fn
	f.mu.Unlock()
}

func (f *fakeChatTransport) OnDisconnect(fn func(error)) {
	f.mu.Lock()
	f.onDisconnect = fn
	f.mu.Unlock()
}

func (f *fakeChatTransport) Close() {
	f.mu.Lock()
	f.closeCount++
	f.mu.Unlock()
}

func (f *fakeChatTransport) deliver(msg domain.ChatMessage) {
	f.mu.Lock()
	fn := f.onReceive
	f.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

func (f *fakeChatTransport) sentMessages() []OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]OutboundMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeChatTransport) closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCount
}

// fakeDialer hands out a fresh transport per Dial and remembers them all.
type fakeDialer struct {
	mu     sync.Mutex
	dialed []*fakeChatTransport
	err    error
}

func (d *fakeDialer) Dial(_ context.Context, _ domain.RoomKey, _ *domain.User) (ChatTransport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	tr := &fakeChatTransport{}
	d.dialed = append(d.dialed, tr)
	return tr, nil
}

type fakeHistory struct {
	msgs []domain.ChatMessage
	err  error
}

func (h *fakeHistory) Fetch(context.Context, domain.UserID) ([]domain.ChatMessage, error) {
	if h.err != nil {
		return nil, h.err
	}
	out := make([]domain.ChatMessage, len(h.msgs))
	copy(out, h.msgs)
	return out, nil
}

// fakeProvider scripts the provider's three calls.
type fakeProvider struct {
	mu          sync.Mutex
	token       string
	tokenErr    error
	roomID      domain.RoomID
	createErr   error
	validateFn  func(domain.RoomID) (bool, error)
	tokenCalls  int
	createCalls int
}

func (p *fakeProvider) GetToken(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenCalls++
	if p.tokenErr != nil {
		return "", p.tokenErr
	}
	return p.token, nil
}

func (p *fakeProvider) CreateRoom(context.Context, string) (domain.RoomID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createCalls++
	if p.createErr != nil {
		return "", p.createErr
	}
	return p.roomID, nil
}

func (p *fakeProvider) ValidateRoom(_ context.Context, _ string, room domain.RoomID) (bool, error) {
	if p.validateFn != nil {
		return p.validateFn(room)
	}
	return false, nil
}

// fakeMeetingTransport records lifecycle and media calls.
type fakeMeetingTransport struct {
	mu          sync.Mutex
	joinCalls   int
	joinedRoom  domain.RoomID
	joinErr     error
	leaveCalls  int
	leaveErr    error
	micCalls    int
	webcamCalls int
	micErr      error
	webcamErr   error

	onJoined       func(domain.Participant)
	onLeft         func(domain.ParticipantID)
	onMediaChanged func(domain.ParticipantID, bool, bool)
	onDisconnected func(error)
}

func (f *fakeMeetingTransport) Join(_ context.Context, _ string, room domain.RoomID, _ domain.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joinErr != nil {
		return f.joinErr
	}
	f.joinCalls++
	f.joinedRoom = room
	return nil
}

func (f *fakeMeetingTransport) Leave() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaveCalls++
	return f.leaveErr
}

func (f *fakeMeetingTransport) SetMic(context.Context, bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.micCalls++
	return f.micErr
}

func (f *fakeMeetingTransport) SetWebcam(context.Context, bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.webcamCalls++
	return f.webcamErr
}

func (f *fakeMeetingTransport) OnParticipantJoined(fn func(domain.Participant)) { f.onJoined = fn }
func (f *fakeMeetingTransport) OnParticipantLeft(fn func(domain.ParticipantID)) { f.onLeft = fn }
func (f *fakeMeetingTransport) OnMediaChanged(fn func(domain.ParticipantID, bool, bool)) {
	f.onMediaChanged = fn
}
func (f *fakeMeetingTransport) OnDisconnected(fn func(error)) { f.onDisconnected = fn }
