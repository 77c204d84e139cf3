package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/snesh-101/meetup-rtc/internal/domain"
)

// MediaChannel names one local device control channel.
type MediaChannel string

const (
	ChannelMic    MediaChannel = "mic"
	ChannelCamera MediaChannel = "camera"
)

// ToggleArbiter serializes device toggles per channel. While a toggle is in
// flight further requests for that channel are rejected immediately, keeping
// the displayed state and the device state from diverging under rapid
// double-clicks. On provider error the pending mark is released and the
// prior state retained.
type ToggleArbiter struct {
	controls MediaControls

	mu       sync.Mutex
	pending  map[MediaChannel]bool
	micOn    bool
	webcamOn bool
}

func NewToggleArbiter(controls MediaControls, micOn, webcamOn bool) *ToggleArbiter {
	return &ToggleArbiter{
		controls: controls,
		pending:  make(map[MediaChannel]bool),
		micOn:    micOn,
		webcamOn: webcamOn,
	}
}

func (a *ToggleArbiter) MicOn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.micOn
}

func (a *ToggleArbiter) WebcamOn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.webcamOn
}

// Toggle flips the channel to the opposite of its current state and returns
// the confirmed new state. At most one toggle per channel is in flight.
func (a *ToggleArbiter) Toggle(ctx context.Context, ch MediaChannel) (bool, error) {
	a.mu.Lock()
	if a.pending[ch] {
		cur := a.current(ch)
		a.mu.Unlock()
		return cur, domain.ErrToggleInProgress
	}
	a.pending[ch] = true
	desired := !a.current(ch)
	a.mu.Unlock()

	var err error
	switch ch {
	case ChannelMic:
		err = a.controls.SetMic(ctx, desired)
	case ChannelCamera:
		err = a.controls.SetWebcam(ctx, desired)
	default:
		err = fmt.Errorf("unknown channel %q", ch)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, ch)
	if err != nil {
		// No optimistic flip: the displayed state stays where it was.
		log.Warn().Err(err).Str("module", "core.toggle").Str("channel", string(ch)).Msg("toggle failed, state unchanged")
		return a.current(ch), fmt.Errorf("%w: toggle %s: %w", domain.ErrTransport, ch, err)
	}
	a.set(ch, desired)
	return desired, nil
}

func (a *ToggleArbiter) current(ch MediaChannel) bool {
	if ch == ChannelCamera {
		return a.webcamOn
	}
	return a.micOn
}

func (a *ToggleArbiter) set(ch MediaChannel, on bool) {
	if ch == ChannelCamera {
		a.webcamOn = on
		return
	}
	a.micOn = on
}
