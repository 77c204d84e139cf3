package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snesh-101/meetup-rtc/internal/domain"
)

func TestRosterLocalPinned(t *testing.T) {
	r := NewRoster()
	r.SetLocal(domain.Participant{ID: "me", DisplayName: "Alice"})

	// a remote "left" event for the local id is ignored
	r.Remove("me")
	local, ok := r.Local()
	require.True(t, ok)
	assert.True(t, local.IsLocal)

	// a provider echo of the local join keeps the IsLocal flag
	r.Upsert(domain.Participant{ID: "me", DisplayName: "Alice", MicOn: true})
	local, _ = r.Local()
	assert.True(t, local.IsLocal)
	assert.True(t, local.MicOn)
}

func TestRosterMembershipEvents(t *testing.T) {
	r := NewRoster()
	r.SetLocal(domain.Participant{ID: "me"})
	r.Upsert(domain.Participant{ID: "p2", DisplayName: "Bob"})
	r.Upsert(domain.Participant{ID: "p3", DisplayName: "Cara"})
	assert.Equal(t, 3, r.Count())

	r.Remove("p2")
	assert.Equal(t, 2, r.Count())
	_, ok := r.Get("p2")
	assert.False(t, ok)
}

func TestRosterMediaUpdateIsTargeted(t *testing.T) {
	r := NewRoster()
	r.SetLocal(domain.Participant{ID: "me", MicOn: true, WebcamOn: true})
	r.Upsert(domain.Participant{ID: "p2", MicOn: true, WebcamOn: true})

	r.SetMedia("p2", false, false)

	p2, _ := r.Get("p2")
	assert.False(t, p2.MicOn)
	assert.False(t, p2.WebcamOn)

	// unrelated entries untouched
	me, _ := r.Get("me")
	assert.True(t, me.MicOn)
	assert.True(t, me.WebcamOn)

	// unknown ids are ignored, not inserted
	r.SetMedia("ghost", true, true)
	_, ok := r.Get("ghost")
	assert.False(t, ok)
	assert.Equal(t, 2, r.Count())
}

func TestRosterRemoteIDs(t *testing.T) {
	r := NewRoster()
	r.SetLocal(domain.Participant{ID: "me"})
	r.Upsert(domain.Participant{ID: "p2"})
	r.Upsert(domain.Participant{ID: "p3"})

	remote := r.RemoteIDs()
	assert.ElementsMatch(t, []domain.ParticipantID{"p2", "p3"}, remote)
}

func TestRosterSnapshotIsACopy(t *testing.T) {
	r := NewRoster()
	r.Upsert(domain.Participant{ID: "p2", MicOn: true})

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	snap[0].MicOn = false

	p2, _ := r.Get("p2")
	assert.True(t, p2.MicOn, "mutating a snapshot must not touch the roster")
}

func TestRosterClear(t *testing.T) {
	r := NewRoster()
	r.SetLocal(domain.Participant{ID: "me"})
	r.Upsert(domain.Participant{ID: "p2"})
	r.Clear()
	assert.Equal(t, 0, r.Count())
	_, ok := r.Local()
	assert.False(t, ok)
}
