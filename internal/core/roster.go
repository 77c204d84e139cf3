package core

import (
	"sync"

	"github.com/samber/lo"

	"github.com/snesh-101/meetup-rtc/internal/domain"
)

// Roster tracks meeting participants and their media flags. Media events
// update flags in place, never rebuilding the map, so unrelated entries keep
// their identity. Consumers only see snapshot copies.
type Roster struct {
	mu      sync.RWMutex
	byID    map[domain.ParticipantID]domain.Participant
	localID domain.ParticipantID
}

func NewRoster() *Roster {
	return &Roster{byID: make(map[domain.ParticipantID]domain.Participant)}
}

// SetLocal pins the local participant. It is inserted once, at join time,
// and remote events cannot evict it.
func (r *Roster) SetLocal(p domain.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.IsLocal = true
	r.byID[p.ID] = p
	r.localID = p.ID
}

// Upsert handles a participant-joined event. A provider echo of the local
// participant keeps its IsLocal flag.
func (r *Roster) Upsert(p domain.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.IsLocal = p.ID == r.localID && r.localID != ""
	r.byID[p.ID] = p
}

// Remove handles a participant-left event. The local participant is never
// removed by remote events.
func (r *Roster) Remove(id domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == r.localID {
		return
	}
	delete(r.byID, id)
}

// SetMedia updates only the named participant's flags. Unknown ids are
// ignored rather than inserted; membership is owned by joined/left events.
func (r *Roster) SetMedia(id domain.ParticipantID, micOn, webcamOn bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return
	}
	p.MicOn = micOn
	p.WebcamOn = webcamOn
	r.byID[id] = p
}

// Clear wipes the roster, local participant included. Called on leave.
func (r *Roster) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[domain.ParticipantID]domain.Participant)
	r.localID = ""
}

func (r *Roster) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *Roster) Get(id domain.ParticipantID) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

func (r *Roster) Local() (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[r.localID]
	return p, ok
}

// Snapshot returns a copy of the current roster.
func (r *Roster) Snapshot() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.byID)
}

// RemoteIDs is the derived view "everyone but me".
func (r *Roster) RemoteIDs() []domain.ParticipantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Filter(lo.Keys(r.byID), func(id domain.ParticipantID, _ int) bool {
		return id != r.localID
	})
}
