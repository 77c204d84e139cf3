package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/snesh-101/meetup-rtc/internal/core"
	"github.com/snesh-101/meetup-rtc/internal/domain"
)

// Subscriber is a room member's transport endpoint on the relay.
// Owned by the ws controller; the controller must Close() it.
type Subscriber interface {
	TrySend(core.Frame) error
	Close()
}

// ChatRoom is the relay-side membership set for one room key. A user holds
// at most one attached socket per room: re-attaching replaces the previous
// one so a stale screen can never receive duplicates.
type ChatRoom struct {
	key domain.RoomKey

	mu     sync.RWMutex
	byUser map[domain.UserID]Subscriber
}

func NewChatRoom(key domain.RoomKey) *ChatRoom {
	return &ChatRoom{key: key, byUser: make(map[domain.UserID]Subscriber)}
}

func (r *ChatRoom) Key() domain.RoomKey { return r.key }

// Attach binds the user's socket and returns the replaced one, if any.
// The caller closes the replaced socket outside the room lock.
func (r *ChatRoom) Attach(uid domain.UserID, sub Subscriber) (replaced Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	replaced = r.byUser[uid]
	r.byUser[uid] = sub
	log.Info().Str("module", "app.room").Str("room", string(r.key)).Str("user", string(uid)).Msg("member attached")
	return replaced
}

// Detach removes the binding only when sub is still the current one, so a
// teardown racing a fresh attach cannot evict the newcomer.
func (r *ChatRoom) Detach(uid domain.UserID, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byUser[uid] != sub {
		return
	}
	delete(r.byUser, uid)
	log.Info().Str("module", "app.room").Str("room", string(r.key)).Str("user", string(uid)).Msg("member detached")
}

func (r *ChatRoom) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Deliver fans one frame out to every member of the room, the sender
// included: the sender's own screen renders from the delivered event too.
func (r *ChatRoom) Deliver(data core.Frame) (sent int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for uid, sub := range r.byUser {
		if err := sub.TrySend(data); err != nil {
			log.Warn().Err(err).Str("module", "app.room").Str("room", string(r.key)).Str("user", string(uid)).Msg("delivery dropped")
			continue
		}
		sent++
	}
	return sent
}

// Hub owns the live chat rooms, keyed by their canonical room key.
type Hub struct {
	mu    sync.RWMutex
	rooms map[domain.RoomKey]*ChatRoom
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[domain.RoomKey]*ChatRoom)}
}

func (h *Hub) GetOrCreate(key domain.RoomKey) *ChatRoom {
	h.mu.RLock()
	room, ok := h.rooms[key]
	h.mu.RUnlock()
	if ok {
		return room
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok = h.rooms[key]; ok {
		return room
	}
	room = NewChatRoom(key)
	h.rooms[key] = room
	return room
}

func (h *Hub) Get(key domain.RoomKey) (*ChatRoom, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[key]
	return room, ok
}

// Prune drops the room when its last member detached.
func (h *Hub) Prune(key domain.RoomKey) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[key]; ok && room.MemberCount() == 0 {
		delete(h.rooms, key)
		log.Info().Str("module", "app.hub").Str("room", string(key)).Msg("room pruned")
	}
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
