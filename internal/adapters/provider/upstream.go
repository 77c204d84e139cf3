package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/snesh-101/meetup-rtc/internal/domain"
)

// Upstream is the relay's client against the actual provider room API.
// With no upstream configured it falls back to a local in-memory registry,
// which keeps dev and tests off the network. Either way a room id is only
// ever obtained from a create call or confirmed by validation.
type Upstream struct {
	baseURL string
	http    *http.Client

	local *localRooms
}

func NewUpstream(baseURL string) *Upstream {
	u := &Upstream{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	if u.baseURL == "" {
		u.local = newLocalRooms()
	}
	return u
}

func (u *Upstream) CreateRoom(ctx context.Context, token string) (domain.RoomID, error) {
	if u.local != nil {
		return u.local.create(), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/rooms", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", token)

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: create room: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: create room: status %d", domain.ErrTransport, resp.StatusCode)
	}

	var body struct {
		RoomID string `json:"roomId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode create room: %w", err)
	}
	return domain.RoomID(body.RoomID), nil
}

func (u *Upstream) ValidateRoom(ctx context.Context, token string, room domain.RoomID) (bool, error) {
	if u.local != nil {
		return u.local.exists(room), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+"/rooms/validate/"+string(room), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", token)

	resp, err := u.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: validate room: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound, http.StatusBadRequest:
		// "not found" is an answer, not a failure
		return false, nil
	default:
		return false, fmt.Errorf("%w: validate room: status %d", domain.ErrTransport, resp.StatusCode)
	}
}

type localRooms struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]struct{}
}

func newLocalRooms() *localRooms {
	return &localRooms{rooms: make(map[domain.RoomID]struct{})}
}

func (l *localRooms) create() domain.RoomID {
	id := domain.RoomID(uuid.NewString()[:13])
	l.mu.Lock()
	l.rooms[id] = struct{}{}
	l.mu.Unlock()
	return id
}

func (l *localRooms) exists(id domain.RoomID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.rooms[id]
	return ok
}
