// Package provider talks to the video-meeting provider: the REST client the
// meeting controller uses, the relay-side token minting, and the relay's
// upstream room API client.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/snesh-101/meetup-rtc/internal/domain"
)

// Client implements core.MeetingProvider against the relay endpoints:
// POST /get-token, POST /create-room, POST /validate-room.
type Client struct {
	baseURL string
	http    *http.Client
	header  http.Header
}

func NewClient(baseURL string, header http.Header) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		header:  header,
	}
}

func (c *Client) GetToken(ctx context.Context) (string, error) {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, "/get-token", nil, &body); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTokenUnavailable, err)
	}
	if body.Token == "" {
		return "", domain.ErrTokenUnavailable
	}
	return body.Token, nil
}

func (c *Client) CreateRoom(ctx context.Context, token string) (domain.RoomID, error) {
	req := map[string]string{"token": token}
	var body struct {
		RoomID string `json:"roomId"`
	}
	if err := c.post(ctx, "/create-room", req, &body); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRoomCreationFailed, err)
	}
	if body.RoomID == "" {
		return "", domain.ErrRoomCreationFailed
	}
	return domain.RoomID(body.RoomID), nil
}

// ValidateRoom never errors for "not found": an unknown room is a clean
// {valid:false}. Only transport-level failures return an error, so the
// controller can distinguish a bogus id from a network problem.
func (c *Client) ValidateRoom(ctx context.Context, token string, room domain.RoomID) (bool, error) {
	req := map[string]string{"token": token, "roomId": string(room)}
	var body struct {
		Valid bool `json:"valid"`
	}
	if err := c.post(ctx, "/validate-room", req, &body); err != nil {
		return false, err
	}
	return body.Valid, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrTransport, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.ErrNotAuthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: status %d", domain.ErrTransport, path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
