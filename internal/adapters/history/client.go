// Package history is the REST client for the persistent chat store.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/snesh-101/meetup-rtc/internal/domain"
)

// Client talks to the chat store's narrow REST contract:
// GET  {base}/chat/{targetUserId} for history,
// POST {base}/chat/{targetUserId} to append.
type Client struct {
	baseURL string
	http    *http.Client
	header  http.Header
}

func New(baseURL string, header http.Header) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		header:  header,
	}
}

type senderID struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type storedMessage struct {
	SenderID senderID `json:"senderId"`
	Text     string   `json:"text"`
}

type historyResponse struct {
	Messages []storedMessage `json:"messages"`
}

// Fetch is a finite one-shot read, not a stream. Failures are reported to
// the caller; the session layer degrades to an empty history.
func (c *Client) Fetch(ctx context.Context, target domain.UserID) ([]domain.ChatMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/chat/"+string(target), nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch history: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrNotAuthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch history: status %d", domain.ErrTransport, resp.StatusCode)
	}

	var body historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	out := make([]domain.ChatMessage, 0, len(body.Messages))
	for _, m := range body.Messages {
		out = append(out, domain.ChatMessage{
			FirstName: m.SenderID.FirstName,
			LastName:  m.SenderID.LastName,
			Text:      m.Text,
		})
	}
	return out, nil
}

type appendRequest struct {
	SenderID senderID `json:"senderId"`
	FromID   string   `json:"fromId"`
	Text     string   `json:"text"`
}

// Append durably stores one message under the recipient's conversation.
func (c *Client) Append(ctx context.Context, from, to domain.UserID, msg domain.ChatMessage) error {
	b, err := json.Marshal(appendRequest{
		SenderID: senderID{FirstName: msg.FirstName, LastName: msg.LastName},
		FromID:   string(from),
		Text:     msg.Text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/"+string(to), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: append message: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: append message: status %d", domain.ErrTransport, resp.StatusCode)
	}
	return nil
}

func (c *Client) decorate(req *http.Request) {
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}
