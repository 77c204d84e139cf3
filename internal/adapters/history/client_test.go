package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snesh-101/meetup-rtc/internal/domain"
)

func TestFetchParsesStoreShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/u2", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"messages":[
			{"senderId":{"firstName":"Alice","lastName":"Anders"},"text":"hi"},
			{"senderId":{"firstName":"Bob","lastName":"Baker"},"text":"hello"}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	msgs, err := c.Fetch(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.ChatMessage{FirstName: "Alice", LastName: "Anders", Text: "hi"}, msgs[0])
	assert.Equal(t, "hello", msgs[1].Text)
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Fetch(context.Background(), "u2")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	srv.Close()
	_, err = c.Fetch(context.Background(), "u2")
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestAppendPostsMessage(t *testing.T) {
	var got appendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/u2", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	err := c.Append(context.Background(), "u1", "u2", domain.ChatMessage{
		FirstName: "Alice", LastName: "Anders", Text: "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", got.FromID)
	assert.Equal(t, "Alice", got.SenderID.FirstName)
	assert.Equal(t, "hi", got.Text)
}
