package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatRoomKeyCommutative(t *testing.T) {
	pairs := [][2]UserID{
		{"u1", "u2"},
		{"u2", "u1"},
		{"alice", "bob"},
		{"zzz", "aaa"},
		{"same", "same"},
	}
	for _, p := range pairs {
		assert.Equal(t, ChatRoomKey(p[0], p[1]), ChatRoomKey(p[1], p[0]), "pair %v", p)
	}
}

func TestChatRoomKeyDeterministic(t *testing.T) {
	assert.Equal(t, RoomKey("u1_u2"), ChatRoomKey("u2", "u1"))
	assert.Equal(t, RoomKey("u1_u2"), ChatRoomKey("u1", "u2"))
}

func TestNewUserValidation(t *testing.T) {
	_, err := NewUser("", "Alice", "A")
	assert.ErrorIs(t, err, ErrUserIDEmpty)

	_, err = NewUser("u1", "", "A")
	assert.ErrorIs(t, err, ErrFirstNameEmpty)

	u, err := NewUser("u1", "Alice", "Smith")
	assert.NoError(t, err)
	assert.Equal(t, "Alice Smith", u.DisplayName())
}
