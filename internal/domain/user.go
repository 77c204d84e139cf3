// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const MaxNameLen = 50

var (
	ErrUserIDEmpty    = errors.New("user id empty")
	ErrFirstNameEmpty = errors.New("first name empty")
	ErrNameTooLong    = errors.New("name too long")
)

type UserID string

// User is display identity only; the full profile lives outside this subsystem.
// Immutable for the lifetime of a session.
type User struct {
	ID        UserID `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id UserID, firstName, lastName string) (*User, error) {
	if id == "" {
		return nil, ErrUserIDEmpty
	}
	if firstName == "" {
		return nil, ErrFirstNameEmpty
	}
	if len(firstName) > MaxNameLen || len(lastName) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	return &User{ID: id, FirstName: firstName, LastName: lastName}, nil
}

func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
