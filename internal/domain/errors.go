package domain

import "errors"

// Error taxonomy of the real-time subsystem. Adapters wrap these with
// %w so callers can branch with errors.Is.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrEmptyMessage       = errors.New("empty message")
	ErrTokenUnavailable   = errors.New("token unavailable")
	ErrRoomCreationFailed = errors.New("room creation failed")
	ErrInvalidMeetingID   = errors.New("invalid meeting id")
	ErrTransport          = errors.New("transport error")
	ErrToggleInProgress   = errors.New("toggle already in progress")
	ErrSessionClosed      = errors.New("session closed")
	ErrNoRoomChosen       = errors.New("no room chosen")
)
