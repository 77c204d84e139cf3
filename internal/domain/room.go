package domain

type (
	// RoomKey scopes one chat conversation between two users.
	RoomKey string
	// RoomID is a provider-issued meeting room identifier. It is never derived
	// locally: a meeting id must come from a create call or pass validation
	// before any traffic flows to it.
	RoomID string
)

// ChatRoomKey derives the canonical chat room key for a pair of users.
// It is commutative: both ends compute the same key without a negotiation
// round trip, regardless of who initiates.
func ChatRoomKey(a, b UserID) RoomKey {
	if b < a {
		a, b = b, a
	}
	return RoomKey(string(a) + "_" + string(b))
}
