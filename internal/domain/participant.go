package domain

type ParticipantID string

// Participant is one member of a meeting roster with its media flags.
// The local participant is distinguished by IsLocal and is never removed
// by remote events.
type Participant struct {
	ID          ParticipantID `json:"id"`
	DisplayName string        `json:"displayName"`
	MicOn       bool          `json:"micOn"`
	WebcamOn    bool          `json:"webcamOn"`
	IsLocal     bool          `json:"isLocal"`
}
