package model

import "time"

// ParticipantID uniquely identifies a connected participant across the system.
// It is assigned by the transport layer (one ID per connection).
type ParticipantID string

// Status represents a participant's place in the matchmaking queue
type Status string

const (
	// StatusActive means the participant holds one of the two playing seats
	StatusActive Status = "active"

	// StatusInactive means the participant is waiting in the queue
	StatusInactive Status = "inactive"
)

// Marker is the symbolic token held by an active participant.
// Exactly two values exist; an inactive participant holds none.
type Marker string

const (
	MarkerA Marker = "A"
	MarkerB Marker = "B"
)

// Other returns the marker not equal to m
func (m Marker) Other() Marker {
	if m == MarkerA {
		return MarkerB
	}
	return MarkerA
}

// Participant is one record per connected client
type Participant struct {
	ID        ParticipantID
	SessionID string // generated at admission, opaque to matchmaking
	Status    Status
	Marker    Marker // set iff Status == StatusActive
	JoinedAt  time.Time
	Username  string // optional display label, orthogonal to matchmaking
}
