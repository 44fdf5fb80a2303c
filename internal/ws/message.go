package ws

import "github.com/lexc24/tictactoe/internal/model"

// Incoming actions accepted from clients
const (
	ActionJoinQueue   = "joinQueue"
	ActionGameOver    = "gameOver"
	ActionSetUsername = "setUsername"
)

// Outgoing actions pushed to clients
const (
	ActionInfo        = "info"
	ActionQueueUpdate = "queueUpdate"
	ActionError       = "error"
)

// IncomingMessage is one client request frame
type IncomingMessage struct {
	Action   string `json:"action"`
	LoserID  string `json:"loserId,omitempty"`
	Username string `json:"username,omitempty"`
}

// OutgoingMessage is one server push frame
type OutgoingMessage struct {
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
}

// InfoPayload tells a freshly connected client who it is
type InfoPayload struct {
	ConnectionID model.ParticipantID `json:"connectionId"`
	SessionID    string              `json:"sessionId"`
	Status       model.Status        `json:"status"`
	Marker       model.Marker        `json:"marker,omitempty"`
}

// JoinQueuePayload answers an explicit queue request
type JoinQueuePayload struct {
	Status model.Status `json:"status"`
	Marker model.Marker `json:"marker,omitempty"`
}

// ErrorPayload reports a per-message failure without dropping the
// connection
type ErrorPayload struct {
	Message string `json:"message"`
}
