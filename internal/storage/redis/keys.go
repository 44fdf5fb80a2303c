package redis

import (
	"fmt"

	"github.com/lexc24/tictactoe/internal/model"
)

// Key prefix for all matchmaking data
const keyPrefix = "ttt"

// participantKey returns the Redis key for a participant record
func participantKey(id model.ParticipantID) string {
	return fmt.Sprintf("%s:participant:%s", keyPrefix, id)
}

// statusIndexKey returns the Redis key for the ZSET indexing participants
// of one status, scored by join time
func statusIndexKey(status model.Status) string {
	return fmt.Sprintf("%s:idx:status:%s", keyPrefix, status)
}
