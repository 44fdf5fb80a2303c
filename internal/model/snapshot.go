package model

import (
	"sort"
	"time"
)

// SnapshotEntry is one participant as seen by connected clients
type SnapshotEntry struct {
	ID       ParticipantID `json:"id"`
	Status   Status        `json:"status"`
	Marker   Marker        `json:"marker,omitempty"`
	JoinedAt time.Time     `json:"joinedAt"`
	Username string        `json:"username,omitempty"`
}

// QueueSnapshot is the full queue state broadcast after every transition,
// sorted by join time ascending
type QueueSnapshot struct {
	Participants []SnapshotEntry `json:"participants"`
}

// NewQueueSnapshot builds a snapshot from raw participant records.
// Ordering is joinedAt ascending with ID as the tie-break, matching the
// queue priority order.
func NewQueueSnapshot(participants []*Participant) QueueSnapshot {
	entries := make([]SnapshotEntry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, SnapshotEntry{
			ID:       p.ID,
			Status:   p.Status,
			Marker:   p.Marker,
			JoinedAt: p.JoinedAt,
			Username: p.Username,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].JoinedAt.Equal(entries[j].JoinedAt) {
			return entries[i].JoinedAt.Before(entries[j].JoinedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	return QueueSnapshot{Participants: entries}
}
