package storage

import (
	"context"
	"time"

	"github.com/lexc24/tictactoe/internal/model"
)

// Update is a field mask for a conditional participant update.
// Nil pointer fields are left untouched; ClearMarker removes the marker.
type Update struct {
	Status      *model.Status
	Marker      *model.Marker
	ClearMarker bool
	JoinedAt    *time.Time
	Username    *string
}

// Condition guards an Update. A store applies the update only if the
// condition holds at write time, otherwise it returns
// model.ErrConditionFailed without mutating anything.
type Condition struct {
	StatusEquals model.Status
}

// Store defines the interface for participant persistence.
//
// Implementations must provide three primitives beyond plain CRUD:
// create-if-absent (Create), compare-and-swap on status (Update with a
// Condition), and a status-partitioned listing ordered by join time
// (ListByStatus). Matchmaking correctness rests on those three alone.
type Store interface {
	// Create stores a new participant record. It fails with
	// model.ErrParticipantExists if the ID is already taken; the existing
	// record is never overwritten.
	Create(ctx context.Context, p *model.Participant) error

	// Get retrieves a participant by ID
	Get(ctx context.Context, id model.ParticipantID) (*model.Participant, error)

	// Update applies the field mask to an existing record, optionally
	// guarded by a condition
	Update(ctx context.Context, id model.ParticipantID, upd Update, cond *Condition) error

	// Delete removes a participant record
	Delete(ctx context.Context, id model.ParticipantID) error

	// ListByStatus returns participants with the given status ordered by
	// join time ascending (ID as tie-break). A non-positive limit means
	// no limit.
	ListByStatus(ctx context.Context, status model.Status, limit int) ([]*model.Participant, error)

	// CountByStatus returns the number of participants with the given status
	CountByStatus(ctx context.Context, status model.Status) (int, error)

	// ScanAll returns every participant record. Used by the snapshot
	// broadcaster, not by the matchmaking engine.
	ScanAll(ctx context.Context) ([]*model.Participant, error)

	// Subscribe returns a channel carrying one event per committed
	// mutation, the store's change log
	Subscribe() <-chan model.ChangeEvent

	// Close releases the store's resources and closes all change-feed
	// subscriptions
	Close() error
}
