package matchmaking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lexc24/tictactoe/internal/dependencies/clock"
	"github.com/lexc24/tictactoe/internal/model"
	"github.com/lexc24/tictactoe/internal/storage"
)

// maxActive is the number of playing seats. The marker domain has exactly
// two values, so this is not tunable.
const maxActive = 2

// Engine holds the matchmaking decision logic: marker assignment, seat
// accounting and promotion selection. It keeps no state of its own; every
// decision is made against a fresh read of the store.
type Engine struct {
	store  storage.Store
	clock  clock.Clock
	logger *slog.Logger
}

// NewEngine creates a new matchmaking engine
func NewEngine(store storage.Store, clk clock.Clock, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		clock:  clk,
		logger: logger.With(slog.String("component", "matchmaking-engine")),
	}
}

// AssignMarker picks the marker for the next participant to take a seat:
// A when both seats are free, otherwise whichever marker the sitting
// participant does not hold. With both seats taken it returns
// model.ErrSlotsFull. Read-only.
func (e *Engine) AssignMarker(ctx context.Context) (model.Marker, error) {
	active, err := e.store.ListByStatus(ctx, model.StatusActive, maxActive)
	if err != nil {
		return "", err
	}

	switch len(active) {
	case 0:
		return model.MarkerA, nil
	case 1:
		return active[0].Marker.Other(), nil
	default:
		return "", model.ErrSlotsFull
	}
}

// AdmitOrQueue places a participant: into a free seat with a marker when
// one exists, otherwise at the back of the waiting line with a fresh join
// timestamp. The timestamp is taken at request time, not record-creation
// time: a participant only gets a queue position once it asks for one.
func (e *Engine) AdmitOrQueue(ctx context.Context, id model.ParticipantID) (model.Status, model.Marker, error) {
	activeCount, err := e.store.CountByStatus(ctx, model.StatusActive)
	if err != nil {
		return "", "", err
	}

	if activeCount < maxActive {
		marker, err := e.AssignMarker(ctx)
		if err != nil {
			return "", "", err
		}

		status := model.StatusActive
		if err := e.store.Update(ctx, id, storage.Update{
			Status: &status,
			Marker: &marker,
		}, nil); err != nil {
			return "", "", err
		}

		e.logger.Info("participant seated",
			slog.String("participant_id", string(id)),
			slog.String("marker", string(marker)))
		return model.StatusActive, marker, nil
	}

	status := model.StatusInactive
	now := e.clock.Now()
	if err := e.store.Update(ctx, id, storage.Update{
		Status:      &status,
		ClearMarker: true,
		JoinedAt:    &now,
	}, nil); err != nil {
		return "", "", err
	}

	e.logger.Info("participant queued", slog.String("participant_id", string(id)))
	return model.StatusInactive, "", nil
}

// FillActiveSlots replenishes the seats up to two from the waiting line,
// longest-waiting first. Each promotion is an independent conditional
// write: one that loses a race or fails outright is logged and skipped
// without blocking the next candidate, and the marker is re-derived from
// the store before every attempt so two promotions in one pass can never
// receive the same marker.
func (e *Engine) FillActiveSlots(ctx context.Context) error {
	activeCount, err := e.store.CountByStatus(ctx, model.StatusActive)
	if err != nil {
		return err
	}

	needed := maxActive - activeCount
	if needed <= 0 {
		return nil
	}

	waiting, err := e.store.ListByStatus(ctx, model.StatusInactive, needed)
	if err != nil {
		return err
	}

	for _, candidate := range waiting {
		marker, err := e.AssignMarker(ctx)
		if err != nil {
			if errors.Is(err, model.ErrSlotsFull) {
				// A concurrent pass filled the seats first
				e.logger.Warn("slots filled mid-pass, stopping promotions")
				return nil
			}
			e.logger.Error("marker assignment failed",
				slog.String("participant_id", string(candidate.ID)),
				slog.Any("error", err))
			continue
		}

		status := model.StatusActive
		err = e.store.Update(ctx, candidate.ID, storage.Update{
			Status: &status,
			Marker: &marker,
		}, &storage.Condition{StatusEquals: model.StatusInactive})

		switch {
		case err == nil:
			e.logger.Info("participant promoted",
				slog.String("participant_id", string(candidate.ID)),
				slog.String("marker", string(marker)))
		case errors.Is(err, model.ErrConditionFailed):
			// Lost the race to a concurrent pass; the candidate was
			// already handled. The freed attempt is not re-spent on
			// another candidate.
			e.logger.Info("promotion lost race, skipping",
				slog.String("participant_id", string(candidate.ID)))
		case errors.Is(err, model.ErrParticipantNotFound):
			// Candidate departed between the listing and the write
			e.logger.Info("promotion candidate gone, skipping",
				slog.String("participant_id", string(candidate.ID)))
		default:
			e.logger.Error("promotion failed",
				slog.String("participant_id", string(candidate.ID)),
				slog.Any("error", err))
		}
	}

	return nil
}

// Requeue demotes an active participant to the back of the waiting line:
// marker cleared, status inactive, join time set to ts
func (e *Engine) Requeue(ctx context.Context, id model.ParticipantID, ts time.Time) error {
	status := model.StatusInactive
	return e.store.Update(ctx, id, storage.Update{
		Status:      &status,
		ClearMarker: true,
		JoinedAt:    &ts,
	}, nil)
}

// Remove deletes a participant record and reports the status it held, so
// the caller can decide whether a promotion pass is needed
func (e *Engine) Remove(ctx context.Context, id model.ParticipantID) (model.Status, error) {
	p, err := e.store.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if err := e.store.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrParticipantNotFound) {
			// Deleted concurrently; the status we read still tells the
			// caller what was freed
			return p.Status, nil
		}
		return "", err
	}
	return p.Status, nil
}
