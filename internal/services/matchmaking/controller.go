package matchmaking

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lexc24/tictactoe/internal/dependencies/clock"
	"github.com/lexc24/tictactoe/internal/dependencies/ident"
	"github.com/lexc24/tictactoe/internal/model"
	"github.com/lexc24/tictactoe/internal/storage"
)

// Controller orchestrates the four lifecycle transitions that drive the
// queue: admission, queue request, departure and game result. All shared
// state lives in the store; concurrent invocations are serialized only by
// the store's conditional writes.
type Controller struct {
	store  storage.Store
	engine *Engine
	clock  clock.Clock
	ident  ident.Generator
	logger *slog.Logger
}

// NewController creates a new lifecycle controller
func NewController(store storage.Store, engine *Engine, clk clock.Clock, gen ident.Generator, logger *slog.Logger) *Controller {
	return &Controller{
		store:  store,
		engine: engine,
		clock:  clk,
		ident:  gen,
		logger: logger.With(slog.String("component", "matchmaking-controller")),
	}
}

// OnAdmit creates the participant record for a new connection: inactive,
// fresh join time, fresh session ID, no marker. Admission does not place
// the participant in the queue; that happens on an explicit queue request
// so the two steps can be retried and observed independently.
//
// Admitting an identifier that already has a record fails with
// model.ErrParticipantExists and leaves the existing record untouched.
func (c *Controller) OnAdmit(ctx context.Context, id model.ParticipantID) (*model.Participant, error) {
	p := &model.Participant{
		ID:        id,
		SessionID: c.ident.NewID(),
		Status:    model.StatusInactive,
		JoinedAt:  c.clock.Now(),
	}

	if err := c.store.Create(ctx, p); err != nil {
		if errors.Is(err, model.ErrParticipantExists) {
			c.logger.Warn("duplicate admission",
				slog.String("participant_id", string(id)))
		}
		return nil, err
	}

	c.logger.Info("participant admitted",
		slog.String("participant_id", string(id)),
		slog.String("session_id", p.SessionID))
	return p, nil
}

// OnQueueRequest places an admitted participant: seated if a seat is
// free, queued otherwise. Fails with model.ErrParticipantNotFound if the
// participant was never admitted.
func (c *Controller) OnQueueRequest(ctx context.Context, id model.ParticipantID) (model.Status, model.Marker, error) {
	if _, err := c.store.Get(ctx, id); err != nil {
		return "", "", err
	}
	return c.engine.AdmitOrQueue(ctx, id)
}

// OnDepart removes a participant and, if it held a seat, refills the
// seats from the waiting line. Departure of an unknown participant is a
// no-op success: disconnect-after-cleanup is expected.
func (c *Controller) OnDepart(ctx context.Context, id model.ParticipantID) error {
	prior, err := c.engine.Remove(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrParticipantNotFound) {
			c.logger.Info("departure of unknown participant, ignoring",
				slog.String("participant_id", string(id)))
			return nil
		}
		return err
	}

	c.logger.Info("participant departed",
		slog.String("participant_id", string(id)),
		slog.String("prior_status", string(prior)))

	if prior == model.StatusActive {
		return c.engine.FillActiveSlots(ctx)
	}
	return nil
}

// OnGameResult requeues the loser at the back of the waiting line and
// refills the seats. A result with no loser is a tie: it fails with
// model.ErrMissingLoser and touches nothing, not even the queue fill.
// The winner's record is left alone.
func (c *Controller) OnGameResult(ctx context.Context, loserID model.ParticipantID) error {
	if loserID == "" {
		return model.ErrMissingLoser
	}

	if err := c.engine.Requeue(ctx, loserID, c.clock.Now()); err != nil {
		return err
	}

	c.logger.Info("loser requeued", slog.String("participant_id", string(loserID)))
	return c.engine.FillActiveSlots(ctx)
}

// SetUsername attaches a display label to a participant. The label is
// orthogonal to matchmaking and can be set at any point after admission.
func (c *Controller) SetUsername(ctx context.Context, id model.ParticipantID, username string) error {
	return c.store.Update(ctx, id, storage.Update{Username: &username}, nil)
}

// Snapshot returns the whole queue ordered by join time, the view that
// gets broadcast to clients
func (c *Controller) Snapshot(ctx context.Context) (model.QueueSnapshot, error) {
	all, err := c.store.ScanAll(ctx)
	if err != nil {
		return model.QueueSnapshot{}, err
	}
	return model.NewQueueSnapshot(all), nil
}
