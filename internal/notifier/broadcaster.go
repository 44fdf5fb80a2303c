package notifier

import (
	"context"
	"log/slog"

	"github.com/lexc24/tictactoe/internal/model"
	"github.com/lexc24/tictactoe/internal/storage"
)

// Sink receives queue snapshots for delivery to connected clients.
// The websocket hub implements it.
type Sink interface {
	BroadcastQueueUpdate(model.QueueSnapshot)
}

// Broadcaster watches the store's change log and pushes the resulting
// queue state to every client. It is deliberately dumb: any mutation
// triggers a full rescan and a full broadcast, so a dropped or coalesced
// event costs nothing but latency. The matchmaking core never calls it.
type Broadcaster struct {
	store  storage.Store
	sink   Sink
	logger *slog.Logger
}

// New creates a new Broadcaster
func New(store storage.Store, sink Sink, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		store:  store,
		sink:   sink,
		logger: logger.With(slog.String("component", "queue-notifier")),
	}
}

// Run consumes the change feed until the context is cancelled or the
// store closes the feed. Call it in its own goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	events := b.store.Subscribe()
	b.logger.Info("queue notifier started")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("queue notifier stopped")
			return
		case ev, ok := <-events:
			if !ok {
				b.logger.Info("change feed closed, notifier stopping")
				return
			}
			b.publish(ctx, ev)
		}
	}
}

func (b *Broadcaster) publish(ctx context.Context, ev model.ChangeEvent) {
	all, err := b.store.ScanAll(ctx)
	if err != nil {
		b.logger.Error("queue scan failed, skipping broadcast",
			slog.Any("error", err))
		return
	}

	snapshot := model.NewQueueSnapshot(all)
	b.sink.BroadcastQueueUpdate(snapshot)

	b.logger.Debug("queue update broadcast",
		slog.String("change", string(ev.Kind)),
		slog.String("participant_id", string(ev.Participant.ID)),
		slog.Int("participants", len(snapshot.Participants)))
}
