package notifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lexc24/tictactoe/internal/model"
	"github.com/lexc24/tictactoe/internal/storage/memory"
	"github.com/lexc24/tictactoe/internal/testutil"
)

// captureSink records broadcast snapshots for assertions
type captureSink struct {
	mu        sync.Mutex
	snapshots []model.QueueSnapshot
	notify    chan struct{}
}

func newCaptureSink() *captureSink {
	return &captureSink{notify: make(chan struct{}, 16)}
}

func (c *captureSink) BroadcastQueueUpdate(snapshot model.QueueSnapshot) {
	c.mu.Lock()
	c.snapshots = append(c.snapshots, snapshot)
	c.mu.Unlock()
	c.notify <- struct{}{}
}

func (c *captureSink) latest() model.QueueSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshots[len(c.snapshots)-1]
}

type BroadcasterSuite struct {
	suite.Suite
	storage *memory.Storage
	sink    *captureSink
	cancel  context.CancelFunc
	ctx     context.Context
}

func TestBroadcasterSuite(t *testing.T) {
	suite.Run(t, new(BroadcasterSuite))
}

func (s *BroadcasterSuite) SetupTest() {
	s.storage = memory.New()
	s.sink = newCaptureSink()

	b := New(s.storage, s.sink, testutil.NopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	s.ctx = ctx
	s.cancel = cancel
	go b.Run(ctx)
	// Run subscribes to the change feed inside the goroutine; give it a
	// moment to register before tests start publishing, or on a single-CPU
	// machine the first events are dropped before the subscription exists.
	time.Sleep(50 * time.Millisecond)
}

func (s *BroadcasterSuite) TearDownTest() {
	s.cancel()
	_ = s.storage.Close()
}

func (s *BroadcasterSuite) waitForBroadcast() {
	select {
	case <-s.sink.notify:
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for broadcast")
	}
}

func (s *BroadcasterSuite) TestCreateTriggersBroadcast() {
	p := &model.Participant{
		ID:       "p1",
		Status:   model.StatusInactive,
		JoinedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.storage.Create(s.ctx, p))

	s.waitForBroadcast()

	snapshot := s.sink.latest()
	s.Require().Len(snapshot.Participants, 1)
	s.Equal(model.ParticipantID("p1"), snapshot.Participants[0].ID)
	s.Equal(model.StatusInactive, snapshot.Participants[0].Status)
}

func (s *BroadcasterSuite) TestDeleteBroadcastsRemainingQueue() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.Create(s.ctx, &model.Participant{
		ID: "p1", Status: model.StatusInactive, JoinedAt: base,
	}))
	s.waitForBroadcast()
	s.Require().NoError(s.storage.Create(s.ctx, &model.Participant{
		ID: "p2", Status: model.StatusInactive, JoinedAt: base.Add(time.Second),
	}))
	s.waitForBroadcast()

	s.Require().NoError(s.storage.Delete(s.ctx, "p1"))
	s.waitForBroadcast()

	snapshot := s.sink.latest()
	s.Require().Len(snapshot.Participants, 1)
	s.Equal(model.ParticipantID("p2"), snapshot.Participants[0].ID)
}

func (s *BroadcasterSuite) TestSnapshotOrderedByJoinTime() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.Create(s.ctx, &model.Participant{
		ID: "later", Status: model.StatusInactive, JoinedAt: base.Add(time.Minute),
	}))
	s.waitForBroadcast()
	s.Require().NoError(s.storage.Create(s.ctx, &model.Participant{
		ID: "earlier", Status: model.StatusInactive, JoinedAt: base,
	}))
	s.waitForBroadcast()

	snapshot := s.sink.latest()
	s.Require().Len(snapshot.Participants, 2)
	s.Equal(model.ParticipantID("earlier"), snapshot.Participants[0].ID)
	s.Equal(model.ParticipantID("later"), snapshot.Participants[1].ID)
}

func (s *BroadcasterSuite) TestStopsWhenFeedCloses() {
	done := make(chan struct{})
	b := New(s.storage, s.sink, testutil.NopLogger())
	go func() {
		b.Run(context.Background())
		close(done)
	}()

	_ = s.storage.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.FailNow("broadcaster did not stop when feed closed")
	}
}
