package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/lexc24/tictactoe/internal/model"
	"github.com/lexc24/tictactoe/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
	base    time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client)
	s.ctx = context.Background()
	s.base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) participant(id string, status model.Status, offset time.Duration) *model.Participant {
	return &model.Participant{
		ID:        model.ParticipantID(id),
		SessionID: "session-" + id,
		Status:    status,
		JoinedAt:  s.base.Add(offset),
	}
}

// Create tests

func (s *StorageSuite) TestCreateAndGet() {
	p := s.participant("p1", model.StatusInactive, 0)

	s.Require().NoError(s.storage.Create(s.ctx, p))

	retrieved, err := s.storage.Get(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(p.ID, retrieved.ID)
	s.Equal(p.SessionID, retrieved.SessionID)
	s.Equal(model.StatusInactive, retrieved.Status)
	s.True(p.JoinedAt.Equal(retrieved.JoinedAt))
}

func (s *StorageSuite) TestCreateDuplicateFails() {
	s.Require().NoError(s.storage.Create(s.ctx, s.participant("p1", model.StatusInactive, 0)))

	err := s.storage.Create(s.ctx, s.participant("p1", model.StatusActive, time.Hour))
	s.Require().ErrorIs(err, model.ErrParticipantExists)

	retrieved, err := s.storage.Get(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(model.StatusInactive, retrieved.Status)
}

func (s *StorageSuite) TestCreateIndexesByStatus() {
	s.Require().NoError(s.storage.Create(s.ctx, s.participant("p1", model.StatusInactive, 0)))

	count, err := s.storage.CountByStatus(s.ctx, model.StatusInactive)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *StorageSuite) TestGetNotFound() {
	_, err := s.storage.Get(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

// Update tests

func (s *StorageSuite) TestUpdateMovesIndexEntry() {
	s.Require().NoError(s.storage.Create(s.ctx, s.participant("p1", model.StatusInactive, 0)))

	status := model.StatusActive
	marker := model.MarkerA
	err := s.storage.Update(s.ctx, "p1", storage.Update{Status: &status, Marker: &marker}, nil)
	s.Require().NoError(err)

	inactive, err := s.storage.CountByStatus(s.ctx, model.StatusInactive)
	s.Require().NoError(err)
	s.Equal(0, inactive)

	active, err := s.storage.CountByStatus(s.ctx, model.StatusActive)
	s.Require().NoError(err)
	s.Equal(1, active)

	p, _ := s.storage.Get(s.ctx, "p1")
	s.Equal(model.MarkerA, p.Marker)
}

func (s *StorageSuite) TestUpdateClearsMarkerAndReorders() {
	p := s.participant("p1", model.StatusActive, 0)
	p.Marker = model.MarkerB
	s.Require().NoError(s.storage.Create(s.ctx, p))
	s.Require().NoError(s.storage.Create(s.ctx, s.participant("p2", model.StatusInactive, time.Minute)))

	status := model.StatusInactive
	later := s.base.Add(time.Hour)
	err := s.storage.Update(s.ctx, "p1", storage.Update{
		Status:      &status,
		ClearMarker: true,
		JoinedAt:    &later,
	}, nil)
	s.Require().NoError(err)

	// The demoted participant sorts behind the existing waiter
	listed, err := s.storage.ListByStatus(s.ctx, model.StatusInactive, 0)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(model.ParticipantID("p2"), listed[0].ID)
	s.Equal(model.ParticipantID("p1"), listed[1].ID)
	s.Empty(listed[1].Marker)
}

func (s *StorageSuite) TestUpdateConditionFails() {
	p := s.participant("p1", model.StatusActive, 0)
	p.Marker = model.MarkerA
	s.Require().NoError(s.storage.Create(s.ctx, p))

	status := model.StatusActive
	marker := model.MarkerB
	err := s.storage.Update(s.ctx, "p1", storage.Update{Status: &status, Marker: &marker},
		&storage.Condition{StatusEquals: model.StatusInactive})
	s.Require().ErrorIs(err, model.ErrConditionFailed)

	unchanged, _ := s.storage.Get(s.ctx, "p1")
	s.Equal(model.MarkerA, unchanged.Marker)
}

func (s *StorageSuite) TestUpdateNotFound() {
	name := "alice"
	err := s.storage.Update(s.ctx, "ghost", storage.Update{Username: &name}, nil)
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

// Delete tests

func (s *StorageSuite) TestDeleteRemovesRecordAndIndexEntry() {
	s.Require().NoError(s.storage.Create(s.ctx, s.participant("p1", model.StatusInactive, 0)))

	s.Require().NoError(s.storage.Delete(s.ctx, "p1"))

	_, err := s.storage.Get(s.ctx, "p1")
	s.ErrorIs(err, model.ErrParticipantNotFound)

	count, err := s.storage.CountByStatus(s.ctx, model.StatusInactive)
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *StorageSuite) TestDeleteNotFound() {
	err := s.storage.Delete(s.ctx, "ghost")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

// Listing tests

func (s *StorageSuite) TestListByStatusOrdersByJoinTime() {
	s.Require().NoError(s.storage.Create(s.ctx, s.participant("late", model.StatusInactive, 2*time.Minute)))
	s.Require().NoError(s.storage.Create(s.ctx, s.participant("early", model.StatusInactive, 0)))
	s.Require().NoError(s.storage.Create(s.ctx, s.participant("mid", model.StatusInactive, time.Minute)))

	listed, err := s.storage.ListByStatus(s.ctx, model.StatusInactive, 0)
	s.Require().NoError(err)

	s.Require().Len(listed, 3)
	s.Equal(model.ParticipantID("early"), listed[0].ID)
	s.Equal(model.ParticipantID("mid"), listed[1].ID)
	s.Equal(model.ParticipantID("late"), listed[2].ID)
}

func (s *StorageSuite) TestListByStatusHonorsLimit() {
	s.Require().NoError(s.storage.Create(s.ctx, s.participant("p1", model.StatusInactive, 0)))
	s.Require().NoError(s.storage.Create(s.ctx, s.participant("p2", model.StatusInactive, time.Minute)))

	listed, err := s.storage.ListByStatus(s.ctx, model.StatusInactive, 1)
	s.Require().NoError(err)

	s.Require().Len(listed, 1)
	s.Equal(model.ParticipantID("p1"), listed[0].ID)
}

func (s *StorageSuite) TestListByStatusEmpty() {
	listed, err := s.storage.ListByStatus(s.ctx, model.StatusActive, 0)
	s.Require().NoError(err)
	s.Empty(listed)
}

func (s *StorageSuite) TestScanAllActiveFirst() {
	s.Require().NoError(s.storage.Create(s.ctx, s.participant("waiter", model.StatusInactive, 0)))
	seated := s.participant("seated", model.StatusActive, time.Minute)
	seated.Marker = model.MarkerA
	s.Require().NoError(s.storage.Create(s.ctx, seated))

	all, err := s.storage.ScanAll(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(all, 2)
	s.Equal(model.ParticipantID("seated"), all[0].ID)
	s.Equal(model.ParticipantID("waiter"), all[1].ID)
}

// Change feed tests

func (s *StorageSuite) TestSubscribeSeesLifecycle() {
	events := s.storage.Subscribe()

	s.Require().NoError(s.storage.Create(s.ctx, s.participant("p1", model.StatusInactive, 0)))
	status := model.StatusActive
	marker := model.MarkerA
	s.Require().NoError(s.storage.Update(s.ctx, "p1", storage.Update{Status: &status, Marker: &marker}, nil))
	s.Require().NoError(s.storage.Delete(s.ctx, "p1"))

	ev := s.receive(events)
	s.Equal(model.ChangeInsert, ev.Kind)
	s.Equal(model.ParticipantID("p1"), ev.Participant.ID)

	ev = s.receive(events)
	s.Equal(model.ChangeModify, ev.Kind)
	s.Equal(model.StatusActive, ev.Participant.Status)

	ev = s.receive(events)
	s.Equal(model.ChangeRemove, ev.Kind)
}

func (s *StorageSuite) receive(events <-chan model.ChangeEvent) model.ChangeEvent {
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for change event")
		return model.ChangeEvent{}
	}
}
