package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lexc24/tictactoe/internal/model"
	"github.com/lexc24/tictactoe/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Records live in a map keyed by participant ID; the status-partitioned,
// time-ordered index is computed per query, which is fine at the scale of
// one queue per process.
type Storage struct {
	mu           sync.RWMutex
	participants map[model.ParticipantID]*model.Participant
	feed         *storage.Feed
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		participants: make(map[model.ParticipantID]*model.Participant),
		feed:         storage.NewFeed(),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

func (s *Storage) Create(ctx context.Context, p *model.Participant) error {
	s.mu.Lock()
	if _, ok := s.participants[p.ID]; ok {
		s.mu.Unlock()
		return model.ErrParticipantExists
	}
	stored := *p
	s.participants[p.ID] = &stored
	s.mu.Unlock()

	s.feed.Publish(model.ChangeEvent{Kind: model.ChangeInsert, Participant: stored})
	return nil
}

func (s *Storage) Get(ctx context.Context, id model.ParticipantID) (*model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, model.ErrParticipantNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *Storage) Update(ctx context.Context, id model.ParticipantID, upd storage.Update, cond *storage.Condition) error {
	s.mu.Lock()
	p, ok := s.participants[id]
	if !ok {
		s.mu.Unlock()
		return model.ErrParticipantNotFound
	}
	if cond != nil && p.Status != cond.StatusEquals {
		s.mu.Unlock()
		return model.ErrConditionFailed
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.ClearMarker {
		p.Marker = ""
	} else if upd.Marker != nil {
		p.Marker = *upd.Marker
	}
	if upd.JoinedAt != nil {
		p.JoinedAt = *upd.JoinedAt
	}
	if upd.Username != nil {
		p.Username = *upd.Username
	}
	after := *p
	s.mu.Unlock()

	s.feed.Publish(model.ChangeEvent{Kind: model.ChangeModify, Participant: after})
	return nil
}

func (s *Storage) Delete(ctx context.Context, id model.ParticipantID) error {
	s.mu.Lock()
	p, ok := s.participants[id]
	if !ok {
		s.mu.Unlock()
		return model.ErrParticipantNotFound
	}
	removed := *p
	delete(s.participants, id)
	s.mu.Unlock()

	s.feed.Publish(model.ChangeEvent{Kind: model.ChangeRemove, Participant: removed})
	return nil
}

func (s *Storage) ListByStatus(ctx context.Context, status model.Status, limit int) ([]*model.Participant, error) {
	s.mu.RLock()
	matched := make([]*model.Participant, 0)
	for _, p := range s.participants {
		if p.Status == status {
			copied := *p
			matched = append(matched, &copied)
		}
	}
	s.mu.RUnlock()

	sortByJoinedAt(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Storage) CountByStatus(ctx context.Context, status model.Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.participants {
		if p.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *Storage) ScanAll(ctx context.Context) ([]*model.Participant, error) {
	s.mu.RLock()
	all := make([]*model.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		copied := *p
		all = append(all, &copied)
	}
	s.mu.RUnlock()

	sortByJoinedAt(all)
	return all, nil
}

func (s *Storage) Subscribe() <-chan model.ChangeEvent {
	return s.feed.Subscribe()
}

func (s *Storage) Close() error {
	s.feed.Close()
	return nil
}

// sortByJoinedAt orders participants by join time ascending, with ID as a
// stable tie-break
func sortByJoinedAt(participants []*model.Participant) {
	sort.Slice(participants, func(i, j int) bool {
		if !participants[i].JoinedAt.Equal(participants[j].JoinedAt) {
			return participants[i].JoinedAt.Before(participants[j].JoinedAt)
		}
		return participants[i].ID < participants[j].ID
	})
}
