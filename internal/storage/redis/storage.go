package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lexc24/tictactoe/internal/model"
	"github.com/lexc24/tictactoe/internal/storage"
)

// deleteRetries bounds retry attempts for unconditional deletes that lose
// a WATCH race. Conditional updates are never retried here; that policy
// belongs to the caller.
const deleteRetries = 3

// Storage is a Redis-backed implementation of the storage interface.
//
// Each participant is a JSON blob under its own key, with one ZSET per
// status scored by join time serving as the ordered secondary index.
// Create-if-absent and compare-and-swap semantics are built on WATCH
// transactions keyed on the participant record.
type Storage struct {
	client *redis.Client
	feed   *storage.Feed
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{client: client, feed: storage.NewFeed()}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client) *Storage {
	return &Storage{client: client, feed: storage.NewFeed()}
}

// Close closes the Redis connection and the change feed
func (s *Storage) Close() error {
	s.feed.Close()
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

func (s *Storage) Create(ctx context.Context, p *model.Participant) error {
	key := participantKey(p.ID)
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return model.ErrParticipantExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, statusIndexKey(p.Status), redis.Z{
				Score:  joinedAtScore(p.JoinedAt),
				Member: string(p.ID),
			})
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		// Lost the race to a concurrent create of the same ID
		return model.ErrParticipantExists
	}
	if err != nil {
		return err
	}

	s.feed.Publish(model.ChangeEvent{Kind: model.ChangeInsert, Participant: *p})
	return nil
}

func (s *Storage) Get(ctx context.Context, id model.ParticipantID) (*model.Participant, error) {
	return s.get(ctx, s.client, id)
}

func (s *Storage) get(ctx context.Context, c redis.Cmdable, id model.ParticipantID) (*model.Participant, error) {
	data, err := c.Get(ctx, participantKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrParticipantNotFound
		}
		return nil, err
	}

	var p model.Participant
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Storage) Update(ctx context.Context, id model.ParticipantID, upd storage.Update, cond *storage.Condition) error {
	key := participantKey(id)
	var after model.Participant

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		p, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if cond != nil && p.Status != cond.StatusEquals {
			return model.ErrConditionFailed
		}

		before := *p
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
		after = *p

		data, err := json.Marshal(p)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if before.Status != after.Status {
				pipe.ZRem(ctx, statusIndexKey(before.Status), string(id))
			}
			pipe.ZAdd(ctx, statusIndexKey(after.Status), redis.Z{
				Score:  joinedAtScore(after.JoinedAt),
				Member: string(id),
			})
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		// The record changed between read and write; surface the
		// optimistic-concurrency rejection rather than retrying blindly
		return model.ErrConditionFailed
	}
	if err != nil {
		return err
	}

	s.feed.Publish(model.ChangeEvent{Kind: model.ChangeModify, Participant: after})
	return nil
}

func (s *Storage) Delete(ctx context.Context, id model.ParticipantID) error {
	key := participantKey(id)
	var removed model.Participant

	var err error
	for attempt := 0; attempt < deleteRetries; attempt++ {
		err = s.client.Watch(ctx, func(tx *redis.Tx) error {
			p, err := s.get(ctx, tx, id)
			if err != nil {
				return err
			}
			removed = *p

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				pipe.ZRem(ctx, statusIndexKey(p.Status), string(id))
				return nil
			})
			return err
		}, key)

		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return err
	}

	s.feed.Publish(model.ChangeEvent{Kind: model.ChangeRemove, Participant: removed})
	return nil
}

func (s *Storage) ListByStatus(ctx context.Context, status model.Status, limit int) ([]*model.Participant, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := s.client.ZRange(ctx, statusIndexKey(status), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	return s.fetchAll(ctx, ids)
}

func (s *Storage) CountByStatus(ctx context.Context, status model.Status) (int, error) {
	n, err := s.client.ZCard(ctx, statusIndexKey(status)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Storage) ScanAll(ctx context.Context) ([]*model.Participant, error) {
	active, err := s.ListByStatus(ctx, model.StatusActive, 0)
	if err != nil {
		return nil, err
	}
	inactive, err := s.ListByStatus(ctx, model.StatusInactive, 0)
	if err != nil {
		return nil, err
	}
	return append(active, inactive...), nil
}

func (s *Storage) Subscribe() <-chan model.ChangeEvent {
	return s.feed.Subscribe()
}

// fetchAll loads participant records for the given IDs, skipping any that
// were deleted between the index read and the fetch
func (s *Storage) fetchAll(ctx context.Context, ids []string) ([]*model.Participant, error) {
	if len(ids) == 0 {
		return []*model.Participant{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, participantKey(model.ParticipantID(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	participants := make([]*model.Participant, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		var p model.Participant
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		participants = append(participants, &p)
	}
	return participants, nil
}

// joinedAtScore maps a join timestamp onto a ZSET score. Nanosecond
// precision keeps distinct joins distinct; exact ties fall back to the
// ZSET's lexical member ordering, which matches the ID tie-break.
func joinedAtScore(t time.Time) float64 {
	return float64(t.UnixNano())
}
