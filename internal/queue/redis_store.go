package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/luisherrera/milltrack-agent/pkg/enums"
)

// kv is the minimal command surface the redis store needs.
type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisStore keeps the whole queue as one JSON array under a fixed key, the
// same record layout the UI layer reads. A missing or unparsable value is
// treated as an empty queue; a transport error is not, since writing an
// empty list back over an unreadable key would drop every queued submission.
// The agent is the only writer of the key, so read-modify-write without a
// transaction is safe.
type RedisStore struct {
	kv  kv
	key string
}

func NewRedisStore(kv kv, storageKey string) *RedisStore {
	return &RedisStore{kv: kv, key: storageKey}
}

func (s *RedisStore) load(ctx context.Context) ([]Submission, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, redislib.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading queue key: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	var subs []Submission
	if err := json.Unmarshal([]byte(raw), &subs); err != nil {
		return nil, nil
	}
	return subs, nil
}

func (s *RedisStore) save(ctx context.Context, subs []Submission) error {
	if len(subs) == 0 {
		err := s.kv.Del(ctx, s.key)
		if errors.Is(err, redislib.Nil) {
			return nil
		}
		return err
	}
	raw, err := json.Marshal(subs)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key, string(raw), 0)
}

func (s *RedisStore) Enqueue(ctx context.Context, sub Submission) error {
	subs, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.save(ctx, append(subs, sub))
}

func (s *RedisStore) ListAll(ctx context.Context) ([]Submission, error) {
	return s.load(ctx)
}

func (s *RedisStore) Remove(ctx context.Context, id string) error {
	subs, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i, sub := range subs {
		if sub.ID == id {
			return s.save(ctx, append(subs[:i], subs[i+1:]...))
		}
	}
	return nil
}

func (s *RedisStore) UpdateStatus(ctx context.Context, id string, status enums.SubmissionStatus, errorMessage string) error {
	return s.mutate(ctx, id, func(sub *Submission) {
		sub.Status = status
		sub.ErrorMessage = errorMessage
	})
}

func (s *RedisStore) IncrementRetry(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(sub *Submission) {
		sub.RetryCount++
	})
}

func (s *RedisStore) ResetForRetry(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(sub *Submission) {
		sub.Status = enums.SubmissionStatusPending
		sub.RetryCount = 0
		sub.ErrorMessage = ""
	})
}

func (s *RedisStore) mutate(ctx context.Context, id string, apply func(*Submission)) error {
	subs, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i := range subs {
		if subs[i].ID == id {
			apply(&subs[i])
			return s.save(ctx, subs)
		}
	}
	return nil
}

func (s *RedisStore) CountByStatus(ctx context.Context, status enums.SubmissionStatus) (int, error) {
	subs, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, sub := range subs {
		if sub.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *RedisStore) ClearAll(ctx context.Context) error {
	return s.save(ctx, nil)
}

func (s *RedisStore) ClearWhere(ctx context.Context, status enums.SubmissionStatus) error {
	subs, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := subs[:0]
	for _, sub := range subs {
		if sub.Status != status {
			kept = append(kept, sub)
		}
	}
	return s.save(ctx, kept)
}
