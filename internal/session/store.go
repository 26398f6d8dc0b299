// Package session keeps transient login state in Redis, keyed by an opaque
// token. A session holds nothing but the user it belongs to; everything else
// about the user is read from the database per request.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"terramap/api/internal/ids"
)

var ErrSessionNotFound = errors.New("session not found")

type Session struct {
	ID     string
	UserID string
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func sessionKey(id string) string { return "session:" + id }

func userIndexKey(userID string) string { return "user:sessions:" + userID }

func (s *Store) Create(ctx context.Context, userID string) (Session, error) {
	sess := Session{ID: ids.New(), UserID: userID}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(sess.ID), userID, s.ttl)
	pipe.SAdd(ctx, userIndexKey(userID), sess.ID)
	pipe.Expire(ctx, userIndexKey(userID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	userID, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return Session{ID: id, UserID: userID}, nil
}

// Delete destroys a session. Destroying an absent session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	userID, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("delete session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, userIndexKey(userID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUser revokes every session of a user, e.g. when an admin deletes
// the account.
func (s *Store) DeleteByUser(ctx context.Context, userID string) error {
	sessionIDs, err := s.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("list user sessions: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, id := range sessionIDs {
		pipe.Del(ctx, sessionKey(id))
	}
	pipe.Del(ctx, userIndexKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}
