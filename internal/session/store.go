package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionTTL bounds how long an abandoned live session survives in the
// store before it expires on its own.
const sessionTTL = 24 * time.Hour

// Store is the opaque key-value session store live exam state is
// mirrored to. Sessions are keyed by id with a per-user index for the
// dashboard's active/paused lookups.
type Store interface {
	Save(ctx context.Context, state *State) error
	Get(ctx context.Context, sessionID string) (*State, error)
	Delete(ctx context.Context, sessionID string) error

	// ActiveForUser returns the user's non-paused session, if any
	// (page-refresh recovery). ErrSessionNotFound when there is none.
	ActiveForUser(ctx context.Context, username string) (*State, error)
	// PausedForUser lists the user's paused sessions for the dashboard.
	PausedForUser(ctx context.Context, username string) ([]*State, error)
	// CleanupActiveForUser removes the user's non-paused sessions;
	// paused ones are kept. Returns how many were removed.
	CleanupActiveForUser(ctx context.Context, username string) (int, error)
}

type redisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore builds the production session store on go-redis.
func NewRedisStore(client *redis.Client, logger *slog.Logger) Store {
	return &redisStore{client: client, logger: logger}
}

func sessionKey(id string) string { return "session:" + id }

func userIndexKey(user string) string { return "user_sessions:" + user }

func (s *redisStore) Save(ctx context.Context, state *State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(state.SessionID), payload, sessionTTL)
	pipe.SAdd(ctx, userIndexKey(state.Username), state.SessionID)
	pipe.Expire(ctx, userIndexKey(state.Username), sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session %s: %w", state.SessionID, err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, sessionID string) (*State, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &state, nil
}

func (s *redisStore) Delete(ctx context.Context, sessionID string) error {
	state, err := s.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userIndexKey(state.Username), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

func (s *redisStore) ActiveForUser(ctx context.Context, username string) (*State, error) {
	states, err := s.statesForUser(ctx, username)
	if err != nil {
		return nil, err
	}
	for _, state := range states {
		if !state.IsPaused {
			return state, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (s *redisStore) PausedForUser(ctx context.Context, username string) ([]*State, error) {
	states, err := s.statesForUser(ctx, username)
	if err != nil {
		return nil, err
	}
	var paused []*State
	for _, state := range states {
		if state.IsPaused {
			paused = append(paused, state)
		}
	}
	return paused, nil
}

func (s *redisStore) CleanupActiveForUser(ctx context.Context, username string) (int, error) {
	states, err := s.statesForUser(ctx, username)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, state := range states {
		if state.IsPaused {
			continue
		}
		if err := s.Delete(ctx, state.SessionID); err != nil {
			s.logger.Error("Failed to clean up stale session",
				"session_id", state.SessionID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// statesForUser resolves the user's session index, dropping entries
// whose session key has already expired.
func (s *redisStore) statesForUser(ctx context.Context, username string) ([]*State, error) {
	ids, err := s.client.SMembers(ctx, userIndexKey(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for %s: %w", username, err)
	}

	var states []*State
	for _, id := range ids {
		state, err := s.Get(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			s.client.SRem(ctx, userIndexKey(username), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}
