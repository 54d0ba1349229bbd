/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultRedisPrefix namespaces record keys.
const DefaultRedisPrefix = "moosic:track:"

// RedisStore implements Store with one JSON string per record.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client, prefix string, logger zerolog.Logger) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, logger: logger}
}

func (s *RedisStore) key(compositeKey string) string {
	return s.prefix + compositeKey
}

// Put writes one record.
func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", rec.CompositeKey, err)
	}
	if err := s.client.Set(ctx, s.key(rec.CompositeKey), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// BatchPut pipelines one SET per record. Commands that failed inside the
// pipeline are returned as unprocessed.
func (s *RedisStore) BatchPut(ctx context.Context, recs []Record) ([]Record, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StatusCmd, len(recs))
	for i, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", rec.CompositeKey, err)
		}
		cmds[i] = pipe.Set(ctx, s.key(rec.CompositeKey), data, 0)
	}

	_, execErr := pipe.Exec(ctx)
	if execErr == nil {
		return nil, nil
	}

	var unprocessed []Record
	for i, cmd := range cmds {
		if cmd.Err() != nil {
			unprocessed = append(unprocessed, recs[i])
		}
	}
	if len(unprocessed) == 0 {
		return nil, fmt.Errorf("redis pipeline: %w", execErr)
	}
	s.logger.Debug().Err(execErr).Int("unprocessed", len(unprocessed)).Msg("redis pipeline partially failed")
	return unprocessed, nil
}

// Get reads one record.
func (s *RedisStore) Get(ctx context.Context, compositeKey string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(compositeKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", compositeKey, err)
	}
	return &rec, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
