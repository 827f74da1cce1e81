/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package jobstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/market-exporter/exporter/model"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKey = "export:job-state"
	DefaultTTL = 5 * time.Minute
)

// Store persists the progress of the running export. A missing key means no export
// is running; the TTL lets an abandoned export expire on its own.
type Store struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

func NewStore(client redis.UniversalClient) *Store {
	return &Store{client: client, key: DefaultKey, ttl: DefaultTTL}
}

// WithKey returns a copy of the store bound to another key.
func (s *Store) WithKey(key string) *Store {
	c := *s
	c.key = key
	return &c
}

// WithTTL returns a copy of the store using another expiry.
func (s *Store) WithTTL(ttl time.Duration) *Store {
	c := *s
	c.ttl = ttl
	return &c
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the stored state, or nil when no export is running.
func (s *Store) Get(ctx context.Context) (*model.JobState, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading job state: %w", err)
	}

	var state model.JobState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("error decoding job state: %w", err)
	}
	return &state, nil
}

// Set writes the state and restarts its TTL.
func (s *Store) Set(ctx context.Context, state *model.JobState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("error saving job state: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("error clearing job state: %w", err)
	}
	return nil
}
