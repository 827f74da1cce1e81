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

package redis_db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected *redis.Options
		tls      bool
		wantErr  bool
	}{
		{
			name:     "simple docker style",
			url:      "redis:6379",
			expected: &redis.Options{Addr: "redis:6379"},
		},
		{
			name:     "redis url with password",
			url:      "redis://:password123@localhost:6379",
			expected: &redis.Options{Addr: "localhost:6379", Password: "password123"},
		},
		{
			name:     "password without leading colon",
			url:      "redis://secret@cache.internal:6379",
			expected: &redis.Options{Addr: "cache.internal:6379", Password: "secret"},
		},
		{
			name:     "tls url",
			url:      "rediss://:secret@cache.internal:6380",
			expected: &redis.Options{Addr: "cache.internal:6380", Password: "secret"},
			tls:      true,
		},
		{
			name:    "empty",
			url:     "  ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRedisURL(tt.url, true)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected.Addr, got.Addr)
			assert.Equal(t, tt.expected.Password, got.Password)
			if tt.tls {
				require.NotNil(t, got.TLSConfig)
				assert.True(t, got.TLSConfig.InsecureSkipVerify)
			} else {
				assert.Nil(t, got.TLSConfig)
			}
		})
	}
}

func TestAsynqConnOpt(t *testing.T) {
	opt, err := AsynqConnOpt("redis://:pw@localhost:6379/2", false)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.DB)
}

func TestNewRedisClient(t *testing.T) {
	s := miniredis.RunT(t)

	_, err := NewRedisClient([]string{}, false)
	assert.Error(t, err)

	client, err := NewRedisClient([]string{s.Addr()}, false)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Client().Set(ctx, "test_key", "test_value", time.Minute).Err())

	got, err := client.Client().Get(ctx, "test_key").Result()
	require.NoError(t, err)
	assert.Equal(t, "test_value", got)

	require.NoError(t, client.Client().Del(ctx, "test_key").Err())
	_, err = client.Client().Get(ctx, "test_key").Result()
	assert.Equal(t, redis.Nil, err)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := NewRedisClient([]string{addr}, false)
	assert.Error(t, err)
}
