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

package storagemonitor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedUsage(percent float64, err error) UsageFunc {
	return func(string) (float64, error) { return percent, err }
}

func TestMonitor_Check(t *testing.T) {
	tests := []struct {
		name    string
		usage   UsageFunc
		wantErr error
	}{
		{name: "below threshold", usage: fixedUsage(42.5, nil)},
		{name: "at threshold", usage: fixedUsage(90, nil)},
		{name: "above threshold", usage: fixedUsage(97.1, nil), wantErr: ErrStorageLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewWithUsage("/feeds", 90, tt.usage)
			_, err := m.Check()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMonitor_CheckUsageError(t *testing.T) {
	m := NewWithUsage("/feeds", 90, fixedUsage(0, errors.New("no such volume")))

	_, err := m.Check()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStorageLimit)
	assert.Contains(t, err.Error(), "/feeds")
}

func TestNew_Disabled(t *testing.T) {
	assert.Nil(t, New(t.TempDir(), 0))
}

func TestDiskUsage(t *testing.T) {
	used, err := DiskUsage(t.TempDir())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, used, 0.0)
	assert.LessOrEqual(t, used, 100.0)
}
