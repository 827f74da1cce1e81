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
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// ErrStorageLimit is returned when the volume holding the feeds is fuller than allowed.
var ErrStorageLimit = errors.New("storage usage exceeds threshold")

// UsageFunc reports the used share of the volume holding path, in percent.
type UsageFunc func(path string) (float64, error)

// DiskUsage reads the usage from the operating system.
func DiskUsage(path string) (float64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.UsedPercent, nil
}

// Monitor guards the feed directory against running out of space mid-export.
type Monitor struct {
	path      string
	threshold float64
	usage     UsageFunc
}

// New returns nil when threshold is not positive, which disables the check.
func New(path string, threshold float64) *Monitor {
	return NewWithUsage(path, threshold, DiskUsage)
}

func NewWithUsage(path string, threshold float64, usage UsageFunc) *Monitor {
	if threshold <= 0 {
		return nil
	}
	return &Monitor{path: path, threshold: threshold, usage: usage}
}

// Check returns the current usage and ErrStorageLimit when it is above the threshold.
func (m *Monitor) Check() (float64, error) {
	used, err := m.usage(m.path)
	if err != nil {
		return 0, fmt.Errorf("reading disk usage of %s: %w", m.path, err)
	}
	if used > m.threshold {
		return used, fmt.Errorf("%w: %.2f%% used, limit %.2f%%", ErrStorageLimit, used, m.threshold)
	}
	return used, nil
}
