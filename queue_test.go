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

package exporter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/market-exporter/exporter/config"
	"github.com/market-exporter/exporter/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, mr *miniredis.Miniredis) *Queue {
	t.Helper()
	q, err := NewQueue(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
		Queue: config.QueueConfig{ExportQueue: "export", StepDelaySec: 5},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestNewStepTask(t *testing.T) {
	result := &model.StepResult{JobID: "exp_1", Step: 2, TotalSteps: 4}

	task, err := NewStepTask("export", result, time.Second)
	require.NoError(t, err)
	assert.Equal(t, TaskExportStep, task.Type())

	var payload StepTaskPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, StepTaskPayload{JobID: "exp_1", Step: 2, TotalSteps: 4}, payload)

	start, err := NewStepTask("export", nil, 0)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(start.Payload(), &payload))
	assert.Equal(t, StepTaskPayload{}, payload)
}

func TestStepTaskID(t *testing.T) {
	assert.Equal(t, "export:exp_1:3", stepTaskID("exp_1", 3))
}

func TestQueue_ScheduleNextStep(t *testing.T) {
	mr := miniredis.RunT(t)
	q := newTestQueue(t, mr)
	result := &model.StepResult{JobID: "exp_1", Step: 1, TotalSteps: 3}

	require.NoError(t, q.ScheduleNextStep(context.Background(), result))
	assert.True(t, mr.Exists("asynq:{export}:t:export:exp_1:1"))

	assert.NoError(t, q.ScheduleNextStep(context.Background(), result), "the same step is scheduled once")
}

func TestQueue_EnqueueStart(t *testing.T) {
	mr := miniredis.RunT(t)
	q := newTestQueue(t, mr)

	require.NoError(t, q.EnqueueStart(context.Background()))
	assert.True(t, mr.Exists("asynq:{export}:t:"+startTaskID))
	assert.NoError(t, q.EnqueueStart(context.Background()))
}

func TestCronSpec(t *testing.T) {
	tests := []struct {
		schedule string
		want     string
		enabled  bool
	}{
		{schedule: config.CronHourly, want: "@every 1h", enabled: true},
		{schedule: config.CronTwiceDaily, want: "@every 12h", enabled: true},
		{schedule: config.CronDaily, want: "@daily", enabled: true},
		{schedule: config.CronDisabled},
		{schedule: "weekly"},
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			spec, ok := CronSpec(tt.schedule)
			assert.Equal(t, tt.enabled, ok)
			assert.Equal(t, tt.want, spec)
		})
	}
}

func TestNewPeriodicScheduler_Disabled(t *testing.T) {
	cnf := &config.Configuration{Feed: config.DefaultFeedConfig()}

	scheduler, err := NewPeriodicScheduler(cnf)
	require.NoError(t, err)
	assert.Nil(t, scheduler)
}
