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
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/market-exporter/exporter/config"
	redis_db "github.com/market-exporter/exporter/internal/redis-db"
	"github.com/market-exporter/exporter/model"
)

// TaskExportStep is the task type processed by the step worker.
const TaskExportStep = "export:step"

const startTaskID = "export:start"

// Queue schedules export steps on asynq.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
	queueName string
	stepDelay time.Duration
}

// StepTaskPayload identifies the step a task was scheduled for. The worker always
// resumes from the persisted progress; the payload makes task ids unique per step.
type StepTaskPayload struct {
	JobID      string `json:"job_id"`
	Step       uint   `json:"step"`
	TotalSteps uint   `json:"total_steps"`
}

// NewQueue connects the queue client to the configured Redis.
//
// Parameters:
// - conf *config.Configuration: The configuration for the queue.
//
// Returns:
// - *Queue: A pointer to the newly created Queue instance.
// - error: An error if the Redis DSN cannot be parsed.
func NewQueue(conf *config.Configuration) (*Queue, error) {
	queueOptions, err := redis_db.AsynqConnOpt(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis url: %w", err)
	}

	return &Queue{
		Client:    asynq.NewClient(queueOptions),
		Inspector: asynq.NewInspector(queueOptions),
		queueName: conf.Queue.ExportQueue,
		stepDelay: time.Duration(conf.Queue.StepDelaySec) * time.Second,
	}, nil
}

func stepTaskID(jobID string, step uint) string {
	return fmt.Sprintf("export:%s:%d", jobID, step)
}

// NewStepTask builds the task for the step after result. A nil result builds the
// task that starts a new job.
func NewStepTask(queueName string, result *model.StepResult, delay time.Duration) (*asynq.Task, error) {
	payload := StepTaskPayload{}
	taskID := startTaskID
	if result != nil {
		payload = StepTaskPayload{JobID: result.JobID, Step: result.Step, TotalSteps: result.TotalSteps}
		taskID = stepTaskID(result.JobID, result.Step)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	opts := []asynq.Option{
		asynq.TaskID(taskID),
		asynq.Queue(queueName),
		asynq.MaxRetry(3),
		asynq.Timeout(stepLockTTL),
	}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}
	return asynq.NewTask(TaskExportStep, raw, opts...), nil
}

func (q *Queue) enqueue(ctx context.Context, task *asynq.Task) error {
	ctx, span := tracer.Start(ctx, "Enqueueing export step")
	defer span.End()

	info, err := q.Client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued export step: %s", info.ID)
	return nil
}

// ScheduleNextStep enqueues the step following result after the configured delay.
// Scheduling the same step twice is a no-op.
func (q *Queue) ScheduleNextStep(ctx context.Context, result *model.StepResult) error {
	task, err := NewStepTask(q.queueName, result, q.stepDelay)
	if err != nil {
		return err
	}
	return q.enqueue(ctx, task)
}

// EnqueueStart enqueues the first step of a new job.
func (q *Queue) EnqueueStart(ctx context.Context) error {
	task, err := NewStepTask(q.queueName, nil, 0)
	if err != nil {
		return err
	}
	return q.enqueue(ctx, task)
}

func (q *Queue) Close() error {
	if err := q.Inspector.Close(); err != nil {
		return err
	}
	return q.Client.Close()
}

// CronSpec converts the regeneration setting into an asynq cron spec.
func CronSpec(schedule string) (string, bool) {
	switch schedule {
	case config.CronHourly:
		return "@every 1h", true
	case config.CronTwiceDaily:
		return "@every 12h", true
	case config.CronDaily:
		return "@daily", true
	default:
		return "", false
	}
}

// NewPeriodicScheduler registers the periodic regeneration task. It returns nil when
// regeneration is disabled.
func NewPeriodicScheduler(conf *config.Configuration) (*asynq.Scheduler, error) {
	spec, ok := CronSpec(conf.Feed.Misc.Cron)
	if !ok {
		return nil, nil
	}

	queueOptions, err := redis_db.AsynqConnOpt(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}

	task, err := NewStepTask(conf.Queue.ExportQueue, nil, 0)
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(queueOptions, &asynq.SchedulerOpts{
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
				log.Printf("periodic export enqueue failed: %v", err)
			}
		},
	})
	if _, err := scheduler.Register(spec, task); err != nil {
		return nil, err
	}
	return scheduler, nil
}

// ProcessStepTask is the asynq handler for TaskExportStep. Conditions a retry cannot
// fix are not retried.
func (e *Exporter) ProcessStepTask(ctx context.Context, task *asynq.Task) error {
	var payload StepTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	result, err := e.RunNextStep(ctx)
	switch {
	case err == nil:
		log.Printf(" [*] Export step %d of %d done (job %s)", result.Step, result.TotalSteps, result.JobID)
		return nil
	case errors.Is(err, ErrJobBusy), errors.Is(err, ErrProgressMismatch), errors.Is(err, ErrJobCancelled):
		log.Printf("export step skipped: %v", err)
		return nil
	case errors.Is(err, ErrUnsupportedCurrency), errors.Is(err, ErrNoProductsFound):
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		return err
	}
}
