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
	"sync"
	"time"

	"github.com/market-exporter/exporter/model"
	"github.com/sirupsen/logrus"
)

// StepRecoveryProcessor reschedules the pending step of a job whose chain of step
// tasks was lost, for example when the queue was flushed or a worker died between
// writing a page and enqueueing the next one.
type StepRecoveryProcessor struct {
	exporter       *Exporter
	pollInterval   time.Duration
	stuckThreshold time.Duration
	stopCh         chan struct{}
	wg             sync.WaitGroup
	running        bool
	mu             sync.Mutex
}

func NewStepRecoveryProcessor(e *Exporter, stepDelay time.Duration) *StepRecoveryProcessor {
	return &StepRecoveryProcessor{
		exporter:       e,
		pollInterval:   30 * time.Second,
		stuckThreshold: stepDelay + time.Minute,
		stopCh:         make(chan struct{}),
	}
}

func (p *StepRecoveryProcessor) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()

	logrus.Info("Export step recovery processor started")
}

func (p *StepRecoveryProcessor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	logrus.Info("Export step recovery processor stopped")
}

func (p *StepRecoveryProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *StepRecoveryProcessor) run(ctx context.Context) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Export step recovery processor context cancelled")
			return
		case <-p.stopCh:
			logrus.Info("Export step recovery processor stop signal received")
			return
		case <-ticker.C:
			if _, err := p.exporter.RecoverStalledJob(ctx, p.stuckThreshold); err != nil {
				logrus.Errorf("failed to recover export job: %v", err)
			}
		}
	}
}

// RecoverStalledJob schedules the pending step of a job that has not advanced for
// longer than threshold. A job whose step is running right now is left alone.
//
// Returns:
// - bool: Whether a step was scheduled.
// - error: A state store or queue failure.
func (e *Exporter) RecoverStalledJob(ctx context.Context, threshold time.Duration) (bool, error) {
	if e.scheduler == nil {
		return false, nil
	}

	state, err := e.state.Get(ctx)
	if err != nil || state == nil {
		return false, err
	}
	if e.now().Sub(state.UpdatedAt) < threshold {
		return false, nil
	}

	held, err := e.redis.Exists(ctx, stepLockKey).Result()
	if err != nil {
		return false, err
	}
	if held > 0 {
		return false, nil
	}

	result := stepResult(state, model.ResultOK)
	if err := e.scheduler.ScheduleNextStep(ctx, result); err != nil {
		return false, err
	}
	logrus.WithField("job", state.JobID).Warnf("export stalled at step %d of %d, step rescheduled", state.Step, state.TotalSteps)
	return true, nil
}
