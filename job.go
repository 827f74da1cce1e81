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
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redlock "github.com/market-exporter/exporter/internal/lock"
	"github.com/market-exporter/exporter/internal/notification"
	storagemonitor "github.com/market-exporter/exporter/internal/storage-monitor"
	"github.com/market-exporter/exporter/model"
	"github.com/sirupsen/logrus"
	"github.com/wacul/ptr"
)

const (
	// PageSize is the number of products processed by one step.
	PageSize = 200

	stepLockKey     = "export:step-lock"
	stepLockTTL     = 5 * time.Minute
	stopWaitTimeout = 30 * time.Second
)

// TotalSteps is the number of steps needed for found products.
func TotalSteps(found int) uint {
	if found <= 0 {
		return 0
	}
	return uint((found + PageSize - 1) / PageSize)
}

func (e *Exporter) pageFilter(step uint) model.ProductFilter {
	statuses := []model.StockStatus{model.StockInStock}
	if e.feed.Offer.Backorders {
		statuses = append(statuses, model.StockOnBackorder)
	}
	return model.ProductFilter{
		Limit:         PageSize,
		Offset:        int(step) * PageSize,
		StockStatuses: statuses,
		CategoryIDs:   e.feed.Offer.IncludeCat,
	}
}

func stepResult(state *model.JobState, code model.ResultCode) *model.StepResult {
	return &model.StepResult{
		JobID:      state.JobID,
		Step:       state.Step,
		TotalSteps: state.TotalSteps,
		File:       state.File,
		Code:       code,
	}
}

// RunStep processes exactly one page of the export.
//
// A call with (0,0) and no job in progress starts a new job: it resolves the currency,
// counts the products, writes the header and the first page. Later calls must pass the
// progress returned by the previous one.
//
// Parameters:
// - ctx context.Context: The context for the operation.
// - step uint: The number of pages already written.
// - total uint: The total number of pages, 0 for a new job.
//
// Returns:
// - *model.StepResult: The progress after the step and its result code.
// - error: ErrJobBusy, ErrProgressMismatch, ErrUnsupportedCurrency, ErrNoProductsFound,
// ErrJobCancelled, or a catalog or storage failure.
func (e *Exporter) RunStep(ctx context.Context, step, total uint) (*model.StepResult, error) {
	ctx, span := tracer.Start(ctx, "Running export step")
	defer span.End()

	started := time.Now()
	defer func() { stepDuration.Observe(time.Since(started).Seconds()) }()

	locker := redlock.NewLocker(e.redis, stepLockKey, uuid.NewString())
	if err := locker.Lock(ctx, stepLockTTL); err != nil {
		if errors.Is(err, redlock.ErrLockHeld) {
			stepsTotal.WithLabelValues("busy").Inc()
			return &model.StepResult{Step: step, TotalSteps: total, Code: model.ResultBusy}, fmt.Errorf("%w: %v", ErrJobBusy, err)
		}
		return nil, err
	}
	defer func() {
		if err := locker.Unlock(context.Background()); err != nil {
			logrus.Warnf("releasing step lock: %v", err)
		}
	}()

	state, err := e.state.Get(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case state == nil:
		if step != 0 || total != 0 {
			logrus.Warnf("export progress %d/%d expired, restarting from the first page", step, total)
		}
		if err := e.checkStorage(); err != nil {
			stepsTotal.WithLabelValues("failed").Inc()
			return &model.StepResult{Code: model.ResultFailed}, err
		}
		now := e.now()
		state = &model.JobState{
			JobID:     model.GenerateUUIDWithSuffix("exp"),
			Status:    model.JobPending,
			StartedAt: now,
			UpdatedAt: now,
		}
	case step == 0 && total == 0:
		stepsTotal.WithLabelValues("busy").Inc()
		return stepResult(state, model.ResultBusy), fmt.Errorf("%w: job %s is at step %d of %d", ErrJobBusy, state.JobID, state.Step, state.TotalSteps)
	case state.Step != step || state.TotalSteps != total:
		stepsTotal.WithLabelValues("mismatch").Inc()
		return stepResult(state, model.ResultBusy), fmt.Errorf("%w: requested %d/%d, persisted %d/%d", ErrProgressMismatch, step, total, state.Step, state.TotalSteps)
	}

	return e.processPage(ctx, state, locker)
}

// checkStorage refuses to start a job on a nearly full volume.
func (e *Exporter) checkStorage() error {
	if e.storage == nil {
		return nil
	}
	used, err := e.storage.Check()
	if err != nil {
		if errors.Is(err, storagemonitor.ErrStorageLimit) {
			notification.NotifyError(err)
		}
		return err
	}
	logrus.Debugf("feed storage at %.2f%%", used)
	return nil
}

func (e *Exporter) processPage(ctx context.Context, state *model.JobState, locker *redlock.Locker) (*model.StepResult, error) {
	fresh := state.IsNew()
	log := logrus.WithFields(logrus.Fields{"job": state.JobID, "step": state.Step, "total": state.TotalSteps})

	currency, err := ResolveCurrency(e.shop.Currency)
	if err != nil {
		return e.abort(ctx, state, model.ResultUnsupportedCurrency, err)
	}
	state.Currency = currency

	categories, err := e.catalog.GetCategories(ctx, e.feed.Offer.IncludeCat)
	if err != nil {
		return e.fail(ctx, state, fresh, fmt.Errorf("loading categories: %w", err))
	}
	index := NewCategoryIndex(categories)

	pageCtx, span := tracer.Start(ctx, "Fetching catalog page")
	products, found, err := e.catalog.FindProducts(pageCtx, e.pageFilter(state.Step))
	span.End()
	if err != nil {
		return e.fail(ctx, state, fresh, fmt.Errorf("loading products: %w", err))
	}
	if err := locker.ExtendLock(ctx, stepLockTTL); err != nil {
		log.Warnf("extending step lock: %v", err)
	}

	if fresh {
		// The working file and the state belong to any job started meanwhile.
		current, err := e.state.Get(ctx)
		if err != nil {
			return nil, err
		}
		if current != nil {
			stepsTotal.WithLabelValues("cancelled").Inc()
			return stepResult(current, model.ResultBusy), ErrJobCancelled
		}
		if found == 0 {
			return e.abort(ctx, state, model.ResultNoProductsFound, ErrNoProductsFound)
		}

		state.TotalSteps = TotalSteps(found)
		state.Status = model.JobRunning

		path, err := e.sink.Append(e.writer.Header(currency, index, e.now()), true)
		if err != nil {
			return e.abort(ctx, state, model.ResultFailed, err)
		}
		state.File = path
		e.recordRun(ctx, state, "")
		log.WithField("products", found).Infof("export started, %d steps", state.TotalSteps)
	} else if state.Offset > 0 {
		// A retried step drops whatever an earlier attempt wrote past the saved progress.
		if err := e.sink.Rewind(state.Offset); err != nil {
			return e.abort(ctx, state, model.ResultFailed, err)
		}
	}

	offers := make([]model.Offer, 0, len(products))
	for i := range products {
		offers = append(offers, e.builder.Build(&products[i], currency, index)...)
	}
	if _, err := e.sink.Append(e.writer.Offers(offers), false); err != nil {
		return e.abort(ctx, state, model.ResultFailed, err)
	}
	offset, err := e.sink.Size()
	if err != nil {
		return e.abort(ctx, state, model.ResultFailed, err)
	}

	current, err := e.state.Get(ctx)
	if err != nil {
		return nil, err
	}
	if (fresh && current != nil) || (!fresh && (current == nil || current.JobID != state.JobID)) {
		if current == nil {
			_ = e.sink.Discard()
		}
		stepsTotal.WithLabelValues("cancelled").Inc()
		return stepResult(state, model.ResultFailed), ErrJobCancelled
	}

	state.Step++
	state.Offset = offset
	state.Offers += len(offers)
	state.UpdatedAt = e.now()
	offersTotal.Add(float64(len(offers)))
	stepsTotal.WithLabelValues("ok").Inc()
	log.WithField("offers", len(offers)).Infof("page %d of %d written", state.Step, state.TotalSteps)

	if state.Step >= state.TotalSteps {
		return e.finish(ctx, state)
	}

	if err := e.state.Set(ctx, state); err != nil {
		return nil, err
	}
	return stepResult(state, model.ResultOK), nil
}

func (e *Exporter) finish(ctx context.Context, state *model.JobState) (*model.StepResult, error) {
	if _, err := e.sink.Append(e.writer.Footer(), false); err != nil {
		return e.abort(ctx, state, model.ResultFailed, err)
	}

	var date time.Time
	if e.feed.Misc.FileDate {
		date = e.now()
	}
	published, err := e.sink.Publish(date)
	if err != nil {
		return e.abort(ctx, state, model.ResultFailed, err)
	}

	if err := e.state.Clear(ctx); err != nil {
		logrus.Warnf("clearing job state: %v", err)
	}
	state.Status = model.JobFinished
	state.File = published
	e.recordRun(ctx, state, "")
	jobsTotal.WithLabelValues(string(model.JobFinished)).Inc()

	logrus.WithFields(logrus.Fields{"job": state.JobID, "offers": state.Offers}).Infof("export finished: %s", published)

	if e.uploader != nil {
		if key, err := e.uploader.Upload(ctx, published); err != nil {
			notification.NotifyError(fmt.Errorf("uploading feed %s: %w", published, err))
		} else {
			logrus.Infof("feed uploaded as %s", key)
		}
	}
	e.emit(ctx, "feed.published", state)

	result := stepResult(state, model.ResultOK)
	result.Finished = true
	return result, nil
}

// fail handles an error that is not fatal for a job in progress: the page can be retried.
// A job that has not written anything yet is aborted instead.
func (e *Exporter) fail(ctx context.Context, state *model.JobState, fresh bool, err error) (*model.StepResult, error) {
	if fresh {
		return e.abort(ctx, state, model.ResultFailed, err)
	}
	stepsTotal.WithLabelValues("error").Inc()
	logrus.WithField("job", state.JobID).Errorf("export step failed: %v", err)
	return stepResult(state, model.ResultFailed), err
}

func (e *Exporter) abort(ctx context.Context, state *model.JobState, code model.ResultCode, cause error) (*model.StepResult, error) {
	if err := e.sink.Discard(); err != nil {
		logrus.Warnf("discarding partial feed: %v", err)
	}
	if err := e.state.Clear(ctx); err != nil {
		logrus.Warnf("clearing job state: %v", err)
	}

	state.Status = model.JobAborted
	e.recordRun(ctx, state, cause.Error())
	stepsTotal.WithLabelValues("aborted").Inc()
	jobsTotal.WithLabelValues(string(model.JobAborted)).Inc()

	notification.NotifyError(fmt.Errorf("export %s aborted: %w", state.JobID, cause))
	e.emit(ctx, "feed.aborted", map[string]interface{}{
		"job_id": state.JobID,
		"step":   state.Step,
		"code":   code,
		"error":  cause.Error(),
	})
	return stepResult(state, code), cause
}

func (e *Exporter) recordRun(ctx context.Context, state *model.JobState, errMsg string) {
	if e.runs == nil {
		return
	}
	run := &model.ExportRun{
		RunID:     state.JobID,
		Status:    state.Status,
		Steps:     state.Step,
		Offers:    state.Offers,
		File:      state.File,
		Error:     errMsg,
		StartedAt: state.StartedAt,
	}
	if state.Status == model.JobFinished || state.Status == model.JobAborted {
		run.FinishedAt = ptr.Time(e.now())
	}
	if err := e.runs.SaveRun(ctx, run); err != nil {
		logrus.Warnf("saving export run %s: %v", state.JobID, err)
	}
}

func (e *Exporter) emit(ctx context.Context, event string, data interface{}) {
	for _, p := range e.publishers {
		if err := p.Publish(ctx, event, data); err != nil {
			logrus.Warnf("publishing %s: %v", event, err)
		}
	}
}

// RunNextStep continues the job in progress, or starts one, and schedules the step
// after it. It is the entry point of the step worker.
func (e *Exporter) RunNextStep(ctx context.Context) (*model.StepResult, error) {
	state, err := e.state.Get(ctx)
	if err != nil {
		return nil, err
	}

	var step, total uint
	if state != nil {
		step, total = state.Step, state.TotalSteps
	}

	result, err := e.RunStep(ctx, step, total)
	if err != nil {
		return result, err
	}

	if !result.Finished && e.scheduler != nil {
		if err := e.scheduler.ScheduleNextStep(ctx, result); err != nil {
			logrus.Errorf("scheduling step %d of job %s: %v", result.Step, result.JobID, err)
			return result, err
		}
	}
	return result, nil
}

// Trigger starts an export in the background. It fails with ErrJobBusy while a job runs.
func (e *Exporter) Trigger(ctx context.Context) error {
	if e.scheduler == nil {
		return errors.New("no scheduler configured")
	}
	state, err := e.state.Get(ctx)
	if err != nil {
		return err
	}
	if state != nil {
		return fmt.Errorf("%w: job %s is at step %d of %d", ErrJobBusy, state.JobID, state.Step, state.TotalSteps)
	}
	return e.scheduler.EnqueueStart(ctx)
}

// Export runs a whole job in the calling goroutine.
func (e *Exporter) Export(ctx context.Context) (*model.StepResult, error) {
	result, err := e.RunStep(ctx, 0, 0)
	for err == nil && !result.Finished {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result, err = e.RunStep(ctx, result.Step, result.TotalSteps)
	}
	return result, err
}

// Stop cancels the job in progress. It waits for a running step to finish, then
// clears the progress and discards the partial feed.
func (e *Exporter) Stop(ctx context.Context) (*model.JobState, error) {
	locker := redlock.NewLocker(e.redis, stepLockKey, uuid.NewString())
	if err := locker.WaitLock(ctx, stepLockTTL, stopWaitTimeout); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJobBusy, err)
	}
	defer func() {
		if err := locker.Unlock(context.Background()); err != nil {
			logrus.Warnf("releasing step lock: %v", err)
		}
	}()

	state, err := e.state.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.state.Clear(ctx); err != nil {
		return nil, err
	}
	if err := e.sink.Discard(); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}

	state.Status = model.JobAborted
	e.recordRun(ctx, state, "stopped")
	jobsTotal.WithLabelValues(string(model.JobAborted)).Inc()
	e.emit(ctx, "feed.aborted", map[string]interface{}{
		"job_id": state.JobID,
		"step":   state.Step,
		"error":  "stopped",
	})
	logrus.WithField("job", state.JobID).Info("export stopped")
	return state, nil
}

// Status returns the progress of the job in progress, or nil when none runs.
func (e *Exporter) Status(ctx context.Context) (*model.JobState, error) {
	return e.state.Get(ctx)
}
