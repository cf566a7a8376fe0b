/*
Copyright The Flotilla Contributors

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

// Package helm orchestrates parallel release rollouts. Each service runs
// its own state machine inside a bounded worker pool; outcomes aggregate
// into one report with explicit partial-failure semantics, never fail-fast
// across services.
package helm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/flotilla-dev/flotilla/pkg/log"
	"github.com/flotilla-dev/flotilla/pkg/notify"
)

const defaultPollInterval = 10 * time.Second

// ParallelOptions tunes one orchestration run
type ParallelOptions struct {
	// MaxParallel is the worker pool size; admission blocks when the pool
	// is full. Never auto-detected.
	MaxParallel int

	// PollInterval between rollout status checks while waiting
	PollInterval time.Duration

	// Notifier receives one outcome event per dispatched service. Sinks
	// must not block; wrap slow ones in notify.Async.
	Notifier notify.Notifier
}

// ParallelUpgrade runs every item to a terminal phase through a pool of at
// most MaxParallel workers. One service failing or timing out never cancels
// the others; the report enumerates all outcomes. The input order is the
// dispatch order: callers wanting dependency order sort beforehand.
func ParallelUpgrade(
	ctx context.Context,
	executor Executor,
	items []*UpgradeData,
	opts ParallelOptions,
) *RolloutReport {
	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard{}
	}

	pool := semaphore.NewWeighted(int64(opts.MaxParallel))
	var workers sync.WaitGroup

	for _, item := range items {
		if item.Terminal() {
			// pre-skipped entries carry their reason into the report
			continue
		}
		workers.Add(1)
		go func(u *UpgradeData) {
			defer workers.Done()
			if err := pool.Acquire(ctx, 1); err != nil {
				u.Phase = PhaseFailed
				u.Error = fmt.Sprintf("never dispatched: %s", err)
				return
			}
			defer pool.Release(1)

			runRollout(ctx, executor, u, opts.PollInterval)
			emitOutcome(ctx, opts.Notifier, u)
		}(item)
	}
	workers.Wait()

	report := &RolloutReport{Items: items}
	log.Info("rollout finished", "report", report.Summary())
	return report
}

// runRollout owns one release from dispatch to its terminal phase
func runRollout(ctx context.Context, executor Executor, u *UpgradeData, interval time.Duration) {
	logger := log.WithValues("service", u.Name, "region", u.Region, "id", u.ID.String())

	u.Phase = PhaseDispatched
	u.Started = time.Now()
	defer func() {
		u.Elapsed = time.Since(u.Started).Round(time.Second)
	}()

	switch u.Mode {
	case ModeDiff:
		logger.Info("diffing release", "version", u.Version)
		output, err := executor.Diff(ctx, u)
		u.DiffOutput = output
		if err != nil {
			u.Phase = PhaseFailed
			u.Error = (&UpgradeFailedError{Service: u.Name, Output: output}).Error()
			return
		}
		u.Phase = PhaseSucceeded
		return

	case ModeRollback:
		logger.Info("rolling back release")
		output, err := executor.Rollback(ctx, u)
		if err != nil {
			u.Phase = PhaseFailed
			u.Error = fmt.Sprintf("rollback of %s failed: %s", u.Name, output)
			return
		}
		u.Phase = PhaseRolledBack
		return
	}

	logger.Info("upgrading release",
		"version", u.Version, "waitSeconds", u.WaitSeconds, "mode", u.Mode.String())
	output, err := executor.Upgrade(ctx, u)
	if err != nil {
		failure := &UpgradeFailedError{Service: u.Name, Output: output}
		logger.Error(failure, "helm rejected the release", "output", output)
		u.Phase = PhaseFailed
		u.Error = failure.Error()
		maybeRollback(ctx, executor, u, logger)
		return
	}

	if !u.Mode.Waits() {
		u.Phase = PhaseSucceeded
		return
	}

	u.Phase = PhaseWaitingRollout
	logger.Info("waiting for rollout", "budgetSeconds", u.WaitSeconds)
	err = wait.PollUntilContextTimeout(ctx, interval, time.Duration(u.WaitSeconds)*time.Second, true,
		func(ctx context.Context) (bool, error) {
			return executor.RolloutStatus(ctx, u)
		},
	)
	switch {
	case err == nil:
		u.Phase = PhaseSucceeded
		logger.Info("rollout succeeded", "version", u.Version)

	case ctx.Err() != nil:
		// the whole run was cancelled, not this service's budget
		u.Phase = PhaseFailed
		u.Error = fmt.Sprintf("rollout wait aborted: %s", ctx.Err())

	case wait.Interrupted(err):
		// the budget ran out; the underlying rollout keeps going
		timeout := &UpgradeTimeoutError{Service: u.Name, Budget: u.WaitSeconds}
		logger.Error(timeout, "rollout exceeded its wait budget")
		u.Phase = PhaseTimedOut
		u.Error = timeout.Error()
		maybeRollback(ctx, executor, u, logger)

	default:
		logger.Error(err, "rollout status check failed")
		u.Phase = PhaseFailed
		u.Error = err.Error()
		maybeRollback(ctx, executor, u, logger)
	}
}

// maybeRollback reverts a failed or timed-out release when the mode asks
// for it. The failure reason is kept; a forced rollback is not a success.
func maybeRollback(ctx context.Context, executor Executor, u *UpgradeData, logger log.Logger) {
	if !u.Mode.RollsBack() {
		return
	}
	logger.Info("rolling back after failure", "reason", u.Error)
	if output, err := executor.Rollback(ctx, u); err != nil {
		logger.Error(err, "rollback failed", "output", output)
		u.Error = fmt.Sprintf("%s; rollback also failed: %s", u.Error, output)
		return
	}
	u.Phase = PhaseRolledBack
}

// emitOutcome hands the terminal state to the notification sink. Delivery
// problems are logged, never allowed back into the state machine.
func emitOutcome(ctx context.Context, notifier notify.Notifier, u *UpgradeData) {
	event := notify.Event{
		Service:         u.Name,
		Region:          u.Region,
		Namespace:       u.Namespace,
		Version:         u.Version,
		PreviousVersion: u.PreviousVersion,
		Mode:            u.Mode.String(),
		Phase:           string(u.Phase),
		Success:         u.Success(),
		Elapsed:         u.Elapsed,
		Finished:        time.Now(),
		Error:           u.Error,
	}
	if u.Manifest != nil {
		event.Metadata = u.Manifest.Metadata
	}
	if err := notifier.Notify(ctx, event); err != nil {
		log.Error(err, "failed to emit rollout outcome", "service", u.Name)
	}
}

// RolloutReport aggregates every outcome of one orchestration run
type RolloutReport struct {
	Items []*UpgradeData `json:"items"`
}

// Succeeded lists rollouts that did what their mode asked for
func (r *RolloutReport) Succeeded() []*UpgradeData {
	return r.filter(func(u *UpgradeData) bool { return u.Success() })
}

// Failed lists releases helm itself rejected
func (r *RolloutReport) Failed() []*UpgradeData {
	return r.filter(func(u *UpgradeData) bool { return u.Phase == PhaseFailed })
}

// TimedOut lists rollouts that outlived their wait budget
func (r *RolloutReport) TimedOut() []*UpgradeData {
	return r.filter(func(u *UpgradeData) bool { return u.Phase == PhaseTimedOut })
}

// RolledBack lists failed or timed-out rollouts that were auto-reverted
func (r *RolloutReport) RolledBack() []*UpgradeData {
	return r.filter(func(u *UpgradeData) bool {
		return u.Phase == PhaseRolledBack && u.Error != ""
	})
}

// Skipped lists services that never reached dispatch
func (r *RolloutReport) Skipped() []*UpgradeData {
	return r.filter(func(u *UpgradeData) bool { return u.Phase == PhaseSkipped })
}

// OK reports whether every service succeeded
func (r *RolloutReport) OK() bool {
	for _, u := range r.Items {
		if !u.Success() {
			return false
		}
	}
	return true
}

// Summary is a one-line outcome count for logs and terminal output
func (r *RolloutReport) Summary() string {
	return fmt.Sprintf("%d succeeded, %d failed, %d timed out, %d rolled back, %d skipped",
		len(r.Succeeded()), len(r.Failed()), len(r.TimedOut()),
		len(r.RolledBack()), len(r.Skipped()))
}

func (r *RolloutReport) filter(keep func(*UpgradeData) bool) []*UpgradeData {
	var matched []*UpgradeData
	for _, u := range r.Items {
		if keep(u) {
			matched = append(matched, u)
		}
	}
	return matched
}
