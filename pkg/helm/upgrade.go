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

package helm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flotilla-dev/flotilla/pkg/log"
	"github.com/flotilla-dev/flotilla/pkg/manifest"
)

// Phase is where a release sits in its rollout state machine
type Phase string

const (
	// PhasePending precedes pool admission
	PhasePending Phase = "Pending"

	// PhaseDispatched means the helm invocation is running
	PhaseDispatched Phase = "Dispatched"

	// PhaseWaitingRollout means helm accepted the release and the rollout
	// is being polled against its wait budget
	PhaseWaitingRollout Phase = "WaitingRollout"

	// PhaseSucceeded is the happy terminal state
	PhaseSucceeded Phase = "Succeeded"

	// PhaseFailed means helm itself rejected the release
	PhaseFailed Phase = "Failed"

	// PhaseTimedOut means the rollout outlived its wait budget. The
	// underlying rollout is still running.
	PhaseTimedOut Phase = "TimedOut"

	// PhaseRolledBack means the release was reverted, either on request or
	// after a failure under a rollback mode
	PhaseRolledBack Phase = "RolledBack"

	// PhaseSkipped means the service never reached dispatch, usually a
	// validation or reconciliation failure
	PhaseSkipped Phase = "Skipped"
)

// UpgradeData is the rollout state of one release in one region. A worker
// owns it exclusively from dispatch to its terminal phase.
type UpgradeData struct {
	// ID tags every log line of this rollout
	ID uuid.UUID `json:"id"`

	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Region    string `json:"region"`
	Chart     string `json:"chart"`

	// Version being rolled out, and the installed one it replaces when
	// known
	Version         string `json:"version"`
	PreviousVersion string `json:"previousVersion,omitempty"`

	Mode Mode `json:"mode"`

	// WaitSeconds is the rollout wait budget, a heuristic upper bound
	WaitSeconds int32 `json:"waitSeconds"`

	Phase   Phase         `json:"phase"`
	Started time.Time     `json:"started,omitempty"`
	Elapsed time.Duration `json:"elapsed,omitempty"`

	// Error is the terminal failure reason, empty on success
	Error string `json:"error,omitempty"`

	// DiffOutput carries the rendered diff under ModeDiff
	DiffOutput string `json:"diffOutput,omitempty"`

	// Manifest backing this rollout; feeds the values file and the
	// notification metadata
	Manifest *manifest.Manifest `json:"-"`
}

// NewUpgradeData resolves what a rollout of mf must do: which version to
// roll (declared, overridden, or inferred from the installed release), and
// how long to wait for it. Absence of any version under a mode that needs
// one is a MissingRollingVersionError; it aborts this service only.
func NewUpgradeData(
	ctx context.Context,
	executor Executor,
	mf *manifest.Manifest,
	mode Mode,
	versionOverride string,
) (*UpgradeData, error) {
	if mf.Name == "" || mf.Namespace == "" || mf.Region == "" {
		return nil, &manifest.InternalError{Service: mf.Name, Field: "region"}
	}
	if mf.Chart == "" {
		return nil, &manifest.InternalError{Service: mf.Name, Field: "chart"}
	}

	version := mf.Version
	if versionOverride != "" {
		version = versionOverride
	}

	// One installed-version query per service: the fallback when no version
	// is declared, the compare baseline when one is.
	installed, err := executor.InstalledVersion(ctx, mf.Name, mf.Namespace)
	if err != nil {
		if version == "" && mode.NeedsVersion() {
			return nil, fmt.Errorf("cannot infer installed version of %s: %w", mf.Name, err)
		}
		log.Debug("cannot read installed version", "service", mf.Name, "error", err.Error())
		installed = ""
	}
	if version == "" {
		version = installed
	}
	if version == "" && mode.NeedsVersion() {
		return nil, &MissingRollingVersionError{Service: mf.Name}
	}
	mf.SetVersion(version)

	return &UpgradeData{
		ID:              uuid.New(),
		Name:            mf.Name,
		Namespace:       mf.Namespace,
		Region:          mf.Region,
		Chart:           mf.Chart,
		Version:         version,
		PreviousVersion: installed,
		Mode:            mode,
		WaitSeconds:     mf.EstimateWaitSeconds(),
		Phase:           PhasePending,
		Manifest:        mf,
	}, nil
}

// SkippedUpgrade records a service that never reached dispatch, so reports
// still enumerate it
func SkippedUpgrade(mf *manifest.Manifest, mode Mode, reason error) *UpgradeData {
	return &UpgradeData{
		ID:        uuid.New(),
		Name:      mf.Name,
		Namespace: mf.Namespace,
		Region:    mf.Region,
		Chart:     mf.Chart,
		Version:   mf.Version,
		Mode:      mode,
		Phase:     PhaseSkipped,
		Error:     reason.Error(),
		Manifest:  mf,
	}
}

// Terminal reports whether the phase is an end state
func (u *UpgradeData) Terminal() bool {
	switch u.Phase {
	case PhaseSucceeded, PhaseFailed, PhaseTimedOut, PhaseRolledBack, PhaseSkipped:
		return true
	default:
		return false
	}
}

// Success reports whether the rollout did what the mode asked for: an
// upgrade that landed, or a requested rollback that applied. A rollback
// forced by a failure keeps its Error and is not a success.
func (u *UpgradeData) Success() bool {
	switch u.Phase {
	case PhaseSucceeded:
		return true
	case PhaseRolledBack:
		return u.Error == ""
	default:
		return false
	}
}
