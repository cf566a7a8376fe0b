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

import "fmt"

// Mode selects what a rollout run does with each release
type Mode int

const (
	// ModeUpgradeWait upgrades the release and waits for its deployments
	// to come online within the wait budget
	ModeUpgradeWait Mode = iota

	// ModeUpgradeWaitMaybeRollback additionally rolls the release back when
	// the upgrade fails or exceeds its wait budget
	ModeUpgradeWaitMaybeRollback

	// ModeUpgrade fires the upgrade and returns without waiting
	ModeUpgrade

	// ModeInstall installs a release that does not exist yet, waiting like
	// an upgrade does
	ModeInstall

	// ModeDiff renders what an upgrade would change without applying it
	ModeDiff

	// ModeRollback reverts the release to its previous revision
	ModeRollback
)

var modeNames = map[Mode]string{
	ModeUpgradeWait:              "upgrade-wait",
	ModeUpgradeWaitMaybeRollback: "upgrade-wait-rollback",
	ModeUpgrade:                  "upgrade",
	ModeInstall:                  "install",
	ModeDiff:                     "diff",
	ModeRollback:                 "rollback",
}

func (m Mode) String() string {
	if name, found := modeNames[m]; found {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode maps a CLI flag value onto a Mode
func ParseMode(name string) (Mode, error) {
	for mode, candidate := range modeNames {
		if candidate == name {
			return mode, nil
		}
	}
	return ModeUpgradeWait, fmt.Errorf("unknown upgrade mode %q", name)
}

// Waits reports whether the mode polls rollout status after dispatching
func (m Mode) Waits() bool {
	switch m {
	case ModeUpgradeWait, ModeUpgradeWaitMaybeRollback, ModeInstall:
		return true
	default:
		return false
	}
}

// RollsBack reports whether a failed or timed-out upgrade is automatically
// reverted
func (m Mode) RollsBack() bool {
	return m == ModeUpgradeWaitMaybeRollback
}

// NeedsVersion reports whether dispatching requires a concrete version,
// declared or inferred from the installed release
func (m Mode) NeedsVersion() bool {
	return m != ModeRollback
}
