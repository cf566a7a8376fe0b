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

package cli

import (
	"errors"

	"github.com/flotilla-dev/flotilla/pkg/manifest"
)

// Exit codes, so wrapping automation can tell failure classes apart
// without parsing output
const (
	// ExitGeneric is any unclassified failure
	ExitGeneric = 1

	// ExitValidation is a user-input error: fix the manifest
	ExitValidation = 2

	// ExitInternal is a broken pipeline invariant: file a bug
	ExitInternal = 3

	// ExitRollout means every rollout failed
	ExitRollout = 4

	// ExitPartial means some rollouts failed and some succeeded
	ExitPartial = 5
)

// ExitError carries an explicit exit code through a command's error return
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode classifies a command error into a process exit code
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	exit := &ExitError{}
	if errors.As(err, &exit) {
		return exit.Code
	}

	validation := &manifest.ValidationError{}
	if errors.As(err, &validation) {
		return ExitValidation
	}

	internal := &manifest.InternalError{}
	if errors.As(err, &internal) {
		return ExitInternal
	}

	return ExitGeneric
}
