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

// MissingRollingVersionError means a service declares no version and has no
// installed release to infer one from. Fatal for that service only.
type MissingRollingVersionError struct {
	Service string
}

func (e *MissingRollingVersionError) Error() string {
	return fmt.Sprintf("%s has no version in manifest and is not installed yet", e.Service)
}

// UpgradeFailedError is a rejected helm invocation: non-zero exit or an api
// error, as opposed to a rollout that never converged
type UpgradeFailedError struct {
	Service string
	Output  string
}

func (e *UpgradeFailedError) Error() string {
	return fmt.Sprintf("helm upgrade of %s failed", e.Service)
}

// UpgradeTimeoutError means the rollout exceeded its wait budget. The
// underlying rollout keeps going; it is reported, not reverted.
type UpgradeTimeoutError struct {
	Service string
	Budget  int32
}

func (e *UpgradeTimeoutError) Error() string {
	return fmt.Sprintf("%s upgrade timed out waiting %ds for deployment(s) to come online",
		e.Service, e.Budget)
}
