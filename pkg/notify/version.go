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

package notify

import (
	"fmt"

	"github.com/blang/semver"
)

// shortVersion abbreviates long opaque versions for display: full git shas
// shrink to 8 characters, semantic versions pass through
func shortVersion(version string) string {
	if _, err := semver.Parse(version); err == nil {
		return version
	}
	if len(version) == 40 {
		return version[:8]
	}
	return version
}

// compareURL links the source diff between two deployed versions
func compareURL(repo, from, to string) string {
	return fmt.Sprintf("%s/compare/%s...%s", repo, from, to)
}
