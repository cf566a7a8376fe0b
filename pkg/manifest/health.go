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

package manifest

import (
	"fmt"
	"strings"
)

// defaultHealthWaitSeconds is how long a booting service is given before its
// health endpoint is first probed, when the manifest does not say
const defaultHealthWaitSeconds = 30

// HealthCheck is a small convenience wrapper that the chart turns into an
// HTTP readiness probe. Prefer readinessProbe for anything non-trivial.
type HealthCheck struct {
	URI  string `json:"uri"`
	Wait int32  `json:"wait,omitempty"`
	Port *int32 `json:"port,omitempty"`
}

// Verify checks the probe endpoint is plausible
func (h HealthCheck) Verify() error {
	if !strings.HasPrefix(h.URI, "/") {
		return fmt.Errorf("health uri %q needs a leading slash", h.URI)
	}
	if h.Wait < 0 {
		return fmt.Errorf("health wait cannot be negative, got %d", h.Wait)
	}
	return nil
}
