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
	"errors"
	"fmt"
	"regexp"
)

var dependencyAPIRegex = regexp.MustCompile(`^v\d+$`)

// Dependency names another service this one calls at runtime. The set of
// dependencies across all manifests feeds the deployment graph.
type Dependency struct {
	Name string `json:"name"`

	// Api is the pinned api version of the upstream, e.g. v1
	Api string `json:"api,omitempty"`

	// Intent is a free-form reason for the dependency
	Intent string `json:"intent,omitempty"`
}

// Verify checks the dependency names a plausible service
func (d Dependency) Verify() error {
	if d.Name == "" {
		return errors.New("dependencies need a name")
	}
	if !serviceNameRegex.MatchString(d.Name) {
		return fmt.Errorf("invalid dependency name %q", d.Name)
	}
	if d.Api != "" && !dependencyAPIRegex.MatchString(d.Api) {
		return fmt.Errorf("dependency %s api version %q does not look like v1", d.Name, d.Api)
	}
	return nil
}
