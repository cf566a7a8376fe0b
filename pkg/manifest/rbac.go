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

	"github.com/thoas/go-funk"
)

var allowedRbacVerbs = []string{
	"get", "list", "watch", "create", "update", "patch", "delete", "deletecollection",
}

// Rbac is one access rule granted to the service account of the deployment
type Rbac struct {
	ApiGroups []string `json:"apiGroups"`
	Resources []string `json:"resources"`
	Verbs     []string `json:"verbs"`
}

// Verify checks the rule is complete and uses known verbs
func (r Rbac) Verify() error {
	if len(r.ApiGroups) == 0 {
		return errors.New("rbac rules need apiGroups")
	}
	if len(r.Resources) == 0 {
		return errors.New("rbac rules need resources")
	}
	if len(r.Verbs) == 0 {
		return errors.New("rbac rules need verbs")
	}
	for _, verb := range r.Verbs {
		if !funk.ContainsString(allowedRbacVerbs, verb) {
			return fmt.Errorf("invalid rbac verb %q", verb)
		}
	}
	return nil
}
