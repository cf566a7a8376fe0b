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
)

// ValidationError is a user-input problem in a manifest. The fix belongs in
// the manifest, not in this codebase.
type ValidationError struct {
	Service string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Service, e.Reason)
}

// validationErrorf builds a ValidationError for the given service
func validationErrorf(service, format string, args ...interface{}) error {
	return &ValidationError{
		Service: service,
		Reason:  fmt.Sprintf(format, args...),
	}
}

// InternalError means a field the resolution pipeline guarantees to set is
// absent. Operators should file a bug, not edit their manifest.
type InternalError struct {
	Service string
	Field   string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("manifest key %q for %s was not propagated internally, this is a bug",
		e.Field, e.Service)
}
