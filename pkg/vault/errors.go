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

package vault

import (
	"errors"
	"fmt"
)

// Configuration errors, detected before any network call is attempted
var (
	// ErrMissingAddr means the secret store address is not configured
	ErrMissingAddr = errors.New("secret store address is not configured, set VAULT_ADDR")

	// ErrMissingToken means the secret store token is not configured
	ErrMissingToken = errors.New("secret store token is not configured, set VAULT_TOKEN or run `vault login`")
)

// UnexpectedStatusError is raised when the secret store answers with an
// HTTP status the client cannot interpret
type UnexpectedStatusError struct {
	Status int
	URL    string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d from %s", e.Status, e.URL)
}

// InvalidSecretFormError is raised when a secret exists but does not carry
// a usable value field
type InvalidSecretFormError struct {
	Path string
}

func (e *InvalidSecretFormError) Error() string {
	return fmt.Sprintf("secret at %s has no usable value field", e.Path)
}
