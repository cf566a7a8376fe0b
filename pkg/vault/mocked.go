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
	"context"
)

// MockedValue is the fixed payload the mocked store hands out for every
// read. Pipelines running without store credentials still produce
// manifests whose secret map is fully populated, just not with real data.
const MockedValue = "aGVsbG8gd29ybGQ="

// Mocked is a Reader that never talks to a real store
type Mocked struct{}

// NewMocked creates a mocked store reader
func NewMocked() *Mocked {
	return &Mocked{}
}

// Read returns MockedValue regardless of path
func (m *Mocked) Read(_ context.Context, _ string) (string, error) {
	return MockedValue, nil
}

// List returns an empty listing: the mocked store holds no real keys,
// and existence checks against it must not pass by accident
func (m *Mocked) List(_ context.Context, _ string) ([]string, error) {
	return []string{}, nil
}

// Mode reports that values coming from this reader are placeholders
func (m *Mocked) Mode() Mode {
	return ModeMocked
}
