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
	"strings"
)

// ConfigMappedFile is one templated file inlined into the service's config
// map. Name refers to a template in the service's manifest folder.
type ConfigMappedFile struct {
	Name string `json:"name"`
	Dest string `json:"dest,omitempty"`

	// Value is the rendered template output, set during resolution
	Value string `json:"value,omitempty"`
}

// Verify checks the file reference is complete
func (c ConfigMappedFile) Verify() error {
	if c.Name == "" {
		return errors.New("config files need a name")
	}
	return nil
}

// ConfigMap inlines small templated config files into the chart, mounted at
// a single path
type ConfigMap struct {
	Mount string             `json:"mount"`
	Files []ConfigMappedFile `json:"files"`
}

// Verify checks the mount point and every file entry
func (c ConfigMap) Verify() error {
	if !strings.HasPrefix(c.Mount, "/") || !strings.HasSuffix(c.Mount, "/") {
		return fmt.Errorf("configs mount %q needs leading and trailing slashes", c.Mount)
	}
	if len(c.Files) == 0 {
		return errors.New("configs need at least one file")
	}
	for _, file := range c.Files {
		if err := file.Verify(); err != nil {
			return err
		}
	}
	return nil
}
