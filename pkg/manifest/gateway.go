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

// Gate configures the edge gateway in front of a service. A gate block is
// only meaningful alongside a kong one.
type Gate struct {
	Websockets bool `json:"websockets,omitempty"`
	Public     bool `json:"public,omitempty"`
}

// Kong is the api-gateway routing entry for a service
type Kong struct {
	Uris         string `json:"uris,omitempty"`
	StripUri     bool   `json:"strip_uri,omitempty"`
	PreserveHost bool   `json:"preserve_host,omitempty"`
}

// Verify checks the routing prefix is plausible
func (k Kong) Verify() error {
	if k.Uris != "" && !strings.HasPrefix(k.Uris, "/") {
		return fmt.Errorf("kong uris %q needs a leading slash", k.Uris)
	}
	return nil
}
