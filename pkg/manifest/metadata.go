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

	"github.com/flotilla-dev/flotilla/pkg/fleet"
)

// Metadata holds ownership and notification routing for a service.
// Contacts are pinged on rollout outcomes; Repo powers version diff links.
type Metadata struct {
	Team          string          `json:"team"`
	Repo          string          `json:"repo,omitempty"`
	Support       string          `json:"support,omitempty"`
	Notifications string          `json:"notifications,omitempty"`
	Contacts      []fleet.Contact `json:"contacts,omitempty"`
}

// Verify checks the team is configured and every contact is well-formed
func (m Metadata) Verify(teams []fleet.Team) error {
	if m.Team == "" {
		return errors.New("metadata needs a team")
	}
	known := false
	for _, team := range teams {
		if team.Name == m.Team {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("team %q is not configured", m.Team)
	}
	for _, channel := range []string{m.Support, m.Notifications} {
		if channel != "" && !strings.HasPrefix(channel, "#") {
			return fmt.Errorf("channel %q needs a # prefix", channel)
		}
	}
	for _, contact := range m.Contacts {
		if err := contact.Verify(); err != nil {
			return err
		}
	}
	return nil
}
