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
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// InVault is the reserved env value marking a variable as fetched from the
// secret store during reconciliation
const InVault = "IN_VAULT"

// templateMarker flags values that are rendered before reconciliation
const templateMarker = "{{"

// ValueSource classifies where an env value ultimately comes from
type ValueSource int

const (
	// SourcePlain values pass through to the chart untouched
	SourcePlain ValueSource = iota
	// SourceVault values are read from the secret store at <folder>/<service>/<KEY>
	SourceVault
	// SourceTemplate values are rendered from an inline template and treated
	// as secret material
	SourceTemplate
)

// Value is one environment value, classified once at parse time so that
// consumers never re-inspect the raw string
type Value struct {
	Source ValueSource

	// Raw is the literal string from the manifest
	Raw string

	// Rendered is the template output once rendering has run.
	// For plain values it equals Raw.
	Rendered string
}

// EnvVars is an ordered name to value mapping with parse-time classification
// into plain, vault-sourced, and template-sourced entries.
//
// It round-trips through YAML as a plain string map; the classification is
// re-derived on load.
type EnvVars struct {
	values map[string]Value
}

var envNameRegex = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

func classify(raw string) ValueSource {
	switch {
	case raw == InVault:
		return SourceVault
	case strings.Contains(raw, templateMarker):
		return SourceTemplate
	default:
		return SourcePlain
	}
}

// Set stores a raw value under key, classifying it
func (e *EnvVars) Set(key, raw string) {
	if e.values == nil {
		e.values = make(map[string]Value)
	}
	value := Value{Source: classify(raw), Raw: raw}
	if value.Source == SourcePlain {
		value.Rendered = raw
	}
	e.values[key] = value
}

// Get returns the classified value stored under key
func (e EnvVars) Get(key string) (Value, bool) {
	value, found := e.values[key]
	return value, found
}

// Len returns the number of declared variables
func (e EnvVars) Len() int {
	return len(e.values)
}

// Keys returns every declared variable name, sorted
func (e EnvVars) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for key := range e.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Plain returns the subset of variables that pass through untouched
func (e EnvVars) Plain() map[string]string {
	plain := make(map[string]string)
	for key, value := range e.values {
		if value.Source == SourcePlain {
			plain[key] = value.Raw
		}
	}
	return plain
}

// VaultKeys returns the sorted names of all vault-sourced variables
func (e EnvVars) VaultKeys() []string {
	var keys []string
	for key, value := range e.values {
		if value.Source == SourceVault {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Templates returns template-sourced variables mapped to their rendered
// values, falling back to the raw template text when rendering has not run
func (e EnvVars) Templates() map[string]string {
	templates := make(map[string]string)
	for key, value := range e.values {
		if value.Source != SourceTemplate {
			continue
		}
		if value.Rendered != "" {
			templates[key] = value.Rendered
		} else {
			templates[key] = value.Raw
		}
	}
	return templates
}

// Merge overlays other on top of this set, key by key
func (e *EnvVars) Merge(other EnvVars) {
	for key, value := range other.values {
		if e.values == nil {
			e.values = make(map[string]Value)
		}
		e.values[key] = value
	}
}

// Render runs the given renderer over every template-sourced value
func (e *EnvVars) Render(render func(string) (string, error)) error {
	for _, key := range e.Keys() {
		value := e.values[key]
		if value.Source != SourceTemplate {
			continue
		}
		rendered, err := render(value.Raw)
		if err != nil {
			return fmt.Errorf("failed to render env var %s: %w", key, err)
		}
		value.Rendered = rendered
		e.values[key] = value
	}
	return nil
}

// Verify checks that every variable name is a well-formed env identifier
func (e EnvVars) Verify() error {
	for _, key := range e.Keys() {
		if !envNameRegex.MatchString(key) {
			return fmt.Errorf("env vars need to be uppercase alphanumerics with underscores, found %s", key)
		}
	}
	return nil
}

// MarshalJSON emits the raw string map so manifests round-trip unchanged
func (e EnvVars) MarshalJSON() ([]byte, error) {
	raw := make(map[string]string, len(e.values))
	for key, value := range e.values {
		raw[key] = value.Raw
	}
	return json.Marshal(raw)
}

// UnmarshalJSON reads a plain string map and classifies every entry
func (e *EnvVars) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.values = make(map[string]Value, len(raw))
	for key, value := range raw {
		e.Set(key, value)
	}
	return nil
}
