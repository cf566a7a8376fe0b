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

package fleet

import (
	"fmt"
	"regexp"

	"github.com/blang/semver"
)

// VersionScheme restricts the version strings a region accepts
type VersionScheme string

const (
	// VersionSchemeGitShaOrSemver accepts both full git SHAs and semantic
	// versions. This is the default scheme.
	VersionSchemeGitShaOrSemver VersionScheme = "GitShaOrSemver"

	// VersionSchemeSemver accepts semantic versions only, as fits
	// environments where only tagged builds may run
	VersionSchemeSemver VersionScheme = "Semver"
)

var gitShaRegex = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Known checks that the scheme is one of the supported ones
func (scheme VersionScheme) Known() error {
	switch scheme {
	case VersionSchemeGitShaOrSemver, VersionSchemeSemver, "":
		return nil
	default:
		return fmt.Errorf("unknown versioning scheme %q", scheme)
	}
}

// Verify checks a version string against the scheme
func (scheme VersionScheme) Verify(version string) error {
	switch scheme {
	case VersionSchemeSemver:
		if _, err := semver.Parse(version); err != nil {
			return fmt.Errorf("version %q is not a semantic version: %w", version, err)
		}

	case VersionSchemeGitShaOrSemver, "":
		if gitShaRegex.MatchString(version) {
			return nil
		}
		if _, err := semver.Parse(version); err != nil {
			return fmt.Errorf("version %q is neither a full git sha nor a semantic version", version)
		}

	default:
		return fmt.Errorf("unknown versioning scheme %q", scheme)
	}

	return nil
}
