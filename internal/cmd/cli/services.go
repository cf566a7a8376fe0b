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

package cli

import (
	"fmt"

	"github.com/thoas/go-funk"

	"github.com/flotilla-dev/flotilla/pkg/fleet"
	"github.com/flotilla-dev/flotilla/pkg/manifest"
)

// AvailableInRegion lists every service that can deploy in the region:
// not disabled, and declaring the region in its manifest
func AvailableInRegion(region fleet.Region) ([]string, error) {
	services, err := manifest.Available(ManifestRoot)
	if err != nil {
		return nil, err
	}

	var deployable []string
	for _, service := range services {
		raw, err := manifest.LoadRaw(ManifestRoot, service)
		if err != nil {
			return nil, err
		}
		if raw.Disabled || !funk.ContainsString(raw.Regions, region.Name) {
			continue
		}
		deployable = append(deployable, service)
	}
	return deployable, nil
}

// ResolveServices turns command arguments into the service list to work
// on: the explicit ones, or everything deployable in the region under --all
func ResolveServices(requested []string, all bool, region fleet.Region) ([]string, error) {
	if all {
		return AvailableInRegion(region)
	}
	if len(requested) == 0 {
		return nil, fmt.Errorf("no services given, pass service names or --all")
	}
	return requested, nil
}
