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

package list

import (
	"os"

	"github.com/cheynewallace/tabby"

	"github.com/flotilla-dev/flotilla/internal/cmd/cli"
	"github.com/flotilla-dev/flotilla/pkg/manifest"
)

// Regions prints the configured regions
func Regions(output cli.OutputFormat) error {
	conf, err := cli.LoadConfig()
	if err != nil {
		return err
	}

	if output != cli.OutputFormatText {
		return cli.Print(conf.Regions, output, os.Stdout)
	}

	regions := tabby.New()
	regions.AddHeader("Region", "Cluster", "Namespace", "Environment")
	for _, region := range conf.Regions {
		regions.AddLine(region.Name, region.Cluster, region.Namespace, region.Environment)
	}
	regions.Print()
	return nil
}

// Services prints the services deployable in the current region
func Services(output cli.OutputFormat) error {
	_, region, err := cli.CurrentRegion()
	if err != nil {
		return err
	}

	names, err := cli.AvailableInRegion(region)
	if err != nil {
		return err
	}

	if output != cli.OutputFormatText {
		return cli.Print(names, output, os.Stdout)
	}

	services := tabby.New()
	services.AddHeader("Service", "Team", "Version")
	for _, name := range names {
		raw, err := manifest.LoadRaw(cli.ManifestRoot, name)
		if err != nil {
			return err
		}

		team, version := "-", "-"
		if raw.Metadata != nil && raw.Metadata.Team != "" {
			team = raw.Metadata.Team
		}
		if raw.Version != "" {
			version = raw.Version
		}
		services.AddLine(name, team, version)
	}
	services.Print()
	return nil
}
