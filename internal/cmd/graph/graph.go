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

package graph

import (
	"os"
	"strconv"

	"github.com/cheynewallace/tabby"

	"github.com/flotilla-dev/flotilla/internal/cmd/cli"
	"github.com/flotilla-dev/flotilla/pkg/fleet"
	"github.com/flotilla-dev/flotilla/pkg/graph"
	"github.com/flotilla-dev/flotilla/pkg/log"
	"github.com/flotilla-dev/flotilla/pkg/manifest"
)

// orderView is the machine-readable rendering of a deploy order
type orderView struct {
	Order    []string     `json:"order"`
	Edges    []graph.Edge `json:"edges,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Run builds the graph of the requested services and prints it. Explicit
// service arguments root the graph: their dependency closure is followed
// through the manifest tree, so `flotilla graph webapp` shows everything
// webapp needs, not just webapp.
func Run(requested []string, all, dot bool) error {
	conf, region, err := cli.CurrentRegion()
	if err != nil {
		return err
	}

	services, err := cli.ResolveServices(requested, all, region)
	if err != nil {
		return err
	}

	manifests, err := loadClosure(services, conf, region)
	if err != nil {
		return err
	}

	g, err := graph.Build(manifests)
	if err != nil {
		return err
	}
	for _, warning := range g.Warnings() {
		log.Warning(warning)
	}

	if dot {
		return g.DOT(os.Stdout)
	}

	order := g.DeployOrder()
	if format := cli.OutputFormat(cli.Output); format != cli.OutputFormatText {
		return cli.Print(orderView{
			Order:    order,
			Edges:    g.Edges(),
			Warnings: g.Warnings(),
		}, format, os.Stdout)
	}

	table := tabby.New()
	table.AddHeader("#", "Service", "Version")
	for i, name := range order {
		version := "-"
		if node, found := g.Node(name); found && node.Version != "" {
			version = node.Version
		}
		table.AddLine(strconv.Itoa(i+1), name, version)
	}
	table.Print()
	return nil
}

// loadClosure loads the given services and, transitively, every dependency
// that has a manifest in the tree. Dependencies without one stay out of the
// set and surface as graph warnings instead.
func loadClosure(services []string, conf *fleet.Config, region fleet.Region) ([]*manifest.Manifest, error) {
	available, err := manifest.Available(cli.ManifestRoot)
	if err != nil {
		return nil, err
	}
	exists := make(map[string]bool, len(available))
	for _, name := range available {
		exists[name] = true
	}

	var manifests []*manifest.Manifest
	loaded := map[string]bool{}
	queue := append([]string{}, services...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if loaded[name] {
			continue
		}
		loaded[name] = true

		mf, err := manifest.LoadMerged(cli.ManifestRoot, name, conf, region)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, mf)

		for _, dependency := range mf.Dependencies {
			if exists[dependency.Name] && !loaded[dependency.Name] {
				queue = append(queue, dependency.Name)
			}
		}
	}
	return manifests, nil
}
