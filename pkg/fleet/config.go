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

// Package fleet contains the read-only description of the deployment fleet:
// regions, clusters, teams and the defaults every manifest inherits
package fleet

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"
)

// Config is the top level fleet configuration. It is loaded once and never
// mutated afterwards.
type Config struct {
	// Defaults are applied to every manifest during completion
	Defaults ManifestDefaults `json:"defaults"`

	// Clusters are the addressable Kubernetes clusters, keyed by name
	Clusters map[string]Cluster `json:"clusters"`

	// ContextAliases maps additional context names onto region names
	ContextAliases map[string]string `json:"contextAliases,omitempty"`

	// Regions are the deployable regions, each bound to one cluster
	Regions []Region `json:"regions"`

	// Teams are the owning teams services can reference in their metadata
	Teams []Team `json:"teams,omitempty"`
}

// ManifestDefaults are the fallbacks applied to a manifest when the service
// does not specify the corresponding field
type ManifestDefaults struct {
	// ImagePrefix is prepended to the service name to form the default image
	ImagePrefix string `json:"imagePrefix"`

	// Chart is the default chart services are rendered with
	Chart string `json:"chart"`

	// ReplicaCount is the default number of replicas
	ReplicaCount int32 `json:"replicaCount"`
}

// Cluster is one addressable Kubernetes cluster
type Cluster struct {
	// API is the URL of the cluster API server
	API string `json:"api"`

	// Regions are the names of the regions scheduled on this cluster
	Regions []string `json:"regions"`
}

// Team owns services
type Team struct {
	Name string `json:"name"`

	// Owners are the people answering for the team's services
	Owners []Contact `json:"owners,omitempty"`
}

// Contact is a human reachable on Slack
type Contact struct {
	Name  string `json:"name"`
	Slack string `json:"slack"`
	Email string `json:"email,omitempty"`
}

// Verify checks that the contact can actually be contacted
func (c Contact) Verify() error {
	if c.Name == "" {
		return fmt.Errorf("contact has no name")
	}
	if !strings.HasPrefix(c.Slack, "@") {
		return fmt.Errorf("contact %q has slack handle %q not starting with @", c.Name, c.Slack)
	}
	return nil
}

// LoadConfig reads, strictly decodes and verifies the fleet configuration
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec
	if err != nil {
		return nil, fmt.Errorf("cannot read fleet configuration %q: %w", path, err)
	}

	config := &Config{}
	if err := yaml.UnmarshalStrict(data, config); err != nil {
		return nil, fmt.Errorf("invalid fleet configuration %q: %w", path, err)
	}

	if err := config.Verify(); err != nil {
		return nil, err
	}

	return config, nil
}

// Verify checks the internal cross-references of the configuration
func (c *Config) Verify() error {
	if len(c.Regions) == 0 {
		return fmt.Errorf("fleet configuration has no regions")
	}

	seen := map[string]bool{}
	for _, region := range c.Regions {
		if seen[region.Name] {
			return fmt.Errorf("region %q is defined twice", region.Name)
		}
		seen[region.Name] = true

		if err := region.Verify(); err != nil {
			return err
		}

		cluster, found := c.Clusters[region.Cluster]
		if !found {
			return fmt.Errorf("region %q references unknown cluster %q", region.Name, region.Cluster)
		}
		if !funk.ContainsString(cluster.Regions, region.Name) {
			return fmt.Errorf("cluster %q does not schedule region %q", region.Cluster, region.Name)
		}
	}

	for alias, target := range c.ContextAliases {
		if !seen[target] {
			return fmt.Errorf("context alias %q points at unknown region %q", alias, target)
		}
	}

	teams := map[string]bool{}
	for _, team := range c.Teams {
		if team.Name == "" {
			return fmt.Errorf("fleet configuration has a team without a name")
		}
		if teams[team.Name] {
			return fmt.Errorf("team %q is defined twice", team.Name)
		}
		teams[team.Name] = true

		for _, owner := range team.Owners {
			if err := owner.Verify(); err != nil {
				return fmt.Errorf("team %q: %w", team.Name, err)
			}
		}
	}

	return nil
}

// GetRegion resolves a region name or a context alias
func (c *Config) GetRegion(name string) (Region, bool) {
	if target, found := c.ContextAliases[name]; found {
		name = target
	}

	for _, region := range c.Regions {
		if region.Name == name {
			return region, true
		}
	}

	return Region{}, false
}

// RegionNames lists the configured regions, sorted
func (c *Config) RegionNames() []string {
	names := make([]string, 0, len(c.Regions))
	for _, region := range c.Regions {
		names = append(names, region.Name)
	}
	sort.Strings(names)
	return names
}

// HasTeam tells whether a team is part of the fleet configuration
func (c *Config) HasTeam(name string) bool {
	for _, team := range c.Teams {
		if team.Name == name {
			return true
		}
	}
	return false
}
