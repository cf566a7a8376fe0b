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
	"regexp"
	"strings"

	"github.com/thoas/go-funk"

	"github.com/flotilla-dev/flotilla/pkg/fleet"
	"github.com/flotilla-dev/flotilla/pkg/log"
)

// serviceNameRegex bounds names to what kube dns tolerates, with headroom
// left for generated suffixes
var serviceNameRegex = regexp.MustCompile(`^[0-9a-z-]{1,50}$`)

// Verify enforces the structural and cross-field invariants on a resolved
// manifest. Checks run in order and stop at the first violation; user
// errors come back as ValidationError, pipeline defects as InternalError.
//
// External services only pass the identity checks: they are reference-only
// entries and are never rolled out from here.
func (m *Manifest) Verify(conf *fleet.Config, region fleet.Region) error {
	if m.Region == "" {
		return &InternalError{Service: m.Name, Field: "region"}
	}
	if !funk.ContainsString(m.Regions, m.Region) {
		return validationErrorf(m.Name, "unsupported region %s", m.Region)
	}
	if !serviceNameRegex.MatchString(m.Name) {
		return validationErrorf(m.Name, "service names are short, lower case and dash separated")
	}
	if strings.HasPrefix(m.Name, "-") || strings.HasSuffix(m.Name, "-") {
		return validationErrorf(m.Name, "service names use dashes to separate words only")
	}

	if m.External {
		log.Warning("ignoring most validation for external service", "service", m.Name)
		return nil
	}

	if m.Version != "" {
		if err := region.Versioning.Verify(m.Version); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}

	if m.Gate != nil {
		if m.Kong == nil {
			return validationErrorf(m.Name, "cannot have a gate configuration without a kong one")
		}
		if m.Gate.Public != m.PubliclyAccessible {
			return validationErrorf(m.Name, "publiclyAccessible and gate.public must agree")
		}
	}
	if m.Kong != nil {
		if err := m.Kong.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}

	if m.Resources == nil {
		return validationErrorf(m.Name, "resources is mandatory")
	}
	if err := m.Resources.Verify(); err != nil {
		return validationErrorf(m.Name, "%s", err)
	}

	for _, dependency := range m.Dependencies {
		if err := dependency.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	for _, alias := range m.HostAliases {
		if err := alias.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	for _, toleration := range m.Tolerations {
		if err := toleration.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	for _, initContainer := range m.InitContainers {
		if err := initContainer.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	for _, worker := range m.Workers {
		if err := worker.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	for _, sidecar := range m.Sidecars {
		if err := sidecar.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	for _, cronJob := range m.CronJobs {
		if err := cronJob.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	for _, port := range m.Ports {
		if err := port.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	for _, rule := range m.Rbac {
		if err := rule.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	for _, volume := range m.PersistentVolumes {
		if err := volume.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	if m.Configs != nil {
		if err := m.Configs.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}

	if m.Metadata == nil {
		return validationErrorf(m.Name, "missing metadata")
	}
	if err := m.Metadata.Verify(conf.Teams); err != nil {
		return validationErrorf(m.Name, "%s", err)
	}

	if m.ReplicaCount == nil {
		return &InternalError{Service: m.Name, Field: "replicaCount"}
	}
	if *m.ReplicaCount == 0 {
		return validationErrorf(m.Name, "needs replicaCount of at least 1")
	}
	if m.RollingUpdate != nil {
		if err := m.RollingUpdate.Verify(*m.ReplicaCount); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	if m.AutoScaling != nil {
		if err := m.AutoScaling.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	if err := m.Env.Verify(); err != nil {
		return validationErrorf(m.Name, "%s", err)
	}

	// pipeline guarantees; a failure here is a bug, not a manifest problem
	if m.Image == "" {
		return &InternalError{Service: m.Name, Field: "image"}
	}
	if m.ImageSize == nil {
		return &InternalError{Service: m.Name, Field: "imageSize"}
	}
	if m.Chart == "" {
		return &InternalError{Service: m.Name, Field: "chart"}
	}
	if m.Namespace == "" {
		return &InternalError{Service: m.Name, Field: "namespace"}
	}
	if len(m.Regions) == 0 {
		return &InternalError{Service: m.Name, Field: "regions"}
	}
	if m.Environment == "" {
		return &InternalError{Service: m.Name, Field: "environment"}
	}

	// every service exposing http must gate its rollouts on a health check
	if m.HTTPPort != nil && m.Health == nil && m.ReadinessProbe == nil {
		return validationErrorf(m.Name, "has an httpPort but no health check")
	}
	if m.HTTPPort == nil {
		log.Warning("service exposes no http port", "service", m.Name)
	}
	if m.Health == nil && m.ReadinessProbe == nil {
		log.Warning("service does not set a health check", "service", m.Name)
	}
	if len(m.ServiceAnnotations) > 0 {
		log.Warning("serviceAnnotations is an experimental feature", "service", m.Name)
	}

	if m.Database != nil {
		if err := m.Database.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	if m.Redis != nil {
		if err := m.Redis.Verify(); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}

	return nil
}
