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
	corev1 "k8s.io/api/core/v1"

	"github.com/flotilla-dev/flotilla/pkg/fleet"
)

// defaultImageSizeMB is assumed when a manifest does not declare its
// uncompressed image size
const defaultImageSizeMB = 512

// MergeOverride overlays a region override file onto the base manifest.
// Scalars win when set, maps merge key-wise, named lists merge by element
// name, unkeyed lists append. Global identity fields cannot be overridden
// per region; finding them set in an override is a user error.
func (m *Manifest) MergeOverride(override *Manifest) error {
	if override.Name != "" && override.Name != m.Name {
		return validationErrorf(m.Name, "region override cannot change the service name")
	}
	if override.External || override.Disabled || override.PubliclyAccessible {
		return validationErrorf(m.Name, "external, disabled and publiclyAccessible are global and cannot be set per region")
	}
	if len(override.Regions) > 0 {
		return validationErrorf(m.Name, "the region list cannot be set per region")
	}
	if override.Metadata != nil {
		return validationErrorf(m.Name, "metadata is global and cannot be set per region")
	}

	if override.Chart != "" {
		m.Chart = override.Chart
	}
	if override.Image != "" {
		m.Image = override.Image
	}
	if override.Version != "" {
		m.Version = override.Version
	}
	if override.Language != "" {
		m.Language = override.Language
	}
	if len(override.Command) > 0 {
		m.Command = override.Command
	}
	if override.ImageSize != nil {
		m.ImageSize = override.ImageSize
	}
	if override.ReplicaCount != nil {
		m.ReplicaCount = override.ReplicaCount
	}
	if override.HTTPPort != nil {
		m.HTTPPort = override.HTTPPort
	}
	if override.ExternalPort != nil {
		m.ExternalPort = override.ExternalPort
	}
	if override.Resources != nil {
		m.Resources = override.Resources
	}
	if override.Health != nil {
		m.Health = override.Health
	}
	if override.ReadinessProbe != nil {
		m.ReadinessProbe = override.ReadinessProbe
	}
	if override.LivenessProbe != nil {
		m.LivenessProbe = override.LivenessProbe
	}
	if override.Lifecycle != nil {
		m.Lifecycle = override.Lifecycle
	}
	if override.RollingUpdate != nil {
		m.RollingUpdate = override.RollingUpdate
	}
	if override.AutoScaling != nil {
		m.AutoScaling = override.AutoScaling
	}
	if override.Kong != nil {
		m.Kong = override.Kong
	}
	if override.Gate != nil {
		m.Gate = override.Gate
	}
	if override.Database != nil {
		m.Database = override.Database
	}
	if override.Redis != nil {
		m.Redis = override.Redis
	}
	if override.Vault != nil {
		m.Vault = override.Vault
	}
	if override.Configs != nil {
		m.Configs = override.Configs
	}
	if len(override.Hosts) > 0 {
		m.Hosts = override.Hosts
	}
	if len(override.SourceRanges) > 0 {
		m.SourceRanges = override.SourceRanges
	}

	m.Env.Merge(override.Env)
	m.SecretFiles = mergeMap(m.SecretFiles, override.SecretFiles)
	m.ServiceAnnotations = mergeMap(m.ServiceAnnotations, override.ServiceAnnotations)
	m.Labels = mergeMap(m.Labels, override.Labels)

	m.Ports = mergeNamed(m.Ports, override.Ports,
		func(p Port) string { return p.Name })
	m.Dependencies = mergeNamed(m.Dependencies, override.Dependencies,
		func(d Dependency) string { return d.Name })
	m.Workers = mergeNamed(m.Workers, override.Workers,
		func(w Worker) string { return w.Name })
	m.Sidecars = mergeNamed(m.Sidecars, override.Sidecars,
		func(s Sidecar) string { return s.Name })
	m.InitContainers = mergeNamed(m.InitContainers, override.InitContainers,
		func(i InitContainer) string { return i.Name })
	m.CronJobs = mergeNamed(m.CronJobs, override.CronJobs,
		func(c CronJob) string { return c.Name })
	m.PersistentVolumes = mergeNamed(m.PersistentVolumes, override.PersistentVolumes,
		func(p PersistentVolume) string { return p.Name })
	m.Volumes = mergeNamed(m.Volumes, override.Volumes,
		func(v corev1.Volume) string { return v.Name })

	m.VolumeMounts = append(m.VolumeMounts, override.VolumeMounts...)
	m.Tolerations = append(m.Tolerations, override.Tolerations...)
	m.HostAliases = append(m.HostAliases, override.HostAliases...)
	m.Rbac = append(m.Rbac, override.Rbac...)

	return nil
}

// Complete fills implicit fields from the fleet defaults and the region,
// renders every inline template, and asserts the guaranteed-by-contract
// fields came out populated. The manifest is KindBase afterwards.
func (m *Manifest) Complete(conf *fleet.Config, region fleet.Region) error {
	m.applyDefaults(conf.Defaults, region)

	ctx := m.templateContext(region)
	render := func(text string) (string, error) {
		return renderTemplate(m.Name, text, ctx)
	}
	for _, env := range m.envContainers() {
		if err := env.Render(render); err != nil {
			return validationErrorf(m.Name, "%s", err)
		}
	}
	if m.Configs != nil {
		for i := range m.Configs.Files {
			file := &m.Configs.Files[i]
			rendered, err := renderTemplate(file.Name, file.Value, ctx)
			if err != nil {
				return validationErrorf(m.Name, "%s", err)
			}
			file.Value = rendered
		}
	}

	// absence here is a defect in the defaults pipeline, not a user error
	if m.Image == "" {
		return &InternalError{Service: m.Name, Field: "image"}
	}
	if m.Chart == "" {
		return &InternalError{Service: m.Name, Field: "chart"}
	}
	if m.Namespace == "" {
		return &InternalError{Service: m.Name, Field: "namespace"}
	}

	m.Kind = KindBase
	return nil
}

func (m *Manifest) applyDefaults(defaults fleet.ManifestDefaults, region fleet.Region) {
	m.Region = region.Name
	m.Environment = region.Environment
	m.Namespace = region.Namespace

	if m.Chart == "" {
		m.Chart = defaults.Chart
	}
	if m.Image == "" && m.Name != "" {
		if defaults.ImagePrefix != "" {
			m.Image = defaults.ImagePrefix + "/" + m.Name
		} else {
			m.Image = m.Name
		}
	}
	if m.ImageSize == nil {
		size := int32(defaultImageSizeMB)
		m.ImageSize = &size
	}
	if m.ReplicaCount == nil {
		replicas := defaults.ReplicaCount
		if replicas < 1 {
			replicas = 1
		}
		m.ReplicaCount = &replicas
	}
	if m.Health != nil && m.Health.Wait == 0 {
		m.Health.Wait = defaultHealthWaitSeconds
	}
	for i := range m.CronJobs {
		if m.CronJobs[i].Image == "" {
			m.CronJobs[i].Image = m.Image
		}
		if m.CronJobs[i].Version == "" {
			m.CronJobs[i].Version = m.Version
		}
	}
}

func mergeMap(base, override map[string]string) map[string]string {
	if len(override) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string]string, len(override))
	}
	for key, value := range override {
		base[key] = value
	}
	return base
}

// mergeNamed overlays override elements onto base by name: same-named
// entries are replaced in place, new ones appended in override order
func mergeNamed[T any](base, override []T, name func(T) string) []T {
	if len(override) == 0 {
		return base
	}
	merged := make([]T, len(base))
	copy(merged, base)
	for _, entry := range override {
		replaced := false
		for i := range merged {
			if name(merged[i]) == name(entry) {
				merged[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, entry)
		}
	}
	return merged
}
