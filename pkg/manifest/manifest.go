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

// Package manifest holds the canonical description of one deployable
// service in one region, together with the merge, templating, validation,
// and secret-reconciliation steps that turn user-written files into it.
package manifest

import (
	corev1 "k8s.io/api/core/v1"
)

// Kind tracks how far through the resolution pipeline a manifest has come
type Kind string

const (
	// KindBase is a manifest merged from its region files with defaults and
	// templates applied, secret placeholders intact
	KindBase Kind = "base"

	// KindCompleted additionally carries its secrets, ready for rollout
	KindCompleted Kind = "completed"
)

// Manifest is the fully resolved description of one service in one region.
//
// User files only populate the input fields; the output block at the bottom
// is filled by the resolution pipeline and is illegal in manifests.
type Manifest struct {
	// Name of the service. Must match the manifest folder name and the
	// usual dns constraints: ^[0-9a-z-]{1,50}$ with no edge dashes.
	Name string `json:"name"`

	// PubliclyAccessible exposes the service outside the cluster edge
	PubliclyAccessible bool `json:"publiclyAccessible,omitempty"`

	// External marks the service as a reference-only entry that is not
	// rolled out from here. Cancels all but the most basic validation.
	External bool `json:"external,omitempty"`

	// Disabled blocks usage of this service in all regions
	Disabled bool `json:"disabled,omitempty"`

	// Regions that are allowed to deploy this service
	Regions []string `json:"regions,omitempty"`

	// Metadata carries ownership, contacts, and repository links
	Metadata *Metadata `json:"metadata,omitempty"`

	// Chart overrides the default helm chart for the service
	Chart string `json:"chart,omitempty"`

	// Image is the container image; defaults to imagePrefix/name
	Image string `json:"image,omitempty"`

	// ImageSize is the uncompressed image size in MB, used to estimate
	// rollout wait budgets
	ImageSize *int32 `json:"imageSize,omitempty"`

	// Version is the image tag to deploy. Verified against the region's
	// version scheme; when omitted, rollouts reuse the installed version.
	Version string `json:"version,omitempty"`

	// Command overrides the image entrypoint
	Command []string `json:"command,omitempty"`

	// Language the service is written in; informational only
	Language string `json:"language,omitempty"`

	// Resources are the kubernetes requests and limits for the main
	// container. Mandatory for anything that is rolled out.
	Resources *Resources `json:"resources,omitempty"`

	// ReplicaCount for the main deployment; autoScaling takes precedence
	// at runtime when both are set
	ReplicaCount *int32 `json:"replicaCount,omitempty"`

	// Env vars for the main container. Values equal to IN_VAULT are
	// fetched from the secret store; values containing {{ are rendered
	// from the region template context and treated as secrets.
	Env EnvVars `json:"env,omitempty"`

	// SecretFiles are base64 payloads keyed by file name; IN_VAULT values
	// are fetched from the secret store during reconciliation
	SecretFiles map[string]string `json:"secretFiles,omitempty"`

	// Configs inlines templated config files into a config map
	Configs *ConfigMap `json:"configs,omitempty"`

	// Vault overrides which service's secret folder is read.
	// Rarely needed; prefer per-service secrets.
	Vault *VaultOpts `json:"vault,omitempty"`

	// HTTPPort is the service's main http listener. Declaring one makes a
	// health check mandatory.
	HTTPPort *int32 `json:"httpPort,omitempty"`

	// Ports are extra named ports for traffic outside the gateway
	Ports []Port `json:"ports,omitempty"`

	// ExternalPort is the load-balancer facing port, when exposed directly
	ExternalPort *int32 `json:"externalPort,omitempty"`

	// Health is a convenience wrapper turned into an http readiness probe
	Health *HealthCheck `json:"health,omitempty"`

	// ReadinessProbe gates rolling upgrades, straight from kubernetes
	ReadinessProbe *corev1.Probe `json:"readinessProbe,omitempty"`

	// LivenessProbe restarts wedged pods, straight from kubernetes
	LivenessProbe *corev1.Probe `json:"livenessProbe,omitempty"`

	// Lifecycle runs postStart/preStop hooks, straight from kubernetes
	Lifecycle *corev1.Lifecycle `json:"lifecycle,omitempty"`

	// Dependencies on other services; feeds the deployment graph
	Dependencies []Dependency `json:"dependencies,omitempty"`

	// Workers are separately scaled auxiliary deployments
	Workers []Worker `json:"workers,omitempty"`

	// Sidecars are injected into the main deployment and all workers
	Sidecars []Sidecar `json:"sidecars,omitempty"`

	// InitContainers run to completion before the main containers boot
	InitContainers []InitContainer `json:"initContainers,omitempty"`

	// RollingUpdate tunes upgrade aggressiveness; also feeds the rollout
	// wait-budget estimate
	RollingUpdate *RollingUpdate `json:"rollingUpdate,omitempty"`

	// AutoScaling passes horizontal pod autoscaler parameters to the chart
	AutoScaling *AutoScaling `json:"autoScaling,omitempty"`

	// Tolerations bind the service to tainted nodes
	Tolerations []Toleration `json:"tolerations,omitempty"`

	// HostAliases add /etc/hosts entries to every pod
	HostAliases []HostAlias `json:"hostAliases,omitempty"`

	// Volumes available to the pod, straight from kubernetes
	Volumes []corev1.Volume `json:"volumes,omitempty"`

	// VolumeMounts for the main container, straight from kubernetes
	VolumeMounts []corev1.VolumeMount `json:"volumeMounts,omitempty"`

	// PersistentVolumes provision claims mounted by the main deployment
	PersistentVolumes []PersistentVolume `json:"persistentVolumes,omitempty"`

	// CronJobs run scheduled commands with the service's image
	CronJobs []CronJob `json:"cronJobs,omitempty"`

	// ServiceAnnotations are set on the kubernetes service object
	ServiceAnnotations map[string]string `json:"serviceAnnotations,omitempty"`

	// Labels are stamped on every generated kubernetes object
	Labels map[string]string `json:"labels,omitempty"`

	// Kong is the api-gateway routing entry
	Kong *Kong `json:"kong,omitempty"`

	// Gate configures the edge gateway; requires a kong block
	Gate *Gate `json:"gate,omitempty"`

	// Hosts override the gateway host list
	Hosts []string `json:"hosts,omitempty"`

	// SourceRanges are CIDR firewall exceptions for load-balanced services
	SourceRanges []string `json:"sourceRanges,omitempty"`

	// Rbac rules granted to the service account
	Rbac []Rbac `json:"rbac,omitempty"`

	// Database provisions a managed relational database
	Database *Rds `json:"database,omitempty"`

	// Redis provisions a managed cache cluster
	Redis *ElastiCache `json:"redis,omitempty"`

	// ------------------------------------------------------------------
	// Output block. Filled by the resolution pipeline, illegal in input.
	// ------------------------------------------------------------------

	// Region the manifest was resolved for
	Region string `json:"region,omitempty"`

	// Environment of the resolved region
	Environment string `json:"environment,omitempty"`

	// Namespace of the resolved region
	Namespace string `json:"namespace,omitempty"`

	// Secrets resolved from the store and from templated env values
	Secrets map[string]string `json:"secrets,omitempty"`

	// Kind tracks the resolution stage
	Kind Kind `json:"kind,omitempty"`
}

// VaultOpts overrides which secret folder a manifest reads. Name points at
// another service's folder; Region optionally crosses region folders.
type VaultOpts struct {
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}

// SetVersion overrides the manifest version when one is supplied
func (m *Manifest) SetVersion(version string) {
	if version != "" {
		m.Version = version
	}
}

// SecretValues returns the raw resolved secret values, without their keys.
// Useful for obfuscating output.
func (m *Manifest) SecretValues() []string {
	values := make([]string, 0, len(m.Secrets))
	for _, value := range m.Secrets {
		values = append(values, value)
	}
	return values
}

// envContainers returns every env var set in the manifest: the main one,
// then sidecars, workers, and cron jobs
func (m *Manifest) envContainers() []*EnvVars {
	containers := []*EnvVars{&m.Env}
	for i := range m.Sidecars {
		containers = append(containers, &m.Sidecars[i].Env)
	}
	for i := range m.Workers {
		containers = append(containers, &m.Workers[i].Env)
	}
	for i := range m.CronJobs {
		containers = append(containers, &m.CronJobs[i].Env)
	}
	return containers
}
