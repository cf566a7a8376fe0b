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
)

// Region is one deployable slice of the fleet: a namespace on a cluster,
// with its own secret store folder and template context
type Region struct {
	// Name identifies the region, e.g. dev-eu-west-1
	Name string `json:"name"`

	// Cluster is the name of the cluster the region is scheduled on
	Cluster string `json:"cluster"`

	// Namespace is the Kubernetes namespace backing the region
	Namespace string `json:"namespace"`

	// Environment classifies the region, e.g. dev or prod
	Environment string `json:"environment"`

	// Versioning restricts the version strings accepted in this region
	Versioning VersionScheme `json:"versioningScheme,omitempty"`

	// Vault locates the secret store slice of this region
	Vault VaultConfig `json:"vault"`

	// BaseURLs are exposed to templated manifest values
	BaseURLs map[string]string `json:"baseUrls,omitempty"`

	// Kong describes the API gateway of the region, exposed to templated
	// manifest values
	Kong KongConfig `json:"kong,omitempty"`
}

// VaultConfig locates the secret store slice of a region
type VaultConfig struct {
	// URL is the address of the secret store
	URL string `json:"url"`

	// Folder is the region folder every service path starts with
	Folder string `json:"folder"`
}

// KongConfig is the region-level API gateway description
type KongConfig struct {
	// ConfigURL is where the gateway configuration is published
	ConfigURL string `json:"configUrl,omitempty"`

	// Consumers are the OAuth consumers services may reference in
	// templated values
	Consumers map[string]KongOauthConsumer `json:"consumers,omitempty"`
}

// KongOauthConsumer is one OAuth consumer registered on the gateway
type KongOauthConsumer struct {
	OauthClientID     string `json:"oauthClientId"`
	OauthClientSecret string `json:"oauthClientSecret"`
}

// Verify checks that the region is usable on its own
func (r Region) Verify() error {
	if r.Name == "" {
		return fmt.Errorf("fleet configuration has a region without a name")
	}
	if r.Namespace == "" {
		return fmt.Errorf("region %q has no namespace", r.Name)
	}
	if r.Environment == "" {
		return fmt.Errorf("region %q has no environment", r.Name)
	}
	if r.Vault.URL == "" {
		return fmt.Errorf("region %q has no secret store url", r.Name)
	}
	if r.Vault.Folder == "" {
		return fmt.Errorf("region %q has no secret store folder", r.Name)
	}
	if err := r.Versioning.Known(); err != nil {
		return fmt.Errorf("region %q: %w", r.Name, err)
	}
	return nil
}
