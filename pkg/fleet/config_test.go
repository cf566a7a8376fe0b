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
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const sampleConfig = `
defaults:
  imagePrefix: registry.example.com/fleet
  chart: base
  replicaCount: 2
clusters:
  kops-eu:
    api: https://api.kops-eu.example.com
    regions:
      - dev-eu
      - staging-eu
contextAliases:
  dev: dev-eu
regions:
  - name: dev-eu
    cluster: kops-eu
    namespace: dev
    environment: dev
    vault:
      url: https://vault.example.com:8200
      folder: dev-eu
  - name: staging-eu
    cluster: kops-eu
    namespace: staging
    environment: staging
    versioningScheme: Semver
    vault:
      url: https://vault.example.com:8200
      folder: staging-eu
teams:
  - name: platform
    owners:
      - name: Ada
        slack: "@ada"
`

func writeConfig(content string) string {
	path := filepath.Join(GinkgoT().TempDir(), "flotilla.yml")
	Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
	return path
}

var _ = Describe("Fleet configuration loading", func() {
	It("loads and verifies a well-formed configuration", func() {
		config, err := LoadConfig(writeConfig(sampleConfig))
		Expect(err).ToNot(HaveOccurred())
		Expect(config.Regions).To(HaveLen(2))
		Expect(config.Defaults.ReplicaCount).To(Equal(int32(2)))
		Expect(config.RegionNames()).To(Equal([]string{"dev-eu", "staging-eu"}))
		Expect(config.HasTeam("platform")).To(BeTrue())
		Expect(config.HasTeam("ghosts")).To(BeFalse())
	})

	It("rejects unknown fields", func() {
		_, err := LoadConfig(writeConfig(sampleConfig + "\nsurprise: true\n"))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("surprise"))
	})

	It("rejects a region bound to a missing cluster", func() {
		broken := `
defaults:
  imagePrefix: registry.example.com/fleet
  chart: base
  replicaCount: 1
clusters: {}
regions:
  - name: dev-eu
    cluster: kops-eu
    namespace: dev
    environment: dev
    vault:
      url: https://vault.example.com:8200
      folder: dev-eu
`
		_, err := LoadConfig(writeConfig(broken))
		Expect(err).To(MatchError(ContainSubstring(`unknown cluster "kops-eu"`)))
	})

	It("rejects a cluster that does not schedule its region", func() {
		broken := `
defaults:
  imagePrefix: registry.example.com/fleet
  chart: base
  replicaCount: 1
clusters:
  kops-eu:
    api: https://api.kops-eu.example.com
    regions: []
regions:
  - name: dev-eu
    cluster: kops-eu
    namespace: dev
    environment: dev
    vault:
      url: https://vault.example.com:8200
      folder: dev-eu
`
		_, err := LoadConfig(writeConfig(broken))
		Expect(err).To(MatchError(ContainSubstring("does not schedule region")))
	})

	It("rejects an alias pointing nowhere", func() {
		config := &Config{
			Regions: []Region{{
				Name:        "dev-eu",
				Cluster:     "kops-eu",
				Namespace:   "dev",
				Environment: "dev",
				Vault:       VaultConfig{URL: "https://v", Folder: "dev-eu"},
			}},
			Clusters: map[string]Cluster{
				"kops-eu": {API: "https://api", Regions: []string{"dev-eu"}},
			},
			ContextAliases: map[string]string{"dev": "atlantis"},
		}
		Expect(config.Verify()).To(MatchError(ContainSubstring(`unknown region "atlantis"`)))
	})

	It("rejects contacts without a slack handle", func() {
		Expect(Contact{Name: "Ada", Slack: "ada"}.Verify()).To(HaveOccurred())
		Expect(Contact{Name: "Ada", Slack: "@ada"}.Verify()).To(Succeed())
	})
})

var _ = Describe("Region resolution", func() {
	var config *Config

	BeforeEach(func() {
		loaded, err := LoadConfig(writeConfig(sampleConfig))
		Expect(err).ToNot(HaveOccurred())
		config = loaded
	})

	It("resolves a region by name", func() {
		region, found := config.GetRegion("staging-eu")
		Expect(found).To(BeTrue())
		Expect(region.Namespace).To(Equal("staging"))
		Expect(region.Versioning).To(Equal(VersionSchemeSemver))
	})

	It("resolves a context alias", func() {
		region, found := config.GetRegion("dev")
		Expect(found).To(BeTrue())
		Expect(region.Name).To(Equal("dev-eu"))
	})

	It("reports unknown regions", func() {
		_, found := config.GetRegion("atlantis")
		Expect(found).To(BeFalse())
	})
})
