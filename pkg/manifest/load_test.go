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
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/flotilla-dev/flotilla/pkg/vault"
)

const sampleService = `
name: webapp
regions:
  - dev-eu
  - staging-eu
metadata:
  team: platform
version: 1.2.3
resources:
  requests:
    cpu: 100m
    memory: 128Mi
  limits:
    cpu: 500m
    memory: 512Mi
httpPort: 8080
health:
  uri: /health
env:
  LOG_LEVEL: info
  DATABASE_URL: IN_VAULT
  CALLBACK_URL: "{{ .BaseURLs.external }}/callback"
`

func writeServiceFile(root, service, name, content string) {
	dir := filepath.Join(root, servicesDir, service)
	Expect(os.MkdirAll(dir, 0o750)).To(Succeed())
	Expect(os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600)).To(Succeed())
}

var _ = Describe("Manifest discovery", func() {
	It("lists only folders carrying a base manifest, sorted", func() {
		root := GinkgoT().TempDir()
		writeServiceFile(root, "webapp", baseManifestFile, sampleService)
		writeServiceFile(root, "api", baseManifestFile, "name: api\n")
		writeServiceFile(root, "scratch", "notes.txt", "not a manifest")

		services, err := Available(root)
		Expect(err).ToNot(HaveOccurred())
		Expect(services).To(Equal([]string{"api", "webapp"}))
	})

	It("fails on a root without a services folder", func() {
		_, err := Available(GinkgoT().TempDir())
		Expect(err).To(MatchError(ContainSubstring("cannot list services")))
	})
})

var _ = Describe("Raw manifest loading", func() {
	It("strict-decodes a base manifest", func() {
		root := GinkgoT().TempDir()
		writeServiceFile(root, "webapp", baseManifestFile, sampleService)

		m, err := LoadRaw(root, "webapp")
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Name).To(Equal("webapp"))
		Expect(m.Version).To(Equal("1.2.3"))
		Expect(m.Env.VaultKeys()).To(Equal([]string{"DATABASE_URL"}))
		Expect(m.Kind).To(BeEmpty())
	})

	It("derives the name from the folder when omitted", func() {
		root := GinkgoT().TempDir()
		writeServiceFile(root, "nameless", baseManifestFile, "version: 1.0.0\n")

		m, err := LoadRaw(root, "nameless")
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Name).To(Equal("nameless"))
	})

	It("rejects a name that disagrees with its folder", func() {
		root := GinkgoT().TempDir()
		writeServiceFile(root, "webapp", baseManifestFile, "name: impostor\n")

		_, err := LoadRaw(root, "webapp")
		Expect(err).To(MatchError(ContainSubstring(`manifest name "impostor" does not match its folder`)))
	})

	It("rejects unknown fields outright", func() {
		root := GinkgoT().TempDir()
		writeServiceFile(root, "webapp", baseManifestFile, sampleService+"\nbogusKnob: true\n")

		_, err := LoadRaw(root, "webapp")
		Expect(err).To(MatchError(ContainSubstring("bogusKnob")))
	})

	It("rejects output fields in input", func() {
		root := GinkgoT().TempDir()
		writeServiceFile(root, "webapp", baseManifestFile, sampleService+"\nregion: dev-eu\n")

		_, err := LoadRaw(root, "webapp")
		Expect(err).To(MatchError(ContainSubstring("region is an output field")))
	})

	It("rejects pre-rendered config values in input", func() {
		root := GinkgoT().TempDir()
		manifest := sampleService + `
configs:
  mount: /config/
  files:
    - name: app.yml.j2
      value: sneaky
`
		writeServiceFile(root, "webapp", baseManifestFile, manifest)

		_, err := LoadRaw(root, "webapp")
		Expect(err).To(MatchError(ContainSubstring("outputs and are illegal")))
	})
})

var _ = Describe("Merged manifest loading", func() {
	It("resolves a service for a region", func() {
		root := GinkgoT().TempDir()
		writeServiceFile(root, "webapp", baseManifestFile, sampleService)
		writeServiceFile(root, "webapp", "dev-eu.yml", "version: 2.0.0\nenv:\n  LOG_LEVEL: debug\n")

		m, err := LoadMerged(root, "webapp", testConfig(), testRegion())
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Version).To(Equal("2.0.0"))
		Expect(m.Env.Plain()).To(HaveKeyWithValue("LOG_LEVEL", "debug"))
		Expect(m.Region).To(Equal("dev-eu"))
		Expect(m.Image).To(Equal("registry.example.com/fleet/webapp"))
		Expect(m.Kind).To(Equal(KindBase))
		Expect(m.Env.Templates()).To(
			HaveKeyWithValue("CALLBACK_URL", "https://dev.example.com/callback"))
	})

	It("resolves without an override file", func() {
		root := GinkgoT().TempDir()
		writeServiceFile(root, "webapp", baseManifestFile, sampleService)

		m, err := LoadMerged(root, "webapp", testConfig(), testRegion())
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Version).To(Equal("1.2.3"))
	})

	It("refuses disabled services", func() {
		root := GinkgoT().TempDir()
		writeServiceFile(root, "webapp", baseManifestFile, sampleService+"\ndisabled: true\n")

		_, err := LoadMerged(root, "webapp", testConfig(), testRegion())
		Expect(err).To(MatchError(ContainSubstring("service is disabled")))
	})

	It("loads and renders declared config templates", func() {
		root := GinkgoT().TempDir()
		manifest := sampleService + `
configs:
  mount: /config/
  files:
    - name: settings.yml.j2
`
		writeServiceFile(root, "webapp", baseManifestFile, manifest)
		writeServiceFile(root, "webapp", "settings.yml.j2", "region: {{ .Region }}\n")

		m, err := LoadMerged(root, "webapp", testConfig(), testRegion())
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Configs.Files[0].Value).To(Equal("region: dev-eu\n"))
		Expect(m.Configs.Files[0].Dest).To(Equal("settings.yml"))
	})

	It("names missing config templates", func() {
		root := GinkgoT().TempDir()
		manifest := sampleService + `
configs:
  mount: /config/
  files:
    - name: missing.yml.j2
`
		writeServiceFile(root, "webapp", baseManifestFile, manifest)

		_, err := LoadMerged(root, "webapp", testConfig(), testRegion())
		Expect(err).To(MatchError(ContainSubstring("cannot read config template missing.yml.j2")))
	})
})

var _ = Describe("Completed manifest loading", func() {
	It("reconciles secrets through the given store", func() {
		root := GinkgoT().TempDir()
		writeServiceFile(root, "webapp", baseManifestFile, sampleService)

		m, err := LoadCompleted(context.Background(), root, "webapp",
			testConfig(), testRegion(), vault.NewMocked())
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Kind).To(Equal(KindCompleted))
		Expect(m.Secrets).To(HaveKeyWithValue("DATABASE_URL", vault.MockedValue))
		Expect(m.Secrets).To(HaveKeyWithValue("CALLBACK_URL", "https://dev.example.com/callback"))
	})
})
