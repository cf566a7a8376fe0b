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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flotilla-dev/flotilla/pkg/fleet"
	"github.com/flotilla-dev/flotilla/pkg/manifest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const fleetConfig = `
defaults:
  imagePrefix: quay.io/acme
  chart: base
  replicaCount: 2
clusters:
  kops-eu:
    api: https://api.kops-eu.example.com
    regions: ["dev-eu"]
contextAliases:
  dev-eu-west-1: dev-eu
regions:
  - name: dev-eu
    cluster: kops-eu
    namespace: dev
    environment: dev
    vault:
      url: https://vault.example.com
      folder: dev
`

// writeFleet lays out a manifest root with the fleet configuration and a
// few services, and points the shared flags at it
func writeFleet(services map[string]string) string {
	root := GinkgoT().TempDir()
	Expect(os.WriteFile(filepath.Join(root, defaultConfigFile),
		[]byte(fleetConfig), 0o600)).To(Succeed())

	for name, body := range services {
		dir := filepath.Join(root, "services", name)
		Expect(os.MkdirAll(dir, 0o750)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "service.yml"),
			[]byte(body), 0o600)).To(Succeed())
	}

	ManifestRoot = root
	return root
}

var _ = Describe("Shared command state", func() {
	BeforeEach(func() {
		manifestRoot := ManifestRoot
		configPath := ConfigPath
		regionName := RegionName
		cached := conf
		DeferCleanup(func() {
			ManifestRoot = manifestRoot
			ConfigPath = configPath
			RegionName = regionName
			conf = cached
		})
		ConfigPath = ""
		RegionName = ""
		conf = nil
	})

	It("loads the fleet configuration from the manifest root", func() {
		writeFleet(nil)

		loaded, err := LoadConfig()
		Expect(err).ToNot(HaveOccurred())
		Expect(loaded.Defaults.Chart).To(Equal("base"))
		Expect(loaded.RegionNames()).To(ConsistOf("dev-eu"))
	})

	It("prefers an explicit configuration path over the default", func() {
		writeFleet(nil)
		ConfigPath = filepath.Join(GinkgoT().TempDir(), "other.yml")
		Expect(os.WriteFile(ConfigPath, []byte(fleetConfig), 0o600)).To(Succeed())

		_, err := LoadConfig()
		Expect(err).ToNot(HaveOccurred())
	})

	It("resolves the region from the flag", func() {
		writeFleet(nil)
		RegionName = "dev-eu"

		_, region, err := CurrentRegion()
		Expect(err).ToNot(HaveOccurred())
		Expect(region.Namespace).To(Equal("dev"))
	})

	It("resolves context aliases like the kube context they come from", func() {
		writeFleet(nil)
		RegionName = "dev-eu-west-1"

		_, region, err := CurrentRegion()
		Expect(err).ToNot(HaveOccurred())
		Expect(region.Name).To(Equal("dev-eu"))
	})

	It("falls back to the environment when no flag is passed", func() {
		writeFleet(nil)
		GinkgoT().Setenv(regionEnv, "dev-eu")

		_, region, err := CurrentRegion()
		Expect(err).ToNot(HaveOccurred())
		Expect(region.Name).To(Equal("dev-eu"))
	})

	It("refuses to guess when no region is requested anywhere", func() {
		writeFleet(nil)
		GinkgoT().Setenv(regionEnv, "")

		_, _, err := CurrentRegion()
		Expect(err).To(MatchError(ContainSubstring("pass --region or set FLOTILLA_REGION")))
	})

	It("lists the configured regions when the requested one is unknown", func() {
		writeFleet(nil)
		RegionName = "prod-mars"

		_, _, err := CurrentRegion()
		Expect(err).To(MatchError("region prod-mars is not configured, try one of: dev-eu"))
	})

	It("lists only services deployable in the region", func() {
		writeFleet(map[string]string{
			"webapp":  "regions: [\"dev-eu\"]\n",
			"retired": "disabled: true\nregions: [\"dev-eu\"]\n",
			"usonly":  "regions: [\"prod-us\"]\n",
		})
		_, region, err := fleetRegion()
		Expect(err).ToNot(HaveOccurred())

		deployable, err := AvailableInRegion(region)
		Expect(err).ToNot(HaveOccurred())
		Expect(deployable).To(Equal([]string{"webapp"}))
	})

	It("expands --all into the deployable services", func() {
		writeFleet(map[string]string{
			"webapp": "regions: [\"dev-eu\"]\n",
			"worker": "regions: [\"dev-eu\"]\n",
		})
		_, region, err := fleetRegion()
		Expect(err).ToNot(HaveOccurred())

		services, err := ResolveServices(nil, true, region)
		Expect(err).ToNot(HaveOccurred())
		Expect(services).To(Equal([]string{"webapp", "worker"}))
	})

	It("passes explicit service arguments through untouched", func() {
		writeFleet(nil)
		_, region, err := fleetRegion()
		Expect(err).ToNot(HaveOccurred())

		services, err := ResolveServices([]string{"webapp"}, false, region)
		Expect(err).ToNot(HaveOccurred())
		Expect(services).To(Equal([]string{"webapp"}))
	})

	It("demands either service names or --all", func() {
		writeFleet(nil)
		_, region, err := fleetRegion()
		Expect(err).ToNot(HaveOccurred())

		_, err = ResolveServices(nil, false, region)
		Expect(err).To(MatchError("no services given, pass service names or --all"))
	})
})

func fleetRegion() (*fleet.Config, fleet.Region, error) {
	RegionName = "dev-eu"
	return CurrentRegion()
}

var _ = Describe("Exit code classification", func() {
	It("maps a clean run to zero", func() {
		Expect(ExitCode(nil)).To(Equal(0))
	})

	It("maps unclassified errors to the generic code", func() {
		Expect(ExitCode(errors.New("boom"))).To(Equal(ExitGeneric))
	})

	It("maps validation errors to their own code", func() {
		err := fmt.Errorf("loading webapp: %w", &manifest.ValidationError{
			Service: "webapp",
			Reason:  "resources is mandatory",
		})
		Expect(ExitCode(err)).To(Equal(ExitValidation))
	})

	It("maps internal errors to their own code", func() {
		Expect(ExitCode(&manifest.InternalError{Field: "region"})).To(Equal(ExitInternal))
	})

	It("honors an explicit exit error, even wrapped", func() {
		err := fmt.Errorf("upgrade: %w", &ExitError{
			Code: ExitPartial,
			Err:  errors.New("rollout partially failed"),
		})
		Expect(ExitCode(err)).To(Equal(ExitPartial))
	})

	It("exposes the wrapped message", func() {
		err := &ExitError{Code: ExitRollout, Err: errors.New("rollout failed")}
		Expect(err).To(MatchError("rollout failed"))
		Expect(errors.Unwrap(err)).To(MatchError("rollout failed"))
	})
})
