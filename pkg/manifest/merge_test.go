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
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/flotilla-dev/flotilla/pkg/fleet"
)

func testConfig() *fleet.Config {
	return &fleet.Config{
		Defaults: fleet.ManifestDefaults{
			ImagePrefix:  "registry.example.com/fleet",
			Chart:        "base",
			ReplicaCount: 2,
		},
		Teams: []fleet.Team{{Name: "platform"}},
	}
}

func testRegion() fleet.Region {
	return fleet.Region{
		Name:        "dev-eu",
		Cluster:     "kops-eu",
		Namespace:   "dev",
		Environment: "dev",
		Vault: fleet.VaultConfig{
			URL:    "https://vault.example.com:8200",
			Folder: "dev-eu",
		},
		BaseURLs: map[string]string{
			"external": "https://dev.example.com",
		},
	}
}

func int32Ptr(value int32) *int32 {
	return &value
}

func rawManifest() *Manifest {
	m := &Manifest{
		Name:    "webapp",
		Regions: []string{"dev-eu", "staging-eu"},
		Metadata: &Metadata{
			Team: "platform",
		},
		Version: "1.2.3",
		Resources: &Resources{
			Requests: ResourceRequest{CPU: "100m", Memory: "128Mi"},
			Limits:   ResourceRequest{CPU: "500m", Memory: "512Mi"},
		},
		HTTPPort: int32Ptr(8080),
		Health:   &HealthCheck{URI: "/health"},
	}
	m.Env.Set("LOG_LEVEL", "info")
	m.Env.Set("DATABASE_URL", InVault)
	return m
}

var _ = Describe("Region override merging", func() {
	It("lets override scalars win while keeping unset ones", func() {
		m := rawManifest()
		err := m.MergeOverride(&Manifest{
			Version:      "2.0.0",
			ImageSize:    int32Ptr(1024),
			ReplicaCount: int32Ptr(4),
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Version).To(Equal("2.0.0"))
		Expect(*m.ImageSize).To(Equal(int32(1024)))
		Expect(*m.ReplicaCount).To(Equal(int32(4)))
		Expect(m.HTTPPort).To(HaveValue(Equal(int32(8080))))
		Expect(m.Health.URI).To(Equal("/health"))
	})

	It("merges env vars key-wise", func() {
		m := rawManifest()
		override := &Manifest{}
		override.Env.Set("LOG_LEVEL", "debug")
		override.Env.Set("FEATURE_FLAG", "on")

		Expect(m.MergeOverride(override)).To(Succeed())
		Expect(m.Env.Plain()).To(HaveKeyWithValue("LOG_LEVEL", "debug"))
		Expect(m.Env.Plain()).To(HaveKeyWithValue("FEATURE_FLAG", "on"))
		Expect(m.Env.VaultKeys()).To(Equal([]string{"DATABASE_URL"}))
	})

	It("merges named lists by element name and appends new elements", func() {
		m := rawManifest()
		m.Workers = []Worker{
			{Name: "indexer", ReplicaCount: 1},
			{Name: "mailer", ReplicaCount: 1},
		}
		override := &Manifest{
			Workers: []Worker{
				{Name: "indexer", ReplicaCount: 3},
				{Name: "janitor", ReplicaCount: 1},
			},
		}

		Expect(m.MergeOverride(override)).To(Succeed())
		Expect(m.Workers).To(HaveLen(3))
		Expect(m.Workers[0].Name).To(Equal("indexer"))
		Expect(m.Workers[0].ReplicaCount).To(Equal(int32(3)))
		Expect(m.Workers[1].Name).To(Equal("mailer"))
		Expect(m.Workers[2].Name).To(Equal("janitor"))
	})

	It("merges secret files and labels key-wise", func() {
		m := rawManifest()
		m.SecretFiles = map[string]string{"ca.pem": InVault}
		m.Labels = map[string]string{"tier": "web"}

		Expect(m.MergeOverride(&Manifest{
			SecretFiles: map[string]string{"client.pem": InVault},
			Labels:      map[string]string{"tier": "edge"},
		})).To(Succeed())
		Expect(m.SecretFiles).To(HaveLen(2))
		Expect(m.Labels).To(Equal(map[string]string{"tier": "edge"}))
	})

	It("appends unkeyed lists", func() {
		m := rawManifest()
		m.Tolerations = []Toleration{{Key: "dedicated", Value: "web"}}

		Expect(m.MergeOverride(&Manifest{
			Tolerations: []Toleration{{Key: "dedicated", Value: "batch"}},
		})).To(Succeed())
		Expect(m.Tolerations).To(HaveLen(2))
	})

	It("refuses to change the service name", func() {
		m := rawManifest()
		err := m.MergeOverride(&Manifest{Name: "sneaky"})
		Expect(err).To(MatchError(ContainSubstring("cannot change the service name")))
	})

	It("refuses per-region metadata", func() {
		m := rawManifest()
		err := m.MergeOverride(&Manifest{Metadata: &Metadata{Team: "other"}})
		Expect(err).To(MatchError(ContainSubstring("metadata is global")))
	})

	It("refuses per-region identity flags", func() {
		m := rawManifest()
		err := m.MergeOverride(&Manifest{External: true})
		Expect(err).To(MatchError(ContainSubstring("cannot be set per region")))
	})

	It("refuses a per-region region list", func() {
		m := rawManifest()
		err := m.MergeOverride(&Manifest{Regions: []string{"prod-us"}})
		Expect(err).To(MatchError(ContainSubstring("region list")))
	})
})

var _ = Describe("Manifest completion", func() {
	It("fills region identity and defaults", func() {
		m := rawManifest()
		Expect(m.Complete(testConfig(), testRegion())).To(Succeed())

		Expect(m.Region).To(Equal("dev-eu"))
		Expect(m.Environment).To(Equal("dev"))
		Expect(m.Namespace).To(Equal("dev"))
		Expect(m.Chart).To(Equal("base"))
		Expect(m.Image).To(Equal("registry.example.com/fleet/webapp"))
		Expect(m.ImageSize).To(HaveValue(Equal(int32(512))))
		Expect(m.ReplicaCount).To(HaveValue(Equal(int32(2))))
		Expect(m.Health.Wait).To(Equal(int32(30)))
		Expect(m.Kind).To(Equal(KindBase))
	})

	It("keeps explicit values over defaults", func() {
		m := rawManifest()
		m.Chart = "custom"
		m.Image = "quay.io/acme/webapp"
		m.ImageSize = int32Ptr(2048)
		m.ReplicaCount = int32Ptr(6)

		Expect(m.Complete(testConfig(), testRegion())).To(Succeed())
		Expect(m.Chart).To(Equal("custom"))
		Expect(m.Image).To(Equal("quay.io/acme/webapp"))
		Expect(m.ImageSize).To(HaveValue(Equal(int32(2048))))
		Expect(m.ReplicaCount).To(HaveValue(Equal(int32(6))))
	})

	It("keeps an explicit zero replica count for the validator to reject", func() {
		m := rawManifest()
		m.ReplicaCount = int32Ptr(0)
		Expect(m.Complete(testConfig(), testRegion())).To(Succeed())
		Expect(m.ReplicaCount).To(HaveValue(Equal(int32(0))))
	})

	It("renders templated env values from the region context", func() {
		m := rawManifest()
		m.Env.Set("CALLBACK_URL", "{{ .BaseURLs.external }}/callback")
		m.Env.Set("OWN_REGION", "{{ .Region }}")

		Expect(m.Complete(testConfig(), testRegion())).To(Succeed())
		Expect(m.Env.Templates()).To(HaveKeyWithValue("CALLBACK_URL", "https://dev.example.com/callback"))
		Expect(m.Env.Templates()).To(HaveKeyWithValue("OWN_REGION", "dev-eu"))
	})

	It("renders templated env values in workers and sidecars too", func() {
		m := rawManifest()
		worker := Worker{Name: "indexer", ReplicaCount: 1}
		worker.Env.Set("QUEUE_URL", "{{ .BaseURLs.external }}/queue")
		m.Workers = []Worker{worker}

		Expect(m.Complete(testConfig(), testRegion())).To(Succeed())
		Expect(m.Workers[0].Env.Templates()).To(
			HaveKeyWithValue("QUEUE_URL", "https://dev.example.com/queue"))
	})

	It("renders config file templates in place", func() {
		m := rawManifest()
		m.Configs = &ConfigMap{
			Mount: "/config/",
			Files: []ConfigMappedFile{{
				Name:  "app.yml.j2",
				Dest:  "app.yml",
				Value: "service: {{ .Service }}\nnamespace: {{ .Namespace }}\n",
			}},
		}

		Expect(m.Complete(testConfig(), testRegion())).To(Succeed())
		Expect(m.Configs.Files[0].Value).To(Equal("service: webapp\nnamespace: dev\n"))
	})

	It("fails with a user error on unresolvable template references", func() {
		m := rawManifest()
		m.Env.Set("BROKEN", "{{ .BaseURLs.nonexistent }}")

		err := m.Complete(testConfig(), testRegion())
		var validation *ValidationError
		Expect(errors.As(err, &validation)).To(BeTrue())
		Expect(validation.Service).To(Equal("webapp"))
		Expect(validation.Reason).To(ContainSubstring("BROKEN"))
	})

	It("propagates image and version into cron jobs", func() {
		m := rawManifest()
		m.CronJobs = []CronJob{
			{Name: "nightly", Schedule: "0 3 * * *", Command: []string{"cleanup"}},
			{Name: "pinned", Schedule: "0 4 * * *", Command: []string{"sync"}, Image: "quay.io/acme/sync", Version: "0.9.0"},
		}

		Expect(m.Complete(testConfig(), testRegion())).To(Succeed())
		Expect(m.CronJobs[0].Image).To(Equal("registry.example.com/fleet/webapp"))
		Expect(m.CronJobs[0].Version).To(Equal("1.2.3"))
		Expect(m.CronJobs[1].Image).To(Equal("quay.io/acme/sync"))
		Expect(m.CronJobs[1].Version).To(Equal("0.9.0"))
	})

	It("reports a pipeline defect when no chart can be derived", func() {
		m := rawManifest()
		conf := testConfig()
		conf.Defaults.Chart = ""

		err := m.Complete(conf, testRegion())
		var internal *InternalError
		Expect(errors.As(err, &internal)).To(BeTrue())
		Expect(internal.Field).To(Equal("chart"))
	})
})
