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
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"sigs.k8s.io/yaml"
)

var _ = Describe("Env var classification", func() {
	var env EnvVars

	BeforeEach(func() {
		env = EnvVars{}
		env.Set("LOG_LEVEL", "debug")
		env.Set("DATABASE_URL", InVault)
		env.Set("CALLBACK_URL", "{{ .BaseURLs.external }}/callback")
	})

	It("partitions values into plain, store-sourced and templated", func() {
		plain, found := env.Get("LOG_LEVEL")
		Expect(found).To(BeTrue())
		Expect(plain.Source).To(Equal(SourcePlain))
		Expect(plain.Rendered).To(Equal("debug"))

		stored, found := env.Get("DATABASE_URL")
		Expect(found).To(BeTrue())
		Expect(stored.Source).To(Equal(SourceVault))

		templated, found := env.Get("CALLBACK_URL")
		Expect(found).To(BeTrue())
		Expect(templated.Source).To(Equal(SourceTemplate))
	})

	It("keeps each partition disjoint", func() {
		Expect(env.Plain()).To(Equal(map[string]string{"LOG_LEVEL": "debug"}))
		Expect(env.VaultKeys()).To(Equal([]string{"DATABASE_URL"}))
		Expect(env.Templates()).To(HaveKey("CALLBACK_URL"))
		Expect(env.Templates()).NotTo(HaveKey("LOG_LEVEL"))
		Expect(env.Len()).To(Equal(3))
	})

	It("lists keys in a stable order", func() {
		Expect(env.Keys()).To(Equal([]string{"CALLBACK_URL", "DATABASE_URL", "LOG_LEVEL"}))
	})

	It("falls back to the raw template text before rendering has run", func() {
		Expect(env.Templates()["CALLBACK_URL"]).To(Equal("{{ .BaseURLs.external }}/callback"))
	})

	It("exposes rendered values after rendering", func() {
		err := env.Render(func(raw string) (string, error) {
			return strings.ReplaceAll(raw, "{{ .BaseURLs.external }}", "https://dev.example.com"), nil
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(env.Templates()["CALLBACK_URL"]).To(Equal("https://dev.example.com/callback"))
	})

	It("names the variable when rendering fails", func() {
		err := env.Render(func(string) (string, error) {
			return "", errors.New("no such key")
		})
		Expect(err).To(MatchError(ContainSubstring("failed to render env var CALLBACK_URL")))
	})

	It("never hands templated values to the renderer twice the same run", func() {
		calls := 0
		err := env.Render(func(raw string) (string, error) {
			calls++
			return raw, nil
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(calls).To(Equal(1))
	})
})

var _ = Describe("Env var merging", func() {
	It("overlays keys from the override, keeping untouched base keys", func() {
		base := EnvVars{}
		base.Set("LOG_LEVEL", "info")
		base.Set("DATABASE_URL", InVault)

		override := EnvVars{}
		override.Set("LOG_LEVEL", "debug")
		override.Set("FEATURE_FLAG", "on")

		base.Merge(override)
		Expect(base.Len()).To(Equal(3))
		Expect(base.Plain()).To(HaveKeyWithValue("LOG_LEVEL", "debug"))
		Expect(base.Plain()).To(HaveKeyWithValue("FEATURE_FLAG", "on"))
		Expect(base.VaultKeys()).To(Equal([]string{"DATABASE_URL"}))
	})

	It("can reclassify a key through an override", func() {
		base := EnvVars{}
		base.Set("API_KEY", "dev-dummy")

		override := EnvVars{}
		override.Set("API_KEY", InVault)

		base.Merge(override)
		Expect(base.Plain()).To(BeEmpty())
		Expect(base.VaultKeys()).To(Equal([]string{"API_KEY"}))
	})
})

var _ = Describe("Env var verification", func() {
	It("accepts conventional env identifiers", func() {
		env := EnvVars{}
		env.Set("HTTP_PROXY", "none")
		env.Set("_INTERNAL", "1")
		Expect(env.Verify()).To(Succeed())
	})

	It("rejects lowercase names", func() {
		env := EnvVars{}
		env.Set("databaseUrl", InVault)
		Expect(env.Verify()).To(MatchError(ContainSubstring("found databaseUrl")))
	})

	It("rejects names starting with a digit", func() {
		env := EnvVars{}
		env.Set("1PASSWORD", "x")
		Expect(env.Verify()).To(MatchError(ContainSubstring("uppercase alphanumerics")))
	})
})

var _ = Describe("Env var decoding", func() {
	It("re-derives the classification when loaded from a manifest", func() {
		var env EnvVars
		raw := `
LOG_LEVEL: info
DATABASE_URL: IN_VAULT
CALLBACK_URL: "{{ .BaseURLs.external }}/cb"
`
		Expect(yaml.Unmarshal([]byte(raw), &env)).To(Succeed())
		Expect(env.Plain()).To(Equal(map[string]string{"LOG_LEVEL": "info"}))
		Expect(env.VaultKeys()).To(Equal([]string{"DATABASE_URL"}))
		Expect(env.Templates()).To(HaveKey("CALLBACK_URL"))
	})

	It("round-trips the raw values", func() {
		env := EnvVars{}
		env.Set("DATABASE_URL", InVault)
		env.Set("LOG_LEVEL", "info")

		data, err := yaml.Marshal(env)
		Expect(err).ToNot(HaveOccurred())

		var reloaded EnvVars
		Expect(yaml.Unmarshal(data, &reloaded)).To(Succeed())
		Expect(reloaded.VaultKeys()).To(Equal([]string{"DATABASE_URL"}))
		Expect(reloaded.Plain()).To(Equal(map[string]string{"LOG_LEVEL": "info"}))
	})
})
