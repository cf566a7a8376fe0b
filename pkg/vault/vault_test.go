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

package vault

import (
	"errors"
	"path/filepath"

	"github.com/flotilla-dev/flotilla/pkg/configparser"
	"github.com/flotilla-dev/flotilla/pkg/fileutils"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store coordinates resolution", func() {
	It("resolves the address from the environment", func() {
		env := configparser.MapEnvironment{"VAULT_ADDR": "https://vault.example.com"}
		addr, err := ResolveAddr(env)
		Expect(err).ToNot(HaveOccurred())
		Expect(addr).To(Equal("https://vault.example.com"))
	})

	It("fails with the address sentinel when unset", func() {
		_, err := ResolveAddr(configparser.MapEnvironment{})
		Expect(errors.Is(err, ErrMissingAddr)).To(BeTrue())
	})

	It("prefers the token variable over the token file", func() {
		home := GinkgoT().TempDir()
		GinkgoT().Setenv("HOME", home)
		Expect(fileutils.WriteStringToFile(
			filepath.Join(home, ".vault-token"), "from-file")).To(Succeed())

		env := configparser.MapEnvironment{"VAULT_TOKEN": "from-env"}
		token, err := ResolveToken(env)
		Expect(err).ToNot(HaveOccurred())
		Expect(token).To(Equal("from-env"))
	})

	It("falls back to the login token file, trimming whitespace", func() {
		home := GinkgoT().TempDir()
		GinkgoT().Setenv("HOME", home)
		Expect(fileutils.WriteStringToFile(
			filepath.Join(home, ".vault-token"), "  s.fromfile\n")).To(Succeed())

		token, err := ResolveToken(configparser.MapEnvironment{})
		Expect(err).ToNot(HaveOccurred())
		Expect(token).To(Equal("s.fromfile"))
	})

	It("fails with the token sentinel when nothing is configured", func() {
		home := GinkgoT().TempDir()
		GinkgoT().Setenv("HOME", home)

		_, err := ResolveToken(configparser.MapEnvironment{})
		Expect(errors.Is(err, ErrMissingToken)).To(BeTrue())
	})
})
