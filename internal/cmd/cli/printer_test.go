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
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Machine-readable printing", func() {
	payload := struct {
		Service string `json:"service"`
		Version string `json:"version"`
	}{Service: "webapp", Version: "2.0.0"}

	It("renders indented JSON with a final newline", func() {
		buffer := &bytes.Buffer{}
		Expect(Print(payload, OutputFormatJSON, buffer)).To(Succeed())
		Expect(buffer.String()).To(Equal(
			"{\n  \"service\": \"webapp\",\n  \"version\": \"2.0.0\"\n}\n"))
	})

	It("renders YAML", func() {
		buffer := &bytes.Buffer{}
		Expect(Print(payload, OutputFormatYAML, buffer)).To(Succeed())
		Expect(buffer.String()).To(Equal("service: webapp\nversion: 2.0.0\n"))
	})

	It("refuses formats it does not know", func() {
		buffer := &bytes.Buffer{}
		err := Print(payload, OutputFormat("toml"), buffer)
		Expect(err).To(MatchError(`unknown output format "toml"`))
		Expect(buffer.Len()).To(BeZero())
	})
})
