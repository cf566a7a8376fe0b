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
	"bytes"
	"fmt"
	"text/template"

	"github.com/flotilla-dev/flotilla/pkg/fleet"
)

// TemplateContext is the data available to inline env value and config file
// templates. Region-derived entries let one manifest serve many regions.
type TemplateContext struct {
	Service     string
	Region      string
	Environment string
	Namespace   string
	BaseURLs    map[string]string
	Kong        fleet.KongConfig
}

func (m *Manifest) templateContext(region fleet.Region) TemplateContext {
	return TemplateContext{
		Service:     m.Name,
		Region:      region.Name,
		Environment: region.Environment,
		Namespace:   region.Namespace,
		BaseURLs:    region.BaseURLs,
		Kong:        region.Kong,
	}
}

// renderTemplate renders one inline template against the context.
// Unresolvable references are hard errors, never empty strings.
func renderTemplate(name, text string, ctx TemplateContext) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("invalid template %s: %w", name, err)
	}
	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, ctx); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return rendered.String(), nil
}
