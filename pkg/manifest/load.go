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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/flotilla-dev/flotilla/pkg/fileutils"
	"github.com/flotilla-dev/flotilla/pkg/fleet"
	"github.com/flotilla-dev/flotilla/pkg/vault"
)

// Manifest tree layout under an explicit root:
//
//	<root>/services/<name>/service.yml   base manifest
//	<root>/services/<name>/<region>.yml  optional region override
//	<root>/services/<name>/<file>        config templates
const (
	servicesDir      = "services"
	baseManifestFile = "service.yml"

	// templateSuffix is stripped when deriving a config file destination
	templateSuffix = ".j2"
)

// Available lists the services under root that carry a base manifest
func Available(root string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, servicesDir))
	if err != nil {
		return nil, fmt.Errorf("cannot list services under %s: %w", root, err)
	}

	var services []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		base := filepath.Join(root, servicesDir, entry.Name(), baseManifestFile)
		exists, err := fileutils.FileExists(base)
		if err != nil {
			return nil, err
		}
		if exists {
			services = append(services, entry.Name())
		}
	}
	sort.Strings(services)
	return services, nil
}

// LoadRaw strict-decodes the base manifest of one service. Unknown keys and
// output-only keys are hard errors.
func LoadRaw(root, service string) (*Manifest, error) {
	path := filepath.Join(root, servicesDir, service, baseManifestFile)
	m, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = service
	} else if m.Name != service {
		return nil, validationErrorf(service, "manifest name %q does not match its folder", m.Name)
	}
	return m, nil
}

// LoadMerged resolves one service for one region: base manifest, region
// override, fleet defaults, and template rendering. Secrets placeholders
// are left intact; the result is KindBase.
func LoadMerged(root, service string, conf *fleet.Config, region fleet.Region) (*Manifest, error) {
	m, err := LoadRaw(root, service)
	if err != nil {
		return nil, err
	}
	if m.Disabled {
		return nil, validationErrorf(service, "service is disabled")
	}

	overridePath := filepath.Join(root, servicesDir, service, region.Name+".yml")
	exists, err := fileutils.FileExists(overridePath)
	if err != nil {
		return nil, err
	}
	if exists {
		override, err := loadFile(overridePath)
		if err != nil {
			return nil, err
		}
		if err := m.MergeOverride(override); err != nil {
			return nil, err
		}
	}

	if err := readConfigTemplates(root, service, m); err != nil {
		return nil, err
	}
	if err := m.Complete(conf, region); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadCompleted additionally reconciles secrets through the given store;
// the result is KindCompleted and ready for rollout
func LoadCompleted(
	ctx context.Context,
	root, service string,
	conf *fleet.Config,
	region fleet.Region,
	store vault.Reader,
) (*Manifest, error) {
	m, err := LoadMerged(root, service, conf, region)
	if err != nil {
		return nil, err
	}
	if err := m.ReconcileSecrets(ctx, store, region.Vault); err != nil {
		return nil, err
	}
	return m, nil
}

func loadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	if err := rejectOutputFields(&m, path); err != nil {
		return nil, err
	}
	return &m, nil
}

// rejectOutputFields refuses manifests that set pipeline output fields
func rejectOutputFields(m *Manifest, path string) error {
	outputs := []struct {
		field string
		set   bool
	}{
		{"region", m.Region != ""},
		{"environment", m.Environment != ""},
		{"namespace", m.Namespace != ""},
		{"secrets", len(m.Secrets) > 0},
		{"kind", m.Kind != ""},
	}
	for _, output := range outputs {
		if output.set {
			return fmt.Errorf("%s is an output field and is illegal in %s", output.field, path)
		}
	}
	if m.Configs != nil {
		for _, file := range m.Configs.Files {
			if file.Value != "" {
				return fmt.Errorf("configs file values are outputs and are illegal in %s", path)
			}
		}
	}
	return nil
}

// readConfigTemplates loads the raw template text for every declared config
// file, and derives destinations for files named like templates
func readConfigTemplates(root, service string, m *Manifest) error {
	if m.Configs == nil {
		return nil
	}
	for i := range m.Configs.Files {
		file := &m.Configs.Files[i]
		content, err := fileutils.ReadFile(filepath.Join(root, servicesDir, service, file.Name))
		if err != nil {
			return validationErrorf(m.Name, "cannot read config template %s: %s", file.Name, err)
		}
		file.Value = content
		if file.Dest == "" {
			file.Dest = strings.TrimSuffix(file.Name, templateSuffix)
		}
	}
	return nil
}
