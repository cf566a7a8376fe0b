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
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/thoas/go-funk"

	"github.com/flotilla-dev/flotilla/pkg/fleet"
	"github.com/flotilla-dev/flotilla/pkg/log"
	"github.com/flotilla-dev/flotilla/pkg/stringset"
	"github.com/flotilla-dev/flotilla/pkg/vault"
)

// VaultPath is the folder holding this service's secrets, honoring the
// optional vault override block
func (m *Manifest) VaultPath(vc fleet.VaultConfig) string {
	service := m.Name
	folder := vc.Folder
	if m.Vault != nil {
		if m.Vault.Name != "" {
			service = m.Vault.Name
		}
		if m.Vault.Region != "" {
			folder = m.Vault.Region
		}
	}
	return fmt.Sprintf("%s/%s", folder, service)
}

// ReconcileSecrets resolves every secret placeholder in the manifest.
//
// Vault-sourced keys are read one by one from <path>/<KEY>; template-sourced
// values are unioned in. A key sourced both ways is only accepted when the
// stored value agrees with the rendered one. Secret files using the sentinel
// are fetched the same way, and every file must decode as base64.
//
// The operation rebuilds the secrets map from scratch, so running it twice
// against an unchanged store yields the same result.
func (m *Manifest) ReconcileSecrets(ctx context.Context, store vault.Reader, vc fleet.VaultConfig) error {
	if m.Kind != KindBase && m.Kind != KindCompleted {
		return &InternalError{Service: m.Name, Field: "kind"}
	}

	path := m.VaultPath(vc)
	log.FromContext(ctx).Debug("injecting secrets", "service", m.Name, "path", path, "mode", store.Mode())

	vaultKeys := stringset.New()
	templateValues := make(map[string]string)
	for _, env := range m.envContainers() {
		for _, key := range env.VaultKeys() {
			vaultKeys.Put(key)
		}
		for key, rendered := range env.Templates() {
			if previous, found := templateValues[key]; found && previous != rendered {
				return validationErrorf(m.Name,
					"secret %s cannot be used in multiple templates with different values", key)
			}
			templateValues[key] = rendered
		}
	}

	templateKeys := stringset.New()
	for key := range templateValues {
		templateKeys.Put(key)
	}

	secrets := make(map[string]string)

	// dual-sourced keys must agree with the stored value
	for _, key := range vaultKeys.Intersect(templateKeys).ToSortedList() {
		stored, err := store.Read(ctx, path+"/"+key)
		if err != nil {
			return err
		}
		if stored != templateValues[key] {
			return validationErrorf(m.Name,
				"secret %s cannot be both templated and fetched from the store with different values", key)
		}
		secrets[key] = stored
		vaultKeys.Delete(key)
		delete(templateValues, key)
	}

	for _, key := range vaultKeys.ToSortedList() {
		value, err := store.Read(ctx, path+"/"+key)
		if err != nil {
			return err
		}
		secrets[key] = value
	}
	for key, value := range templateValues {
		secrets[key] = value
	}

	fileNames := make([]string, 0, len(m.SecretFiles))
	for name := range m.SecretFiles {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)
	for _, name := range fileNames {
		value := m.SecretFiles[name]
		if value == InVault {
			read, err := store.Read(ctx, path+"/"+name)
			if err != nil {
				return err
			}
			value = read
			m.SecretFiles[name] = read
		}
		if _, err := base64.StdEncoding.DecodeString(value); err != nil {
			return validationErrorf(m.Name, "secret file %s is not base64 encoded", name)
		}
	}

	m.Secrets = secrets
	m.Kind = KindCompleted
	return nil
}

// VerifySecretsExist lists the service's secret folder once and
// cross-references every declared key without fetching any values
func (m *Manifest) VerifySecretsExist(ctx context.Context, store vault.Reader, vc fleet.VaultConfig) error {
	keys := stringset.New()
	for _, env := range m.envContainers() {
		for _, key := range env.VaultKeys() {
			keys.Put(key)
		}
	}
	var files []string
	for name, value := range m.SecretFiles {
		if value == InVault {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	if keys.Len() == 0 && len(files) == 0 {
		return nil
	}

	path := m.VaultPath(vc)
	found, err := store.List(ctx, path)
	if err != nil {
		return err
	}
	log.FromContext(ctx).Debug("listed secrets", "service", m.Name, "path", path, "found", len(found))

	for _, key := range keys.ToSortedList() {
		if !funk.ContainsString(found, key) {
			return validationErrorf(m.Name, "secret %s not found in %s", key, path)
		}
	}
	for _, name := range files {
		if !funk.ContainsString(found, name) {
			return validationErrorf(m.Name, "secret file %s not found in %s", name, path)
		}
	}
	return nil
}
