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

package validate

import (
	"context"
	"fmt"

	"github.com/logrusorgru/aurora/v3"

	"github.com/flotilla-dev/flotilla/internal/cmd/cli"
	"github.com/flotilla-dev/flotilla/pkg/manifest"
	"github.com/flotilla-dev/flotilla/pkg/vault"
)

// Run validates the requested services in the current region, stopping at
// the first failing service
func Run(ctx context.Context, requested []string, all, checkSecrets bool) error {
	conf, region, err := cli.CurrentRegion()
	if err != nil {
		return err
	}

	services, err := cli.ResolveServices(requested, all, region)
	if err != nil {
		return err
	}

	var store vault.Reader
	if checkSecrets {
		if store, err = cli.SecretStore(region); err != nil {
			return err
		}
	}

	for _, service := range services {
		mf, err := manifest.LoadMerged(cli.ManifestRoot, service, conf, region)
		if err != nil {
			return err
		}
		if err := mf.Verify(conf, region); err != nil {
			return err
		}
		if checkSecrets {
			if err := mf.VerifySecretsExist(ctx, store, region.Vault); err != nil {
				return err
			}
		}
		fmt.Println(aurora.Green(fmt.Sprintf("%s: valid in %s", service, region.Name)))
	}

	return nil
}
