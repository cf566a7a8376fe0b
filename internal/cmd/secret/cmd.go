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

// Package secret builds the secret subcommands
package secret

import (
	"context"
	"fmt"

	"github.com/logrusorgru/aurora/v3"
	"github.com/spf13/cobra"

	"github.com/flotilla-dev/flotilla/internal/cmd/cli"
	"github.com/flotilla-dev/flotilla/pkg/manifest"
)

// NewCmd creates the "secret" subcommand tree
func NewCmd() *cobra.Command {
	secretCmd := &cobra.Command{
		Use:   "secret",
		Short: "Inspect the secrets backing service manifests",
	}

	verifyCmd := &cobra.Command{
		Use:   "verify [services]",
		Short: "Check that every store-backed secret of a service exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")

			return Verify(cmd.Context(), args, all)
		},
	}
	verifyCmd.Flags().Bool("all", false, "verify every service deployable in the region")

	secretCmd.AddCommand(verifyCmd)
	return secretCmd
}

// Verify lists each service's secret folder once and checks every key the
// manifest expects is present
func Verify(ctx context.Context, requested []string, all bool) error {
	if cli.MockStore {
		return fmt.Errorf("secret verify needs the real store, drop --mock-vault")
	}

	conf, region, err := cli.CurrentRegion()
	if err != nil {
		return err
	}

	services, err := cli.ResolveServices(requested, all, region)
	if err != nil {
		return err
	}

	store, err := cli.SecretStore(region)
	if err != nil {
		return err
	}

	for _, service := range services {
		mf, err := manifest.LoadMerged(cli.ManifestRoot, service, conf, region)
		if err != nil {
			return err
		}
		if err := mf.VerifySecretsExist(ctx, store, region.Vault); err != nil {
			return err
		}
		fmt.Println(aurora.Green(fmt.Sprintf("%s: all secrets exist in %s",
			service, mf.VaultPath(region.Vault))))
	}

	return nil
}
