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

// Package values builds the values subcommand
package values

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/flotilla-dev/flotilla/internal/cmd/cli"
	"github.com/flotilla-dev/flotilla/pkg/manifest"
)

// NewCmd creates the "values" subcommand
func NewCmd() *cobra.Command {
	valuesCmd := &cobra.Command{
		Use:   "values [service]",
		Short: "Print the resolved manifest the way the charts see it",
		Long: `Resolves the service manifest for the current region and prints it. With
--secrets the manifest is completed against the secret store first; pass
--mock-vault to complete it with deterministic placeholder values instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			withSecrets, _ := cmd.Flags().GetBool("secrets")
			obfuscate, _ := cmd.Flags().GetBool("obfuscate")

			return Run(cmd.Context(), args[0], withSecrets, obfuscate)
		},
	}

	valuesCmd.Flags().Bool("secrets", false, "complete the manifest against the secret store")
	valuesCmd.Flags().Bool("obfuscate", false, "mask resolved secret values in the output")

	return valuesCmd
}

// Run prints the resolved manifest of one service
func Run(ctx context.Context, service string, withSecrets, obfuscate bool) error {
	conf, region, err := cli.CurrentRegion()
	if err != nil {
		return err
	}

	var mf *manifest.Manifest
	if withSecrets {
		store, err := cli.SecretStore(region)
		if err != nil {
			return err
		}
		mf, err = manifest.LoadCompleted(ctx, cli.ManifestRoot, service, conf, region, store)
		if err != nil {
			return err
		}
	} else {
		mf, err = manifest.LoadMerged(cli.ManifestRoot, service, conf, region)
		if err != nil {
			return err
		}
	}

	if obfuscate {
		for key := range mf.Secrets {
			mf.Secrets[key] = "***"
		}
	}

	format := cli.OutputFormat(cli.Output)
	if format == cli.OutputFormatText {
		format = cli.OutputFormatYAML
	}
	return cli.Print(mf, format, os.Stdout)
}
