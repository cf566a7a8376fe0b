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

// The flotilla binary resolves service manifests and orchestrates their
// rollouts
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/flotilla-dev/flotilla/internal/cmd/cli"
	"github.com/flotilla-dev/flotilla/internal/cmd/graph"
	"github.com/flotilla-dev/flotilla/internal/cmd/list"
	"github.com/flotilla-dev/flotilla/internal/cmd/secret"
	"github.com/flotilla-dev/flotilla/internal/cmd/upgrade"
	"github.com/flotilla-dev/flotilla/internal/cmd/validate"
	"github.com/flotilla-dev/flotilla/internal/cmd/values"
	"github.com/flotilla-dev/flotilla/internal/cmd/versions"
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "flotilla",
		Short:             "Resolve service manifests and roll them out in parallel",
		SilenceUsage:      true,
		PersistentPreRunE: cli.Setup,
	}

	cli.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(validate.NewCmd())
	rootCmd.AddCommand(list.NewCmd())
	rootCmd.AddCommand(graph.NewCmd())
	rootCmd.AddCommand(values.NewCmd())
	rootCmd.AddCommand(secret.NewCmd())
	rootCmd.AddCommand(upgrade.NewCmd())
	rootCmd.AddCommand(versions.NewCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
