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

// Package list builds the list subcommands for fleet inventory
package list

import (
	"github.com/spf13/cobra"

	"github.com/flotilla-dev/flotilla/internal/cmd/cli"
)

// NewCmd creates the "list" subcommand tree
func NewCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List regions and the services deployable in them",
	}

	listCmd.AddCommand(&cobra.Command{
		Use:   "regions",
		Short: "List the configured regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Regions(cli.OutputFormat(cli.Output))
		},
	})

	listCmd.AddCommand(&cobra.Command{
		Use:   "services",
		Short: "List the services deployable in the current region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Services(cli.OutputFormat(cli.Output))
		},
	})

	return listCmd
}
