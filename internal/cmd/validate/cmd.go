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

// Package validate builds the validate subcommand
package validate

import (
	"github.com/spf13/cobra"
)

// NewCmd creates the "validate" subcommand
func NewCmd() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate [services]",
		Short: "Merge and validate service manifests against a region",
		Long: `Resolves each service manifest for the requested region and runs the full
validation chain on the result. With --secrets it additionally checks that
every store-backed secret actually exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			secrets, _ := cmd.Flags().GetBool("secrets")

			return Run(cmd.Context(), args, all, secrets)
		},
	}

	validateCmd.Flags().Bool("all", false, "validate every service deployable in the region")
	validateCmd.Flags().Bool("secrets", false, "also check that store-backed secrets exist")

	return validateCmd
}
