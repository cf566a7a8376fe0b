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

// Package graph builds the graph subcommand
package graph

import (
	"github.com/spf13/cobra"
)

// NewCmd creates the "graph" subcommand
func NewCmd() *cobra.Command {
	graphCmd := &cobra.Command{
		Use:   "graph [services]",
		Short: "Build the dependency graph and print a deploy order",
		Long: `Builds the dependency graph of the requested services in the current
region, following their declared dependencies through the manifest tree.
Prints a dependency-first deploy order, or the graph itself in graphviz
dot format with --dot. A dependency cycle is an error, never an arbitrary
order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			dot, _ := cmd.Flags().GetBool("dot")

			return Run(args, all, dot)
		},
	}

	graphCmd.Flags().Bool("all", false, "graph every service deployable in the region")
	graphCmd.Flags().Bool("dot", false, "render the graph in graphviz dot format")

	return graphCmd
}
