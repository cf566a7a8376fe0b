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

// Package upgrade builds the upgrade subcommand
package upgrade

import (
	"github.com/spf13/cobra"
)

// NewCmd creates the "upgrade" subcommand
func NewCmd() *cobra.Command {
	var options Options

	upgradeCmd := &cobra.Command{
		Use:   "upgrade [services]",
		Short: "Roll out services to the current region in parallel",
		Long: `Resolves, validates and completes each service manifest, then rolls the
releases out through a bounded worker pool. Services failing validation or
reconciliation are skipped and reported; they never abort the others. The
exit code tells full success, partial failure and total failure apart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			options.NotifyExplicit = cmd.Flags().Changed("notify")

			return Run(cmd.Context(), args, options)
		},
	}

	flags := upgradeCmd.Flags()
	flags.BoolVar(&options.All, "all", false,
		"upgrade every service deployable in the region")
	flags.StringVar(&options.Mode, "mode", "upgrade-wait",
		"one of upgrade-wait|upgrade-wait-rollback|upgrade|install|diff|rollback")
	flags.IntVar(&options.Parallel, "parallel", 4,
		"how many rollouts run concurrently")
	flags.StringVar(&options.Version, "version", "",
		"version override, single-service upgrades only")
	flags.Int32Var(&options.WaitOverride, "wait", 0,
		"wait budget in seconds, overriding the per-service estimate")
	flags.BoolVar(&options.Ordered, "ordered", false,
		"dispatch in dependency order instead of input order")
	flags.BoolVar(&options.Notify, "notify", true,
		"emit rollout outcome notifications")

	return upgradeCmd
}
