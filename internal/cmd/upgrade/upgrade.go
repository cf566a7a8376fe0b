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

package upgrade

import (
	"context"
	"fmt"
	"os"

	"github.com/cheynewallace/tabby"
	"github.com/logrusorgru/aurora/v3"

	"github.com/flotilla-dev/flotilla/internal/cmd/cli"
	"github.com/flotilla-dev/flotilla/pkg/fleet"
	"github.com/flotilla-dev/flotilla/pkg/graph"
	"github.com/flotilla-dev/flotilla/pkg/helm"
	"github.com/flotilla-dev/flotilla/pkg/log"
	"github.com/flotilla-dev/flotilla/pkg/manifest"
	"github.com/flotilla-dev/flotilla/pkg/notify"
	"github.com/flotilla-dev/flotilla/pkg/vault"
)

// Options are the upgrade command flags
type Options struct {
	All          bool
	Mode         string
	Parallel     int
	Version      string
	WaitOverride int32
	Ordered      bool
	Notify       bool

	// NotifyExplicit is set when --notify was passed rather than defaulted,
	// turning missing sink configuration into a hard error
	NotifyExplicit bool
}

// Run rolls the requested services out and maps the aggregated report onto
// an exit code
func Run(ctx context.Context, requested []string, options Options) error {
	mode, err := helm.ParseMode(options.Mode)
	if err != nil {
		return err
	}
	if options.Version != "" && (options.All || len(requested) != 1) {
		return fmt.Errorf("--version needs exactly one service")
	}

	conf, region, err := cli.CurrentRegion()
	if err != nil {
		return err
	}
	services, err := cli.ResolveServices(requested, options.All, region)
	if err != nil {
		return err
	}
	store, err := cli.SecretStore(region)
	if err != nil {
		return err
	}

	notifier, flush, err := buildNotifier(mode, options)
	if err != nil {
		return err
	}
	defer flush()

	executor := helm.NewCLIExecutor(region.Cluster)
	items := resolveItems(ctx, executor, store, conf, region, services, mode, options)

	if options.Ordered {
		items = orderItems(items)
	}

	report := helm.ParallelUpgrade(ctx, executor, items, helm.ParallelOptions{
		MaxParallel: options.Parallel,
		Notifier:    notifier,
	})

	if err := printReport(report); err != nil {
		return err
	}
	return reportError(report)
}

// resolveItems loads, validates and completes every service, turning
// per-service failures into skipped report entries instead of aborting the
// run. Installed-version inference happens here, serially, before any
// worker is admitted to the pool.
func resolveItems(
	ctx context.Context,
	executor helm.Executor,
	store vault.Reader,
	conf *fleet.Config,
	region fleet.Region,
	services []string,
	mode helm.Mode,
	options Options,
) []*helm.UpgradeData {
	items := make([]*helm.UpgradeData, 0, len(services))
	for _, service := range services {
		item, err := resolveItem(ctx, executor, store, conf, region, service, mode, options)
		if err != nil {
			log.Error(err, "skipping service", "service", service, "region", region.Name)
			stub := &manifest.Manifest{
				Name:      service,
				Region:    region.Name,
				Namespace: region.Namespace,
			}
			items = append(items, helm.SkippedUpgrade(stub, mode, err))
			continue
		}
		items = append(items, item)
	}
	return items
}

func resolveItem(
	ctx context.Context,
	executor helm.Executor,
	store vault.Reader,
	conf *fleet.Config,
	region fleet.Region,
	service string,
	mode helm.Mode,
	options Options,
) (*helm.UpgradeData, error) {
	mf, err := manifest.LoadCompleted(ctx, cli.ManifestRoot, service, conf, region, store)
	if err != nil {
		return nil, err
	}
	if err := mf.Verify(conf, region); err != nil {
		return nil, err
	}
	if mf.External {
		return nil, fmt.Errorf("%s is external and not rolled out from here", service)
	}

	item, err := helm.NewUpgradeData(ctx, executor, mf, mode, options.Version)
	if err != nil {
		return nil, err
	}
	if options.WaitOverride > 0 {
		item.WaitSeconds = options.WaitOverride
	}
	return item, nil
}

// orderItems rearranges dispatchable items into dependency order, keeping
// skipped entries at the tail of the report
func orderItems(items []*helm.UpgradeData) []*helm.UpgradeData {
	byName := make(map[string]*helm.UpgradeData, len(items))
	manifests := make([]*manifest.Manifest, 0, len(items))
	var skipped []*helm.UpgradeData

	for _, item := range items {
		if item.Terminal() {
			skipped = append(skipped, item)
			continue
		}
		byName[item.Name] = item
		manifests = append(manifests, item.Manifest)
	}

	g, err := graph.Build(manifests)
	if err != nil {
		// a cycle cannot be ordered; keep the input order and say so
		log.Error(err, "cannot order rollouts, keeping input order")
		return items
	}

	ordered := make([]*helm.UpgradeData, 0, len(items))
	for _, name := range g.DeployOrder() {
		if item, found := byName[name]; found {
			ordered = append(ordered, item)
		}
	}
	return append(ordered, skipped...)
}

// buildNotifier assembles the outcome sinks behind an async queue. Sink
// configuration problems are fatal when --notify was explicit, downgraded
// to a warning otherwise. Diffs never notify.
func buildNotifier(mode helm.Mode, options Options) (notify.Notifier, func(), error) {
	if !options.Notify || mode == helm.ModeDiff {
		return notify.Discard{}, func() {}, nil
	}

	var sinks notify.Fanout

	slack, err := notify.NewSlack(notify.LoadSlackConfig())
	switch {
	case err == nil:
		sinks = append(sinks, slack)
	case options.NotifyExplicit:
		return nil, nil, err
	default:
		log.Warning("slack notifications disabled", "reason", err.Error())
	}

	grafanaConfig := notify.LoadGrafanaConfig()
	if grafanaConfig.HookURL != "" || grafanaConfig.Token != "" {
		grafana, err := notify.NewGrafana(grafanaConfig)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, grafana)
	}

	if len(sinks) == 0 {
		return notify.Discard{}, func() {}, nil
	}
	async := notify.NewAsync(sinks, 64)
	return async, async.Close, nil
}

// printReport renders the aggregated outcomes
func printReport(report *helm.RolloutReport) error {
	if format := cli.OutputFormat(cli.Output); format != cli.OutputFormatText {
		return cli.Print(report, format, os.Stdout)
	}

	table := tabby.New()
	table.AddHeader("Service", "Phase", "Version", "Took", "Detail")
	for _, item := range report.Items {
		table.AddLine(item.Name, phaseCell(item), item.Version,
			item.Elapsed.String(), item.Error)
	}
	table.Print()

	fmt.Println(report.Summary())
	return nil
}

func phaseCell(item *helm.UpgradeData) string {
	switch {
	case item.Success():
		return aurora.Green(string(item.Phase)).String()
	case item.Phase == helm.PhaseTimedOut || item.Phase == helm.PhaseSkipped:
		return aurora.Yellow(string(item.Phase)).String()
	default:
		return aurora.Red(string(item.Phase)).String()
	}
}

// reportError maps the report onto the process exit contract: nil for full
// success, ExitRollout when nothing succeeded, ExitPartial otherwise
func reportError(report *helm.RolloutReport) error {
	if report.OK() {
		return nil
	}
	if len(report.Succeeded()) == 0 {
		return &cli.ExitError{
			Code: cli.ExitRollout,
			Err:  fmt.Errorf("rollout failed: %s", report.Summary()),
		}
	}
	return &cli.ExitError{
		Code: cli.ExitPartial,
		Err:  fmt.Errorf("rollout partially failed: %s", report.Summary()),
	}
}
