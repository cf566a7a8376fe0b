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

package helm

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	yamlv3 "gopkg.in/yaml.v3"
	appsv1 "k8s.io/api/apps/v1"
	"sigs.k8s.io/yaml"

	"github.com/flotilla-dev/flotilla/pkg/execlog"
	"github.com/flotilla-dev/flotilla/pkg/fileutils"
	"github.com/flotilla-dev/flotilla/pkg/log"
	"github.com/flotilla-dev/flotilla/pkg/manifest"
)

// Executor is the opaque rollout capability the orchestrator drives. The
// orchestrator never interprets cluster state itself; it asks.
type Executor interface {
	// Upgrade applies the release and returns the combined helm output
	Upgrade(ctx context.Context, data *UpgradeData) (string, error)

	// Diff renders what an upgrade would change
	Diff(ctx context.Context, data *UpgradeData) (string, error)

	// Rollback reverts the release to its previous revision
	Rollback(ctx context.Context, data *UpgradeData) (string, error)

	// InstalledVersion reads the version of the installed release, empty
	// when the release does not exist
	InstalledVersion(ctx context.Context, release, namespace string) (string, error)

	// RolloutStatus reports whether every deployment of the release has
	// converged on the new version
	RolloutStatus(ctx context.Context, data *UpgradeData) (bool, error)
}

// CLIExecutor drives rollouts through the helm and kubectl binaries on PATH.
// Subprocess output streams through execlog; command lines are logged
// shell-quoted for copy-paste debugging.
type CLIExecutor struct {
	// HelmBinary and KubectlBinary override the binaries to exec
	HelmBinary    string
	KubectlBinary string

	// ChartDir is where charts live; the release chart name is resolved
	// under it
	ChartDir string

	// KubeContext pins both binaries to one cluster context, empty for the
	// current one
	KubeContext string
}

// NewCLIExecutor builds a CLIExecutor against the given kube context
func NewCLIExecutor(kubeContext string) *CLIExecutor {
	return &CLIExecutor{
		HelmBinary:    "helm",
		KubectlBinary: "kubectl",
		ChartDir:      "charts",
		KubeContext:   kubeContext,
	}
}

// Upgrade applies the release with a temporary values file rendered from
// the resolved manifest
func (e *CLIExecutor) Upgrade(ctx context.Context, data *UpgradeData) (string, error) {
	valuesFile, err := e.writeValues(data)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = os.Remove(valuesFile)
	}()

	return e.helm(ctx, data.Name, e.upgradeArgs(data, valuesFile))
}

// Diff renders the upgrade through the helm-diff plugin without applying it
func (e *CLIExecutor) Diff(ctx context.Context, data *UpgradeData) (string, error) {
	valuesFile, err := e.writeValues(data)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = os.Remove(valuesFile)
	}()

	return e.helm(ctx, data.Name, e.diffArgs(data, valuesFile))
}

// Rollback reverts the release to the revision before the current one
func (e *CLIExecutor) Rollback(ctx context.Context, data *UpgradeData) (string, error) {
	return e.helm(ctx, data.Name, e.rollbackArgs(data))
}

// InstalledVersion reads the version the installed release was rolled out
// with, from the values helm stored for it. A release that does not exist
// yields an empty version, not an error.
func (e *CLIExecutor) InstalledVersion(ctx context.Context, release, namespace string) (string, error) {
	output, err := e.helm(ctx, release, e.installedValuesArgs(release, namespace))
	if err != nil {
		if strings.Contains(strings.ToLower(output), "not found") {
			return "", nil
		}
		return "", err
	}
	return parseInstalledVersion(output)
}

// RolloutStatus asks the cluster whether every deployment of the release
// has converged
func (e *CLIExecutor) RolloutStatus(ctx context.Context, data *UpgradeData) (bool, error) {
	args := e.deploymentsArgs(data)
	log.Debug("polling rollout", "command", shellquote.Join(append([]string{e.KubectlBinary}, args...)...))

	cmd := exec.CommandContext(ctx, e.KubectlBinary, args...) // #nosec
	stdout, stderr, err := execlog.RunCapturing(cmd, e.KubectlBinary)
	if err != nil {
		return false, fmt.Errorf("kubectl failed for %s: %s: %w", data.Name, stderr, err)
	}

	var deployments appsv1.DeploymentList
	if err := yaml.Unmarshal([]byte(stdout), &deployments); err != nil {
		return false, fmt.Errorf("cannot decode deployments of %s: %w", data.Name, err)
	}
	return deploymentsReady(deployments.Items, expectedDeployments(data.Manifest)), nil
}

// helm execs one helm invocation, returning its combined output on failure
// so callers can surface what helm actually said
func (e *CLIExecutor) helm(ctx context.Context, release string, args []string) (string, error) {
	log.Info("running helm", "service", release, "command",
		shellquote.Join(append([]string{e.HelmBinary}, args...)...))

	cmd := exec.CommandContext(ctx, e.HelmBinary, args...) // #nosec
	stdout, stderr, err := execlog.RunCapturing(cmd, e.HelmBinary)
	if err != nil {
		return strings.TrimSpace(stdout + "\n" + stderr), err
	}
	return stdout, nil
}

// writeValues renders the resolved manifest into a temporary helm values
// file. The caller removes it.
func (e *CLIExecutor) writeValues(data *UpgradeData) (string, error) {
	if data.Manifest == nil {
		return "", &manifest.InternalError{Service: data.Name, Field: "manifest"}
	}
	payload, err := yaml.Marshal(data.Manifest)
	if err != nil {
		return "", fmt.Errorf("cannot serialize values for %s: %w", data.Name, err)
	}
	return fileutils.WriteTempFile("flotilla-values-*.yml", payload)
}

func (e *CLIExecutor) chartPath(data *UpgradeData) string {
	return filepath.Join(e.ChartDir, data.Chart)
}

func (e *CLIExecutor) upgradeArgs(data *UpgradeData, valuesFile string) []string {
	args := []string{
		"upgrade", data.Name, e.chartPath(data),
		"--install",
		"--namespace", data.Namespace,
		"--values", valuesFile,
	}
	return e.withContext(args)
}

func (e *CLIExecutor) diffArgs(data *UpgradeData, valuesFile string) []string {
	args := []string{
		"diff", "upgrade", data.Name, e.chartPath(data),
		"--namespace", data.Namespace,
		"--values", valuesFile,
	}
	return e.withContext(args)
}

func (e *CLIExecutor) rollbackArgs(data *UpgradeData) []string {
	// revision 0 is helm's "the one before this"
	args := []string{
		"rollback", data.Name, "0",
		"--namespace", data.Namespace,
	}
	return e.withContext(args)
}

func (e *CLIExecutor) installedValuesArgs(release, namespace string) []string {
	args := []string{
		"get", "values", release,
		"--namespace", namespace,
		"--output", "yaml",
	}
	return e.withContext(args)
}

func (e *CLIExecutor) deploymentsArgs(data *UpgradeData) []string {
	args := []string{
		"get", "deployments",
		"--namespace", data.Namespace,
		"--selector", deploymentSelector(data.Manifest),
		"--output", "yaml",
	}
	if e.KubeContext != "" {
		args = append(args, "--context", e.KubeContext)
	}
	return args
}

func (e *CLIExecutor) withContext(args []string) []string {
	if e.KubeContext != "" {
		args = append(args, "--kube-context", e.KubeContext)
	}
	return args
}

// parseInstalledVersion digs the version out of the values an installed
// release was deployed with. The payload is helm's own rendering, not one
// of our json-tagged types.
func parseInstalledVersion(values string) (string, error) {
	var stored struct {
		Version string `yaml:"version"`
	}
	if err := yamlv3.Unmarshal([]byte(values), &stored); err != nil {
		return "", fmt.Errorf("cannot decode installed values: %w", err)
	}
	return stored.Version, nil
}

// deploymentSelector matches the deployments a release creates: the main
// one plus one per worker
func deploymentSelector(mf *manifest.Manifest) string {
	if mf == nil {
		return ""
	}
	names := []string{mf.Name}
	for _, worker := range mf.Workers {
		names = append(names, fmt.Sprintf("%s-%s", mf.Name, worker.Name))
	}
	return fmt.Sprintf("app in (%s)", strings.Join(names, ","))
}

// expectedDeployments is how many deployments the release creates
func expectedDeployments(mf *manifest.Manifest) int {
	if mf == nil {
		return 1
	}
	return 1 + len(mf.Workers)
}

// deploymentsReady reports whether all expected deployments exist and have
// converged: the controller observed the latest generation, every replica
// is updated, no old replicas linger, and the updated ones are available
func deploymentsReady(items []appsv1.Deployment, expected int) bool {
	if len(items) < expected {
		return false
	}
	for i := range items {
		deployment := &items[i]
		if deployment.Generation > deployment.Status.ObservedGeneration {
			return false
		}
		if deployment.Spec.Replicas != nil &&
			deployment.Status.UpdatedReplicas < *deployment.Spec.Replicas {
			return false
		}
		if deployment.Status.Replicas > deployment.Status.UpdatedReplicas {
			return false
		}
		if deployment.Status.AvailableReplicas < deployment.Status.UpdatedReplicas {
			return false
		}
	}
	return true
}
