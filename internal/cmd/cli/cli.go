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

// Package cli contains the common behaviors of the flotilla subcommands
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flotilla-dev/flotilla/pkg/configparser"
	"github.com/flotilla-dev/flotilla/pkg/fleet"
	"github.com/flotilla-dev/flotilla/pkg/log"
	"github.com/flotilla-dev/flotilla/pkg/vault"
)

const (
	// regionEnv names the region when --region is not passed
	regionEnv = "FLOTILLA_REGION"

	// manifestDirEnv points at the manifest tree when --manifest-root is
	// not passed, so flotilla can run from anywhere
	manifestDirEnv = "FLOTILLA_MANIFEST_DIR"

	// defaultConfigFile is the fleet configuration looked up under the
	// manifest root when --config is not passed
	defaultConfigFile = "flotilla.yml"
)

// Command state shared by every subcommand, bound as persistent flags on
// the root command
var (
	// ManifestRoot is the directory holding the services tree and the
	// fleet configuration
	ManifestRoot string

	// ConfigPath overrides the fleet configuration file location
	ConfigPath string

	// RegionName is the region manifests resolve against
	RegionName string

	// Output is the requested output format
	Output string

	// MockStore swaps the secret store for the deterministic mock
	MockStore bool

	// LogFlags configures the logging subsystem
	LogFlags log.Flags

	conf *fleet.Config
)

// AddGlobalFlags binds the shared flags onto the root command
func AddGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&ManifestRoot, "manifest-root", "r", defaultManifestRoot(),
		fmt.Sprintf("directory holding the services tree and the fleet configuration, defaults to $%s",
			manifestDirEnv))
	flags.StringVarP(&ConfigPath, "config", "c", "",
		fmt.Sprintf("fleet configuration file, defaults to %s under the manifest root",
			defaultConfigFile))
	flags.StringVar(&RegionName, "region", "",
		fmt.Sprintf("region to resolve manifests against, defaults to $%s", regionEnv))
	flags.StringVarP(&Output, "output", "o", OutputFormatText,
		"output format, one of text|json|yaml")
	flags.BoolVar(&MockStore, "mock-vault", false,
		"replace the secret store with the deterministic mock")
	LogFlags.AddFlags(flags)
}

// Setup is the PersistentPreRunE of the root command
func Setup(_ *cobra.Command, _ []string) error {
	return LogFlags.ConfigureLogging()
}

// defaultManifestRoot lets flotilla run from anywhere when the caller
// exports the manifest location
func defaultManifestRoot() string {
	if dir := os.Getenv(manifestDirEnv); dir != "" {
		return dir
	}
	return "."
}

// LoadConfig reads and caches the fleet configuration
func LoadConfig() (*fleet.Config, error) {
	if conf != nil {
		return conf, nil
	}

	path := ConfigPath
	if path == "" {
		path = filepath.Join(ManifestRoot, defaultConfigFile)
	}
	loaded, err := fleet.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	conf = loaded
	return conf, nil
}

// CurrentRegion resolves the requested region, by flag or environment,
// against the fleet configuration
func CurrentRegion() (*fleet.Config, fleet.Region, error) {
	loaded, err := LoadConfig()
	if err != nil {
		return nil, fleet.Region{}, err
	}

	name := RegionName
	if name == "" {
		name = os.Getenv(regionEnv)
	}
	if name == "" {
		return nil, fleet.Region{}, fmt.Errorf(
			"no region requested, pass --region or set %s", regionEnv)
	}

	region, found := loaded.GetRegion(name)
	if !found {
		return nil, fleet.Region{}, fmt.Errorf("region %s is not configured, try one of: %s",
			name, strings.Join(loaded.RegionNames(), ", "))
	}
	return loaded, region, nil
}

// SecretStore builds the store secret reads go through: the region's own
// store address with the caller's token, the process environment when the
// region does not name one, or the mock when --mock-vault is passed
func SecretStore(region fleet.Region) (vault.Reader, error) {
	if MockStore {
		return vault.NewMocked(), nil
	}
	if region.Vault.URL != "" {
		return vault.NewRegional(region.Vault.URL, configparser.OsEnvironment{})
	}
	return vault.NewClientFromEnv(configparser.OsEnvironment{})
}
