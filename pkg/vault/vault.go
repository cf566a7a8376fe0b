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

// Package vault reads secrets from a Vault-compatible secret store
package vault

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/flotilla-dev/flotilla/pkg/configparser"
	"github.com/flotilla-dev/flotilla/pkg/fileutils"
)

// Mode distinguishes the live client from the mocked one
type Mode string

const (
	// ModeStandard reads real values from the configured store
	ModeStandard Mode = "standard"

	// ModeMocked returns a fixed value for every read and never touches
	// the network
	ModeMocked Mode = "mocked"
)

// Reader reads secrets from the store. Implementations are safe for
// concurrent use.
type Reader interface {
	// Read fetches the value stored at path
	Read(ctx context.Context, path string) (string, error)

	// List enumerates the keys directly below path, skipping subfolders
	List(ctx context.Context, path string) ([]string, error)

	// Mode reports whether values are real or mocked
	Mode() Mode
}

// Environment variables honored by ResolveAddr and ResolveToken, matching
// the ones the vault CLI uses
const (
	addrEnvironmentVariable  = "VAULT_ADDR"
	tokenEnvironmentVariable = "VAULT_TOKEN" // #nosec
	tokenFileName            = ".vault-token"
)

// ResolveAddr returns the store address from the environment
func ResolveAddr(env configparser.EnvironmentSource) (string, error) {
	addr := env.Getenv(addrEnvironmentVariable)
	if addr == "" {
		return "", ErrMissingAddr
	}
	return addr, nil
}

// ResolveToken returns the store token from the environment, falling back
// to the token file left behind by `vault login`
func ResolveToken(env configparser.EnvironmentSource) (string, error) {
	if token := env.Getenv(tokenEnvironmentVariable); token != "" {
		return token, nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		if content, err := fileutils.ReadFile(filepath.Join(home, tokenFileName)); err == nil {
			if token := strings.TrimSpace(content); token != "" {
				return token, nil
			}
		}
	}

	return "", ErrMissingToken
}
