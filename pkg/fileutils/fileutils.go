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

// Package fileutils contains the small set of file primitives used by the
// manifest loaders and the rollout executor
package fileutils

import (
	"io"
	"os"
)

// FileExists checks if a file exists, and returns an error otherwise
func FileExists(fileName string) (bool, error) {
	if _, err := os.Stat(fileName); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReadFile reads the source file and outputs the content as a string
func ReadFile(fileName string) (string, error) {
	content, err := os.ReadFile(fileName) // #nosec
	if err != nil {
		return "", err
	}

	return string(content), nil
}

// WriteStringToFile replaces the contents of a certain file
// with a string. If the file doesn't exist, it's created
func WriteStringToFile(fileName string, contents string) error {
	out, err := os.Create(fileName)
	if err != nil {
		return err
	}

	_, err = io.WriteString(out, contents)
	if err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}

// WriteTempFile stores the content in a fresh temporary file, created with
// the given pattern, and returns its path. Removing the file is up to the
// caller.
func WriteTempFile(pattern string, content []byte) (string, error) {
	out, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}

	if _, err := out.Write(content); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", err
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", err
	}

	return out.Name(), nil
}
