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

// Package versions contains the build metadata of flotilla
package versions

// Version is the flotilla release being built
const Version = "0.8.0"

// Data is the version information of a build
type Data struct {
	// Version of the release
	Version string `json:"version"`

	// Commit sha the binary was built from
	Commit string `json:"commit"`

	// Date of the build
	Date string `json:"date"`
}

// Overridden through -ldflags at release time
var (
	buildCommit = "none"
	buildDate   = "unknown"
)

// Info carries the build metadata of the running binary
var Info = Data{
	Version: Version,
	Commit:  buildCommit,
	Date:    buildDate,
}
