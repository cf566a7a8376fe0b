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

package manifest

import (
	"fmt"
	"strings"

	"github.com/thoas/go-funk"
)

var allowedDatabaseEngines = []string{"postgres", "mysql"}

// Rds asks the provisioner for a managed relational database. The block is
// metadata handed to an external system, never connected to from here.
type Rds struct {
	Engine        string `json:"engine"`
	Version       string `json:"version"`
	Size          int32  `json:"size"`
	InstanceClass string `json:"instanceClass,omitempty"`
}

// Verify checks the provisioning request is complete
func (r Rds) Verify() error {
	if !funk.ContainsString(allowedDatabaseEngines, r.Engine) {
		return fmt.Errorf("invalid database engine %q", r.Engine)
	}
	if r.Version == "" {
		return fmt.Errorf("database needs an engine version")
	}
	if r.Size < 5 {
		return fmt.Errorf("database size needs to be at least 5 GB, got %d", r.Size)
	}
	if r.InstanceClass != "" && !strings.HasPrefix(r.InstanceClass, "db.") {
		return fmt.Errorf("invalid database instanceClass %q", r.InstanceClass)
	}
	return nil
}

// ElastiCache asks the provisioner for a managed cache cluster
type ElastiCache struct {
	Nodes    int32  `json:"nodes"`
	NodeType string `json:"nodeType"`
}

// Verify checks the provisioning request is complete
func (e ElastiCache) Verify() error {
	if e.Nodes < 1 {
		return fmt.Errorf("redis needs at least 1 node, got %d", e.Nodes)
	}
	if !strings.HasPrefix(e.NodeType, "cache.") {
		return fmt.Errorf("invalid redis nodeType %q", e.NodeType)
	}
	return nil
}
