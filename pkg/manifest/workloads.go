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

	"github.com/robfig/cron"
	"k8s.io/apimachinery/pkg/util/validation"
)

// InitContainer runs to completion before the main containers boot,
// typically gating on upstream connectivity
type InitContainer struct {
	Name    string   `json:"name"`
	Image   string   `json:"image"`
	Command []string `json:"command,omitempty"`
}

// Verify checks the container has a usable name and image
func (i InitContainer) Verify() error {
	if errs := validation.IsDNS1123Label(i.Name); len(errs) > 0 {
		return fmt.Errorf("invalid initContainer name %q: %s", i.Name, errs[0])
	}
	if i.Image == "" {
		return fmt.Errorf("initContainer %s needs an image", i.Name)
	}
	return nil
}

// Sidecar is an extra container injected into the main deployment and all
// workers, scaling with their replica counts
type Sidecar struct {
	Name      string     `json:"name"`
	Image     string     `json:"image,omitempty"`
	Version   string     `json:"version,omitempty"`
	Resources *Resources `json:"resources,omitempty"`
	Env       EnvVars    `json:"env,omitempty"`
}

// Verify checks the sidecar name and any declared sub-structures
func (s Sidecar) Verify() error {
	if errs := validation.IsDNS1123Label(s.Name); len(errs) > 0 {
		return fmt.Errorf("invalid sidecar name %q: %s", s.Name, errs[0])
	}
	if s.Resources != nil {
		if err := s.Resources.Verify(); err != nil {
			return fmt.Errorf("sidecar %s: %w", s.Name, err)
		}
	}
	if err := s.Env.Verify(); err != nil {
		return fmt.Errorf("sidecar %s: %w", s.Name, err)
	}
	return nil
}

// Worker is an auxiliary deployment sharing the service's image but scaling
// independently. Workers roll out separately from the main deployment.
type Worker struct {
	Name         string    `json:"name"`
	Command      []string  `json:"command,omitempty"`
	Resources    Resources `json:"resources"`
	ReplicaCount int32     `json:"replicaCount"`

	// PreserveEnv copies the main deployment's env into this worker
	PreserveEnv bool    `json:"preserveEnv,omitempty"`
	HTTPPort    *int32  `json:"httpPort,omitempty"`
	Ports       []Port  `json:"ports,omitempty"`
	Env         EnvVars `json:"env,omitempty"`
}

// Verify checks the worker can be scheduled on its own
func (w Worker) Verify() error {
	if errs := validation.IsDNS1123Label(w.Name); len(errs) > 0 {
		return fmt.Errorf("invalid worker name %q: %s", w.Name, errs[0])
	}
	if err := w.Resources.Verify(); err != nil {
		return fmt.Errorf("worker %s: %w", w.Name, err)
	}
	if w.ReplicaCount < 1 {
		return fmt.Errorf("worker %s needs replicaCount of at least 1", w.Name)
	}
	for _, port := range w.Ports {
		if err := port.Verify(); err != nil {
			return fmt.Errorf("worker %s: %w", w.Name, err)
		}
	}
	if err := w.Env.Verify(); err != nil {
		return fmt.Errorf("worker %s: %w", w.Name, err)
	}
	return nil
}

// CronJob runs a command on a schedule using the service's image
type CronJob struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	Command   []string   `json:"command,omitempty"`
	Image     string     `json:"image,omitempty"`
	Version   string     `json:"version,omitempty"`
	Resources *Resources `json:"resources,omitempty"`
	Env       EnvVars    `json:"env,omitempty"`
}

// Verify checks the job has a name, a parseable cron schedule and a command
func (c CronJob) Verify() error {
	if errs := validation.IsDNS1123Label(c.Name); len(errs) > 0 {
		return fmt.Errorf("invalid cronJob name %q: %s", c.Name, errs[0])
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("cronJob %s has an invalid schedule %q: %w", c.Name, c.Schedule, err)
	}
	if len(c.Command) == 0 {
		return fmt.Errorf("cronJob %s needs a command", c.Name)
	}
	if c.Resources != nil {
		if err := c.Resources.Verify(); err != nil {
			return fmt.Errorf("cronJob %s: %w", c.Name, err)
		}
	}
	if err := c.Env.Verify(); err != nil {
		return fmt.Errorf("cronJob %s: %w", c.Name, err)
	}
	return nil
}
