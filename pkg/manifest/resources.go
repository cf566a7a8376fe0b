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

	"k8s.io/apimachinery/pkg/api/resource"
)

// ResourceRequest is one side of a kubernetes compute resource block
type ResourceRequest struct {
	CPU    string `json:"cpu"`
	Memory string `json:"memory"`
}

// Resources mirrors the kubernetes resource requirements attached to the
// main container
type Resources struct {
	Requests ResourceRequest `json:"requests"`
	Limits   ResourceRequest `json:"limits"`
}

// Verify parses all four quantities and checks requests do not exceed limits
func (r Resources) Verify() error {
	requestsCPU, err := parseQuantity("requests.cpu", r.Requests.CPU)
	if err != nil {
		return err
	}
	requestsMemory, err := parseQuantity("requests.memory", r.Requests.Memory)
	if err != nil {
		return err
	}
	limitsCPU, err := parseQuantity("limits.cpu", r.Limits.CPU)
	if err != nil {
		return err
	}
	limitsMemory, err := parseQuantity("limits.memory", r.Limits.Memory)
	if err != nil {
		return err
	}

	if requestsCPU.Cmp(limitsCPU) > 0 {
		return fmt.Errorf("requests.cpu %s is larger than limits.cpu %s",
			r.Requests.CPU, r.Limits.CPU)
	}
	if requestsMemory.Cmp(limitsMemory) > 0 {
		return fmt.Errorf("requests.memory %s is larger than limits.memory %s",
			r.Requests.Memory, r.Limits.Memory)
	}
	return nil
}

func parseQuantity(field, value string) (resource.Quantity, error) {
	if value == "" {
		return resource.Quantity{}, fmt.Errorf("resources need %s", field)
	}
	quantity, err := resource.ParseQuantity(value)
	if err != nil {
		return resource.Quantity{}, fmt.Errorf("invalid %s quantity %q: %w", field, value, err)
	}
	if quantity.Sign() <= 0 {
		return resource.Quantity{}, fmt.Errorf("%s must be positive, got %q", field, value)
	}
	return quantity, nil
}
