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

	autoscalingv2 "k8s.io/api/autoscaling/v2"
)

// AutoScaling passes horizontal pod autoscaler parameters through to the
// chart. When set, it takes precedence over replicaCount at runtime.
type AutoScaling struct {
	MinReplicas int32                      `json:"minReplicas"`
	MaxReplicas int32                      `json:"maxReplicas"`
	Metrics     []autoscalingv2.MetricSpec `json:"metrics,omitempty"`
}

// Verify checks the replica window is sane
func (a AutoScaling) Verify() error {
	if a.MinReplicas < 1 {
		return fmt.Errorf("autoScaling needs minReplicas of at least 1, got %d", a.MinReplicas)
	}
	if a.MaxReplicas < a.MinReplicas {
		return fmt.Errorf("autoScaling maxReplicas %d is below minReplicas %d",
			a.MaxReplicas, a.MinReplicas)
	}
	return nil
}
