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
	"errors"
	"fmt"
	"math"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// defaultSurgePercentage is the kubernetes default for maxSurge when a
// manifest declares no rollingUpdate block
const defaultSurgePercentage = 25

// RollingUpdate tunes how eagerly kubernetes replaces replicas during a
// rolling upgrade. Values are absolute counts or percentages.
type RollingUpdate struct {
	MaxUnavailable *intstr.IntOrString `json:"maxUnavailable,omitempty"`
	MaxSurge       *intstr.IntOrString `json:"maxSurge,omitempty"`
}

// Verify checks the parameters keep the deployment able to progress with
// the given replica count
func (r RollingUpdate) Verify(replicas int32) error {
	if r.MaxUnavailable == nil && r.MaxSurge == nil {
		return errors.New("rollingUpdate needs maxUnavailable or maxSurge")
	}

	unavailable := 0
	if r.MaxUnavailable != nil {
		value, err := intstr.GetScaledValueFromIntOrPercent(r.MaxUnavailable, int(replicas), false)
		if err != nil {
			return fmt.Errorf("invalid maxUnavailable: %w", err)
		}
		if value < 0 || int32(value) > replicas {
			return fmt.Errorf("maxUnavailable %s needs to be between 0 and the replica count %d",
				r.MaxUnavailable.String(), replicas)
		}
		unavailable = value
	}

	surge := 0
	if r.MaxSurge != nil {
		value, err := intstr.GetScaledValueFromIntOrPercent(r.MaxSurge, int(replicas), true)
		if err != nil {
			return fmt.Errorf("invalid maxSurge: %w", err)
		}
		if value < 0 {
			return fmt.Errorf("maxSurge %s cannot be negative", r.MaxSurge.String())
		}
		surge = value
	}

	if r.MaxUnavailable != nil && r.MaxSurge != nil && unavailable == 0 && surge == 0 {
		return errors.New("maxUnavailable and maxSurge cannot both resolve to zero")
	}
	return nil
}

// Iterations estimates how many replacement cycles a rolling upgrade of the
// given replica count needs. Works on a nil receiver, using the kubernetes
// default surge.
func (r *RollingUpdate) Iterations(replicas int32) int32 {
	if replicas <= 0 {
		return 1
	}

	surge := int(math.Ceil(float64(replicas) * defaultSurgePercentage / 100.0))
	if r != nil && r.MaxSurge != nil {
		if value, err := intstr.GetScaledValueFromIntOrPercent(r.MaxSurge, int(replicas), true); err == nil {
			surge = value
		}
	}
	if surge < 1 {
		surge = 1
	}
	return int32(math.Ceil(float64(replicas) / float64(surge)))
}
