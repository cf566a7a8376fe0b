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

// Wait-budget heuristic. A wrong estimate loosens or tightens rollout
// timeouts; it never affects the correctness of the rollout itself.
const (
	// minPullSeconds floors the image pull estimate
	minPullSeconds = 60

	// pullSecondsPerBaseImage is the pull allowance per baseImageSizeMB
	pullSecondsPerBaseImage = 90

	// baseImageSizeMB normalizes image sizes for the pull estimate
	baseImageSizeMB = 512

	// bootGraceFactor scales the declared boot wait: probes flap, JITs warm
	// up, connection pools fill
	bootGraceFactor = 3

	// unknownImageWaitSeconds is the flat budget when no image size is known
	unknownImageWaitSeconds = 400
)

// EstimateWaitSeconds is a heuristic upper bound on how long a rolling
// upgrade of this manifest can reasonably take: an image pull allowance
// plus a boot allowance, per replacement cycle.
func (m *Manifest) EstimateWaitSeconds() int32 {
	if m.ImageSize == nil {
		return unknownImageWaitSeconds
	}

	pull := int32(int64(*m.ImageSize) * pullSecondsPerBaseImage / baseImageSizeMB)
	if pull < minPullSeconds {
		pull = minPullSeconds
	}

	boot := int32(defaultHealthWaitSeconds)
	if m.Health != nil && m.Health.Wait > 0 {
		boot = m.Health.Wait
	} else if m.ReadinessProbe != nil && m.ReadinessProbe.InitialDelaySeconds > 0 {
		boot = m.ReadinessProbe.InitialDelaySeconds
	}

	return (pull + boot*bootGraceFactor) * m.RolloutIterations()
}

// RolloutIterations is how many replacement cycles a rolling upgrade of
// this manifest needs, given its replica count and surge settings
func (m *Manifest) RolloutIterations() int32 {
	replicas := int32(1)
	if m.ReplicaCount != nil && *m.ReplicaCount > 0 {
		replicas = *m.ReplicaCount
	}
	return m.RollingUpdate.Iterations(replicas)
}
