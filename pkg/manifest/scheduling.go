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
	"net"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/validation"
)

// HostAlias adds an /etc/hosts entry to every pod
type HostAlias struct {
	IP        string   `json:"ip"`
	Hostnames []string `json:"hostnames"`
}

// Verify checks the alias carries a parseable address and valid hostnames
func (h HostAlias) Verify() error {
	if net.ParseIP(h.IP) == nil {
		return fmt.Errorf("invalid host alias ip %q", h.IP)
	}
	if len(h.Hostnames) == 0 {
		return fmt.Errorf("host alias %s needs at least one hostname", h.IP)
	}
	for _, hostname := range h.Hostnames {
		if errs := validation.IsDNS1123Subdomain(hostname); len(errs) > 0 {
			return fmt.Errorf("invalid host alias hostname %q: %s", hostname, errs[0])
		}
	}
	return nil
}

// Toleration binds the service's pods to a matching node taint
type Toleration struct {
	Key      string                   `json:"key"`
	Operator corev1.TolerationOperator `json:"operator"`
	Value    string                   `json:"value,omitempty"`
	Effect   corev1.TaintEffect       `json:"effect,omitempty"`
}

// Verify checks operator and effect are within the kubernetes vocabulary
func (t Toleration) Verify() error {
	if t.Key == "" {
		return errors.New("tolerations need a key")
	}
	switch t.Operator {
	case corev1.TolerationOpEqual:
	case corev1.TolerationOpExists:
		if t.Value != "" {
			return fmt.Errorf("toleration %s with operator Exists cannot take a value", t.Key)
		}
	default:
		return fmt.Errorf("invalid toleration operator %q", t.Operator)
	}
	switch t.Effect {
	case "", corev1.TaintEffectNoSchedule, corev1.TaintEffectPreferNoSchedule, corev1.TaintEffectNoExecute:
	default:
		return fmt.Errorf("invalid toleration effect %q", t.Effect)
	}
	return nil
}
