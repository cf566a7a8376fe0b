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

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/validation"
)

// Port is a named port exposed from the kubernetes service, for services
// whose traffic does not flow through the gateway
type Port struct {
	Name     string          `json:"name"`
	Port     int32           `json:"port"`
	Protocol corev1.Protocol `json:"protocol,omitempty"`
}

// Verify checks the port is a valid named kubernetes port
func (p Port) Verify() error {
	if p.Name == "" {
		return errors.New("ports need a name")
	}
	if errs := validation.IsValidPortName(p.Name); len(errs) > 0 {
		return fmt.Errorf("invalid port name %q: %s", p.Name, errs[0])
	}
	if errs := validation.IsValidPortNum(int(p.Port)); len(errs) > 0 {
		return fmt.Errorf("invalid port %d: %s", p.Port, errs[0])
	}
	switch p.Protocol {
	case "", corev1.ProtocolTCP, corev1.ProtocolUDP:
	default:
		return fmt.Errorf("invalid port protocol %q", p.Protocol)
	}
	return nil
}
