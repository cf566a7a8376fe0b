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

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation"
)

// PersistentVolume provisions a persistent volume claim mounted into the
// main deployment
type PersistentVolume struct {
	Name         string `json:"name"`
	Claim        string `json:"claim,omitempty"`
	StorageClass string `json:"storageClass,omitempty"`
	AccessMode   string `json:"accessMode"`
	Size         string `json:"size"`
}

// Verify checks the volume names, access mode, and requested size
func (p PersistentVolume) Verify() error {
	if errs := validation.IsDNS1123Label(p.Name); len(errs) > 0 {
		return fmt.Errorf("invalid persistent volume name %q: %s", p.Name, errs[0])
	}
	switch corev1.PersistentVolumeAccessMode(p.AccessMode) {
	case corev1.ReadWriteOnce, corev1.ReadOnlyMany, corev1.ReadWriteMany:
	default:
		return fmt.Errorf("persistent volume %s has an invalid accessMode %q", p.Name, p.AccessMode)
	}
	size, err := resource.ParseQuantity(p.Size)
	if err != nil {
		return fmt.Errorf("persistent volume %s has an invalid size %q: %w", p.Name, p.Size, err)
	}
	if size.Sign() <= 0 {
		return fmt.Errorf("persistent volume %s needs a positive size", p.Name)
	}
	return nil
}
