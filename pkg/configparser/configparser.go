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

// Package configparser fills configuration structures from environment
// variables and override maps, driven by the `env` struct tag
package configparser

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/flotilla-dev/flotilla/pkg/log"
)

var envSource EnvironmentSource = OsEnvironment{}

// ReadConfigMap loads the target structure from the environment, applying
// the values found in the passed data map on top of it. Every field tagged
// with `env` starts from the value it has in the defaults structure; fields
// without the tag are left untouched. Malformed numeric or boolean values
// are skipped, keeping the default.
func ReadConfigMap(target interface{}, defaults interface{}, data map[string]string) {
	targetType := reflect.TypeOf(target).Elem()

	for fieldIndex := 0; fieldIndex < targetType.NumField(); fieldIndex++ {
		field := targetType.Field(fieldIndex)
		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		// Every tagged field starts from its default
		defaultValue := reflect.ValueOf(defaults).Elem().Field(fieldIndex)
		targetField := reflect.ValueOf(target).Elem().Field(fieldIndex)
		targetField.Set(defaultValue)

		stringValue, found := data[envName]
		if !found {
			stringValue = envSource.Getenv(envName)
		}
		if stringValue == "" {
			continue
		}

		switch field.Type.Kind() {
		case reflect.String:
			targetField.SetString(stringValue)

		case reflect.Slice:
			targetField.Set(reflect.ValueOf(splitAndTrim(stringValue)))

		case reflect.Int:
			intValue, err := strconv.Atoi(stringValue)
			if err != nil {
				log.Info("Skipping invalid integer value",
					"name", envName,
					"value", stringValue)
				continue
			}
			targetField.SetInt(int64(intValue))

		case reflect.Bool:
			boolValue, err := strconv.ParseBool(stringValue)
			if err != nil {
				log.Info("Skipping invalid boolean value",
					"name", envName,
					"value", stringValue)
				continue
			}
			targetField.SetBool(boolValue)

		default:
			log.Info("Skipping unsupported field type",
				"name", envName,
				"type", field.Type.Kind().String())
		}
	}
}

// splitAndTrim slices a comma-separated string into a list of
// whitespace-trimmed tokens
func splitAndTrim(commaSeparatedList string) []string {
	list := strings.Split(commaSeparatedList, ",")
	for i := range list {
		list[i] = strings.TrimSpace(list[i])
	}
	return list
}
