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

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/flotilla-dev/flotilla/pkg/configparser"
)

// Environment variables configuring the Grafana sink
const (
	grafanaHookEnv  = "GRAFANA_FLOTILLA_HOOK_URL"
	grafanaTokenEnv = "GRAFANA_FLOTILLA_TOKEN" // #nosec

	grafanaTimeout = 10 * time.Second
)

// GrafanaConfig locates the Grafana instance deploy annotations go to
type GrafanaConfig struct {
	HookURL string `json:"hookUrl" env:"GRAFANA_FLOTILLA_HOOK_URL"`
	Token   string `json:"token" env:"GRAFANA_FLOTILLA_TOKEN"`
}

// LoadGrafanaConfig reads the Grafana sink configuration from the
// environment
func LoadGrafanaConfig() GrafanaConfig {
	config := GrafanaConfig{}
	configparser.ReadConfigMap(&config, &GrafanaConfig{}, nil)
	return config
}

// Grafana annotates successful deploys so dashboards can correlate metric
// changes with rollouts
type Grafana struct {
	config GrafanaConfig
	client *http.Client
}

// NewGrafana builds the Grafana sink, failing fast on missing configuration
func NewGrafana(config GrafanaConfig) (*Grafana, error) {
	if config.HookURL == "" {
		return nil, fmt.Errorf("%s is not set", grafanaHookEnv)
	}
	if config.Token == "" {
		return nil, fmt.Errorf("%s is not set", grafanaTokenEnv)
	}
	return &Grafana{
		config: config,
		client: &http.Client{Timeout: grafanaTimeout},
	}, nil
}

type grafanaAnnotation struct {
	Text string   `json:"text"`
	Tags []string `json:"tags"`

	// Time is epoch milliseconds
	Time int64 `json:"time,omitempty"`
}

// Notify annotates the event. Failed rollouts are skipped: dashboards only
// care about versions that actually went live.
func (g *Grafana) Notify(ctx context.Context, event Event) error {
	if !event.Success {
		return nil
	}

	finished := event.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	annotation := grafanaAnnotation{
		Text: fmt.Sprintf("Upgrade %s=%s in %s", event.Service, event.Version, event.Region),
		Tags: []string{
			"all-deploys",
			fmt.Sprintf("%s-deploys", event.Region),
			fmt.Sprintf("%s-deploys", event.Service),
		},
		Time: finished.UnixMilli(),
	}

	body, err := json.Marshal(annotation)
	if err != nil {
		return err
	}
	url := strings.TrimSuffix(g.config.HookURL, "/") + "/api/annotations"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+g.config.Token)

	response, err := g.client.Do(request)
	if err != nil {
		return err
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode >= 300 {
		return fmt.Errorf("grafana annotation replied with status %d", response.StatusCode)
	}
	return nil
}
