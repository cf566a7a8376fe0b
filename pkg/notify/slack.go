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

// Environment variables configuring the Slack sink
const (
	slackHookEnv     = "SLACK_FLOTILLA_HOOK_URL"
	slackChannelEnv  = "SLACK_FLOTILLA_CHANNEL"
	slackUsernameEnv = "SLACK_FLOTILLA_NAME"

	defaultSlackUsername = "flotilla"
	slackTimeout         = 10 * time.Second

	colorGood    = "good"
	colorWarning = "warning"
	colorDanger  = "danger"
)

// SlackConfig locates the incoming webhook rollout events are posted to
type SlackConfig struct {
	HookURL  string `json:"hookUrl" env:"SLACK_FLOTILLA_HOOK_URL"`
	Channel  string `json:"channel" env:"SLACK_FLOTILLA_CHANNEL"`
	Username string `json:"username" env:"SLACK_FLOTILLA_NAME"`
}

// LoadSlackConfig reads the Slack sink configuration from the environment
func LoadSlackConfig() SlackConfig {
	config := SlackConfig{}
	configparser.ReadConfigMap(&config, &SlackConfig{Username: defaultSlackUsername}, nil)
	return config
}

// Slack posts one message per rollout outcome to an incoming webhook
type Slack struct {
	config SlackConfig
	client *http.Client
}

// NewSlack builds the Slack sink, failing fast on missing configuration
func NewSlack(config SlackConfig) (*Slack, error) {
	if config.HookURL == "" {
		return nil, fmt.Errorf("%s is not set", slackHookEnv)
	}
	if config.Channel == "" {
		return nil, fmt.Errorf("%s is not set", slackChannelEnv)
	}
	if config.Username == "" {
		config.Username = defaultSlackUsername
	}
	return &Slack{
		config: config,
		client: &http.Client{Timeout: slackTimeout},
	}, nil
}

type slackPayload struct {
	Channel     string            `json:"channel"`
	Username    string            `json:"username"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color    string   `json:"color"`
	Text     string   `json:"text"`
	MrkdwnIn []string `json:"mrkdwn_in,omitempty"`
}

// Notify posts the event, routing to the owning team's channel when the
// manifest declares one
func (s *Slack) Notify(ctx context.Context, event Event) error {
	channel := s.config.Channel
	if event.Metadata != nil && event.Metadata.Notifications != "" {
		channel = event.Metadata.Notifications
	}

	text, color := s.message(event)
	payload := slackPayload{
		Channel:  channel,
		Username: s.config.Username,
		Attachments: []slackAttachment{{
			Color:    color,
			Text:     text,
			MrkdwnIn: []string{"text"},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.HookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode >= 300 {
		return fmt.Errorf("slack webhook replied with status %d", response.StatusCode)
	}
	return nil
}

// message renders the event, linking the version to the source diff when
// the repository and previous version are known
func (s *Slack) message(event Event) (string, string) {
	version := shortVersion(event.Version)
	if event.Metadata != nil && event.Metadata.Repo != "" &&
		event.PreviousVersion != "" && event.PreviousVersion != event.Version {
		version = fmt.Sprintf("<%s|%s>",
			compareURL(event.Metadata.Repo, event.PreviousVersion, event.Version), version)
	}

	elapsed := event.Elapsed.Round(time.Second)
	if event.Success {
		return fmt.Sprintf("Upgraded `%s` to %s in `%s` (took %s)",
			event.Service, version, event.Region, elapsed), colorGood
	}

	color := colorDanger
	if strings.Contains(strings.ToLower(event.Phase), "timed") {
		color = colorWarning
	}
	text := fmt.Sprintf("Upgrade of `%s` to %s in `%s` %s after %s",
		event.Service, version, event.Region, phaseVerb(event.Phase), elapsed)
	if event.Error != "" {
		text += fmt.Sprintf("\n```%s```", event.Error)
	}
	return text, color
}

func phaseVerb(phase string) string {
	switch strings.ToLower(phase) {
	case "":
		return "failed"
	case "timedout":
		return "timed out"
	case "rolledback":
		return "rolled back"
	default:
		return strings.ToLower(phase)
	}
}
