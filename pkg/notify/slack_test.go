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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/flotilla-dev/flotilla/pkg/manifest"
)

func successEvent() Event {
	return Event{
		Service:         "webapp",
		Region:          "dev-eu",
		Namespace:       "dev",
		Version:         "2.0.0",
		PreviousVersion: "1.2.3",
		Phase:           "Succeeded",
		Success:         true,
		Elapsed:         34 * time.Second,
		Metadata: &manifest.Metadata{
			Team: "platform",
			Repo: "https://github.com/acme/webapp",
		},
	}
}

var _ = Describe("Slack notifications", func() {
	var (
		received []slackPayload
		server   *httptest.Server
		sink     *Slack
	)

	BeforeEach(func() {
		received = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var payload slackPayload
			Expect(json.NewDecoder(r.Body).Decode(&payload)).To(Succeed())
			received = append(received, payload)
			w.WriteHeader(http.StatusOK)
		}))
		DeferCleanup(server.Close)

		var err error
		sink, err = NewSlack(SlackConfig{
			HookURL:  server.URL,
			Channel:  "#deploys",
			Username: "flotilla",
		})
		Expect(err).ToNot(HaveOccurred())
	})

	It("requires a webhook and a channel", func() {
		_, err := NewSlack(SlackConfig{Channel: "#deploys"})
		Expect(err).To(MatchError(ContainSubstring("SLACK_FLOTILLA_HOOK_URL")))

		_, err = NewSlack(SlackConfig{HookURL: "https://hooks.example.com"})
		Expect(err).To(MatchError(ContainSubstring("SLACK_FLOTILLA_CHANNEL")))
	})

	It("posts successful rollouts in green with a diff link", func() {
		Expect(sink.Notify(context.Background(), successEvent())).To(Succeed())

		Expect(received).To(HaveLen(1))
		Expect(received[0].Channel).To(Equal("#deploys"))
		Expect(received[0].Username).To(Equal("flotilla"))
		Expect(received[0].Attachments).To(HaveLen(1))

		attachment := received[0].Attachments[0]
		Expect(attachment.Color).To(Equal("good"))
		Expect(attachment.Text).To(ContainSubstring("Upgraded `webapp`"))
		Expect(attachment.Text).To(ContainSubstring(
			"<https://github.com/acme/webapp/compare/1.2.3...2.0.0|2.0.0>"))
		Expect(attachment.Text).To(ContainSubstring("took 34s"))
	})

	It("routes to the team channel when the manifest declares one", func() {
		event := successEvent()
		event.Metadata.Notifications = "#team-platform"

		Expect(sink.Notify(context.Background(), event)).To(Succeed())
		Expect(received[0].Channel).To(Equal("#team-platform"))
	})

	It("posts failures in red with the error attached", func() {
		event := successEvent()
		event.Success = false
		event.Phase = "Failed"
		event.Error = "helm exited with status 1"

		Expect(sink.Notify(context.Background(), event)).To(Succeed())
		attachment := received[0].Attachments[0]
		Expect(attachment.Color).To(Equal("danger"))
		Expect(attachment.Text).To(ContainSubstring("failed"))
		Expect(attachment.Text).To(ContainSubstring("helm exited with status 1"))
	})

	It("posts timeouts in yellow", func() {
		event := successEvent()
		event.Success = false
		event.Phase = "TimedOut"

		Expect(sink.Notify(context.Background(), event)).To(Succeed())
		attachment := received[0].Attachments[0]
		Expect(attachment.Color).To(Equal("warning"))
		Expect(attachment.Text).To(ContainSubstring("timed out"))
	})

	It("abbreviates git shas and skips the diff link without a previous version", func() {
		event := successEvent()
		event.Version = "0123456789abcdef0123456789abcdef01234567"
		event.PreviousVersion = ""

		Expect(sink.Notify(context.Background(), event)).To(Succeed())
		text := received[0].Attachments[0].Text
		Expect(text).To(ContainSubstring("01234567"))
		Expect(text).NotTo(ContainSubstring("compare"))
	})

	It("surfaces webhook rejections", func() {
		rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		DeferCleanup(rejecting.Close)

		sink, err := NewSlack(SlackConfig{HookURL: rejecting.URL, Channel: "#deploys"})
		Expect(err).ToNot(HaveOccurred())
		Expect(sink.Notify(context.Background(), successEvent())).To(
			MatchError(ContainSubstring("status 403")))
	})
})
