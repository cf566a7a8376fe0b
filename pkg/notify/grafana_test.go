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
)

var _ = Describe("Grafana annotations", func() {
	var (
		received    []grafanaAnnotation
		lastRequest *http.Request
		server      *httptest.Server
		sink        *Grafana
	)

	BeforeEach(func() {
		received = nil
		lastRequest = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastRequest = r
			var annotation grafanaAnnotation
			Expect(json.NewDecoder(r.Body).Decode(&annotation)).To(Succeed())
			received = append(received, annotation)
			w.WriteHeader(http.StatusOK)
		}))
		DeferCleanup(server.Close)

		var err error
		sink, err = NewGrafana(GrafanaConfig{HookURL: server.URL, Token: "s.grafana"})
		Expect(err).ToNot(HaveOccurred())
	})

	It("requires an url and a token", func() {
		_, err := NewGrafana(GrafanaConfig{Token: "s.grafana"})
		Expect(err).To(MatchError(ContainSubstring("GRAFANA_FLOTILLA_HOOK_URL")))

		_, err = NewGrafana(GrafanaConfig{HookURL: "https://grafana.example.com"})
		Expect(err).To(MatchError(ContainSubstring("GRAFANA_FLOTILLA_TOKEN")))
	})

	It("annotates successful rollouts with deploy tags", func() {
		event := successEvent()
		event.Finished = time.UnixMilli(1700000000000)

		Expect(sink.Notify(context.Background(), event)).To(Succeed())
		Expect(received).To(HaveLen(1))
		Expect(received[0].Text).To(Equal("Upgrade webapp=2.0.0 in dev-eu"))
		Expect(received[0].Tags).To(Equal([]string{
			"all-deploys", "dev-eu-deploys", "webapp-deploys",
		}))
		Expect(received[0].Time).To(Equal(int64(1700000000000)))

		Expect(lastRequest.URL.Path).To(Equal("/api/annotations"))
		Expect(lastRequest.Header.Get("Authorization")).To(Equal("Bearer s.grafana"))
	})

	It("skips failed rollouts", func() {
		event := successEvent()
		event.Success = false
		event.Phase = "Failed"

		Expect(sink.Notify(context.Background(), event)).To(Succeed())
		Expect(received).To(BeEmpty())
	})

	It("surfaces api rejections", func() {
		rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		DeferCleanup(rejecting.Close)

		sink, err := NewGrafana(GrafanaConfig{HookURL: rejecting.URL, Token: "expired"})
		Expect(err).ToNot(HaveOccurred())
		Expect(sink.Notify(context.Background(), successEvent())).To(
			MatchError(ContainSubstring("status 401")))
	})
})
