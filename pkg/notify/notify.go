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

// Package notify delivers rollout outcome events to external sinks. The
// orchestrator emits one event per service; formatting and delivery happen
// here, never on the rollout path itself.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/flotilla-dev/flotilla/pkg/log"
	"github.com/flotilla-dev/flotilla/pkg/manifest"
)

// Event is one rollout outcome for one service in one region
type Event struct {
	Service   string
	Region    string
	Namespace string

	// Version deployed, and the one it replaced when known
	Version         string
	PreviousVersion string

	// Mode is a human description of the rollout mode
	Mode string

	// Phase is the terminal state the rollout reached
	Phase   string
	Success bool

	// Elapsed is how long the rollout took; Finished when it ended
	Elapsed  time.Duration
	Finished time.Time

	// Error carries the failure reason, empty on success
	Error string

	// Metadata of the rolled-out service, when available. Powers the diff
	// links and per-team channels.
	Metadata *manifest.Metadata
}

// Notifier consumes rollout outcome events
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Discard drops every event
type Discard struct{}

// Notify does nothing
func (Discard) Notify(context.Context, Event) error {
	return nil
}

// Fanout delivers every event to all its sinks, joining their failures
type Fanout []Notifier

// Notify forwards to each sink in order; a failing sink never stops the
// others
func (f Fanout) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async decouples delivery from the rollout state machine: Notify enqueues
// and returns immediately, Close flushes the queue. Delivery failures are
// logged, never returned.
type Async struct {
	sink  Notifier
	queue chan Event
	done  chan struct{}
}

// NewAsync wraps a sink with a buffered delivery queue
func NewAsync(sink Notifier, buffer int) *Async {
	a := &Async{
		sink:  sink,
		queue: make(chan Event, buffer),
		done:  make(chan struct{}),
	}
	go a.drain()
	return a
}

func (a *Async) drain() {
	defer close(a.done)
	for event := range a.queue {
		if err := a.sink.Notify(context.Background(), event); err != nil {
			log.Error(err, "failed to deliver rollout notification",
				"service", event.Service, "region", event.Region)
		}
	}
}

// Notify enqueues the event, dropping it when the queue is full
func (a *Async) Notify(_ context.Context, event Event) error {
	select {
	case a.queue <- event:
	default:
		log.Warning("notification queue full, dropping event",
			"service", event.Service, "region", event.Region)
	}
	return nil
}

// Close stops accepting events and blocks until the queue is delivered
func (a *Async) Close() {
	close(a.queue)
	<-a.done
}
