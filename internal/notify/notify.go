// Package notify broadcasts change events to whoever mirrors catalog,
// playlist and schedule state. Delivery is best effort: a failed delivery
// is logged and dropped, never retried, and never fails the mutation that
// produced it.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nixie-Tech-LLC/signance/internal/metrics"
)

// Change event names.
const (
	MediaCreated = "media_created"
	MediaUpdated = "media_updated"
	MediaDeleted = "media_deleted"

	PlaylistCreated = "playlist_created"
	PlaylistUpdated = "playlist_updated"
	PlaylistDeleted = "playlist_deleted"

	PlaylistMediaAdded           = "playlist_media_added"
	PlaylistMediaRemoved         = "playlist_media_removed"
	PlaylistMediaReordered       = "playlist_media_reordered"
	PlaylistMediaDurationUpdated = "playlist_media_duration_updated"

	ScheduleCreated = "schedule_created"
	ScheduleUpdated = "schedule_updated"
	ScheduleDeleted = "schedule_deleted"
	ScheduleToggled = "schedule_toggled"

	BusinessUpdated = "business_updated"
)

// Sink receives change events. Notify must not block for long.
type Sink interface {
	Notify(event string, payload map[string]any)
}

// Event is the wire form pushed to websocket and MQTT subscribers.
type Event struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

func NewEvent(event string, payload map[string]any) Event {
	return Event{Type: event, Data: payload, Timestamp: time.Now().Unix()}
}

// Func adapts a plain function to Sink.
type Func func(event string, payload map[string]any)

func (f Func) Notify(event string, payload map[string]any) { f(event, payload) }

type Nop struct{}

func (Nop) Notify(string, map[string]any) {}

// Fanout hands every event to each sink in order.
type Fanout []Sink

func (f Fanout) Notify(event string, payload map[string]any) {
	for _, s := range f {
		s.Notify(event, payload)
	}
}

type queued struct {
	event   string
	payload map[string]any
}

// Async decouples callers from a slow sink with a bounded queue and one
// worker. Events that do not fit the queue are dropped.
type Async struct {
	next   Sink
	queue  chan queued
	logger zerolog.Logger

	once sync.Once
	done chan struct{}
}

func NewAsync(next Sink, size int, logger zerolog.Logger) *Async {
	if size <= 0 {
		size = 256
	}
	a := &Async{
		next:   next,
		queue:  make(chan queued, size),
		logger: logger.With().Str("component", "notify").Logger(),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) Notify(event string, payload map[string]any) {
	select {
	case a.queue <- queued{event: event, payload: payload}:
	default:
		metrics.NotificationsTotal.WithLabelValues("async", "dropped").Inc()
		a.logger.Warn().Str("event", event).Msg("notification queue full, event dropped")
	}
}

func (a *Async) run() {
	defer close(a.done)
	for q := range a.queue {
		a.deliver(q)
	}
}

func (a *Async) deliver(q queued) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Interface("panic", r).Str("event", q.event).Msg("notification sink panicked")
		}
	}()
	a.next.Notify(q.event, q.payload)
}

// Close stops accepting events and waits for the queue to drain. Notify
// must not be called after Close.
func (a *Async) Close() {
	a.once.Do(func() { close(a.queue) })
	<-a.done
}
