// Package websocket streams activity entries to connected staff clients as
// they are recorded. Subscribers filter by entity kind ("patient",
// "invoice", ...); the "*" filter receives every entry.
package websocket

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/activity"
)

// AllEntities matches every entry, including ones without an entity.
const AllEntities = "*"

// Event is the frame pushed to subscribers for each stored activity entry.
type Event struct {
	Type   string        `json:"type"`
	Entity string        `json:"entity"`
	Entry  activity.View `json:"entry"`
}

// Request is an inbound filter change:
// {"action":"subscribe","topics":["invoice"]}.
type Request struct {
	Action   string   `json:"action"`
	Entities []string `json:"topics"`
}

// Subscriber is one connected feed consumer. Its filter is owned by the Feed.
type Subscriber struct {
	ID   string
	Send chan []byte

	filter map[string]struct{}
}

// NewSubscriber returns a subscriber with a buffered Send channel. Empty
// entity names are ignored.
func NewSubscriber(id string, buffer int, entities ...string) *Subscriber {
	s := &Subscriber{ID: id, Send: make(chan []byte, buffer), filter: make(map[string]struct{})}
	for _, e := range entities {
		if e != "" {
			s.filter[e] = struct{}{}
		}
	}
	return s
}

func (s *Subscriber) wants(entity string) bool {
	if _, ok := s.filter[AllEntities]; ok {
		return true
	}
	_, ok := s.filter[entity]
	return ok && entity != ""
}

// DropCounter is told about every event a slow subscriber misses.
type DropCounter interface {
	FeedDropped()
}

// Feed fans activity entries out to subscribers. It implements
// activity.Notifier.
type Feed struct {
	mu    sync.RWMutex
	subs  map[*Subscriber]struct{}
	drops DropCounter
	log   zerolog.Logger
}

func NewFeed(logger zerolog.Logger) *Feed {
	return &Feed{
		subs: make(map[*Subscriber]struct{}),
		log:  logger.With().Str("component", "activity_feed").Logger(),
	}
}

func (f *Feed) WithDropCounter(d DropCounter) *Feed {
	f.drops = d
	return f
}

func (f *Feed) Add(s *Subscriber) {
	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()
}

// Remove detaches s and closes its Send channel. Removing twice is a no-op.
func (f *Feed) Remove(s *Subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[s]; ok {
		delete(f.subs, s)
		close(s.Send)
	}
}

// Apply changes the filter of s. Unknown actions are ignored.
func (f *Feed) Apply(s *Subscriber, req Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range req.Entities {
		if e == "" {
			continue
		}
		switch req.Action {
		case "subscribe":
			s.filter[e] = struct{}{}
		case "unsubscribe":
			delete(s.filter, e)
		}
	}
}

// Filter returns the sorted entity filter of s.
func (f *Feed) Filter(s *Subscriber) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, 0, len(s.filter))
	for e := range s.filter {
		out = append(out, e)
	}
	slices.Sort(out)
	return out
}

// Publish delivers ev to every subscriber whose filter matches. A subscriber
// with a full buffer misses the event.
func (f *Feed) Publish(ev Event) {
	frame, err := json.Marshal(ev)
	if err != nil {
		f.log.Warn().Err(err).Str("entity", ev.Entity).Msg("Failed to encode feed event")
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for s := range f.subs {
		if !s.wants(ev.Entity) {
			continue
		}
		select {
		case s.Send <- frame:
		default:
			f.log.Debug().Str("subscriber", s.ID).Msg("Feed subscriber too slow, event dropped")
			if f.drops != nil {
				f.drops.FeedDropped()
			}
		}
	}
}

// Notify publishes a stored entry under the entity named in its details.
func (f *Feed) Notify(_ context.Context, entry *activity.Entry) {
	view := entry.ToView()
	entity, _ := view.Details["entity"].(string)
	f.Publish(Event{Type: "activity", Entity: entity, Entry: view})
}

// Len reports the number of attached subscribers.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Watching counts subscribers whose filter names entity explicitly.
func (f *Feed) Watching(entity string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := 0
	for s := range f.subs {
		if _, ok := s.filter[entity]; ok {
			n++
		}
	}
	return n
}
