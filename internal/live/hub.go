// Package live fans committed score documents out to per-firm subscribers.
package live

import (
	"sync"

	"github.com/raysh454/trimetric/internal/logging"
	"github.com/raysh454/trimetric/internal/model"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 16

// Gauge receives the current subscriber count. prometheus.Gauge satisfies it.
type Gauge interface {
	Set(float64)
}

// Subscription receives every document published for one firm.
type Subscription struct {
	FirmID string
	ch     chan *model.ScoresData
	once   sync.Once
	hub    *Hub
}

// C is closed when the subscription ends.
func (s *Subscription) C() <-chan *model.ScoresData { return s.ch }

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() { s.hub.unsubscribe(s) }

// Hub keeps subscriber sets keyed by firm id.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	total  int
	buffer int
	gauge  Gauge
	logger logging.Logger
	closed bool
}

// NewHub creates a hub. gauge may be nil.
func NewHub(logger logging.Logger, gauge Gauge) *Hub {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: DefaultBuffer,
		gauge:  gauge,
		logger: logger.With(logging.Field{Key: "component", Value: "live"}),
	}
}

// Subscribe registers a new subscriber for firmID. After Shutdown the
// returned subscription is already closed.
func (h *Hub) Subscribe(firmID string) *Subscription {
	sub := &Subscription{FirmID: firmID, ch: make(chan *model.ScoresData, h.buffer), hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	set, ok := h.subs[firmID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[firmID] = set
	}
	set[sub] = struct{}{}
	h.total++
	h.report()
	h.logger.Debug("subscribed", logging.Field{Key: "firm_id", Value: firmID})
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[sub.FirmID]; ok {
		if _, ok := set[sub]; ok {
			delete(set, sub)
			h.total--
			if len(set) == 0 {
				delete(h.subs, sub.FirmID)
			}
			h.report()
		}
	}
	sub.once.Do(func() { close(sub.ch) })
}

// Publish delivers doc to every subscriber of doc.FirmID. Each subscriber
// gets its own copy. Slow subscribers miss documents instead of blocking.
func (h *Hub) Publish(doc *model.ScoresData) {
	if doc == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[doc.FirmID] {
		select {
		case sub.ch <- doc.Clone():
		default:
			h.logger.Warn("dropping update for slow subscriber",
				logging.Field{Key: "firm_id", Value: doc.FirmID},
				logging.Field{Key: "revision", Value: doc.Revision})
		}
	}
}

// Subscribers reports how many subscribers firmID has.
func (h *Hub) Subscribers(firmID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[firmID])
}

// Shutdown closes every subscription and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for firmID, set := range h.subs {
		for sub := range set {
			sub.once.Do(func() { close(sub.ch) })
		}
		delete(h.subs, firmID)
	}
	h.total = 0
	h.report()
}

func (h *Hub) report() {
	if h.gauge != nil {
		h.gauge.Set(float64(h.total))
	}
}
