// Package pubsub implements an in-process publish/subscribe bus.
//
// It stands in, for this repository's purposes, for the production
// fleet-telemetry message bus: OutageServer subscribes to asset and
// metric-unavailable events the same way a real daemon actor subscribes
// to bus topics, and is otherwise unaware it isn't talking to a network
// transport.
//
// Example:
//
//	bus := pubsub.NewBus("outaged")
//	bus.Start(ctx)
//	defer bus.Stop()
//
//	sub := bus.Sub("outage-server")
//	sub.AddFilter(assetevent.T{})
//	sub.Start()
//	defer sub.Stop()
//
//	for msg := range sub.C {
//		switch m := msg.(type) {
//		case assetevent.T:
//			...
//		}
//	}
//
//	bus.Pub(assetevent.T{Name: "UPS33"})
package pubsub

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Label is a key/value tag attached to a publication and matched against
// a subscription's filters.
type Label struct {
	Key   string
	Value string
}

type filter struct {
	typ    reflect.Type
	labels []Label
}

// Subscription receives every publication matching one of its filters on
// channel C. AddFilter must be called before Start; Stop releases the
// subscription. Stop does not drain C or close it.
type Subscription struct {
	C <-chan any

	name    string
	bus     *Bus
	q       chan any
	filters []filter
	cancel  context.CancelFunc
}

// AddFilter registers interest in publications whose value has the same
// dynamic type as msgType, optionally narrowed to publications carrying
// every given label.
func (s *Subscription) AddFilter(msgType any, labels ...Label) {
	s.filters = append(s.filters, filter{typ: reflect.TypeOf(msgType), labels: labels})
}

// Start registers the subscription with its bus. Publications matching
// a filter begin arriving on C.
func (s *Subscription) Start() {
	s.bus.register(s)
}

// Stop unregisters the subscription and returns its name.
func (s *Subscription) Stop() string {
	s.bus.unregister(s)
	if s.cancel != nil {
		s.cancel()
	}
	return s.name
}

func (s *Subscription) matches(v any, labels []Label) bool {
	t := reflect.TypeOf(v)
	for _, f := range s.filters {
		if f.typ != t {
			continue
		}
		if labelsMatch(f.labels, labels) {
			return true
		}
	}
	return false
}

func labelsMatch(want, got []Label) bool {
	for _, w := range want {
		found := false
		for _, g := range got {
			if g.Key == w.Key && g.Value == w.Value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type publication struct {
	value  any
	labels []Label
}

// Bus is a named in-process publish/subscribe hub. The zero value is not
// usable; construct with NewBus.
type Bus struct {
	name string
	log  zerolog.Logger

	mu   sync.Mutex
	subs map[uuid.UUID]*Subscription

	pubC   chan publication
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBus allocates a new, unstarted Bus.
func NewBus(name string) *Bus {
	return &Bus{
		name: name,
		log:  log.Logger.With().Str("bus", name).Logger(),
		subs: make(map[uuid.UUID]*Subscription),
		pubC: make(chan publication),
	}
}

// Start runs the bus's dispatch loop until ctx is cancelled or Stop is
// called.
func (b *Bus) Start(ctx context.Context) {
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-b.ctx.Done():
				return
			case p := <-b.pubC:
				b.dispatch(p)
			}
		}
	}()
	b.log.Debug().Msg("started")
}

// Stop cancels the dispatch loop and waits for it to exit.
func (b *Bus) Stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	b.wg.Wait()
	b.log.Debug().Msg("stopped")
}

func (b *Bus) dispatch(p publication) {
	b.mu.Lock()
	targets := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.matches(p.value, p.labels) {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	for _, s := range targets {
		select {
		case s.q <- p.value:
		case <-b.ctx.Done():
			return
		case <-time.After(2 * time.Second):
			b.log.Warn().Str("sub", s.name).Msg("subscriber queue full, dropping message")
		}
	}
}

// Pub publishes v, tagged with the given labels, to every matching
// subscription.
func (b *Bus) Pub(v any, labels ...Label) {
	select {
	case b.pubC <- publication{value: v, labels: labels}:
	case <-b.ctx.Done():
	}
}

// Sub creates a new, unstarted subscription named name.
func (b *Bus) Sub(name string) *Subscription {
	q := make(chan any, 100)
	return &Subscription{
		C:    q,
		name: name,
		bus:  b,
		q:    q,
	}
}

func (b *Bus) register(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[uuid.New()] = s
}

func (b *Bus) unregister(target *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, s := range b.subs {
		if s == target {
			delete(b.subs, id)
			return
		}
	}
}
