// Package assetstore implements the AssetStore (§4.2): the mapping from
// asset identifier to liveness state and friendly name, the asset-event
// lifecycle, and the dead-device scan.
//
// The store is shared between the OutageServer and the OutageMetricPoller
// (§5); all mutation and every read used for a single logical operation
// happens under one mutex, matching the spec's explicit preference for a
// single-writer mutex over message-passing for this kind of bursty-read
// contention.
package assetstore

import (
	"sync"

	"github.com/opensvc/fty-outaged/core/assetevent"
	"github.com/opensvc/fty-outaged/core/expiration"
)

// DefaultExpirySec is the TTL assigned to a newly tracked asset before any
// metric has narrowed it: 7.5 minutes, chosen so the derived expiry
// (2*TTL) is 15 minutes with no metrics at all.
const DefaultExpirySec = 450

// TouchResult reports the outcome of Touch.
type TouchResult int

const (
	// TouchUnknown means the asset is not tracked; the call was a no-op.
	TouchUnknown TouchResult = iota
	// TouchOK means last-seen and TTL were updated.
	TouchOK
	// TouchFuture means the metric timestamp was ahead of now and was
	// dropped; TTL was still updated.
	TouchFuture
)

// MaintenanceResult reports the outcome of SetMaintenance.
type MaintenanceResult int

const (
	MaintenanceUnknown MaintenanceResult = iota
	MaintenanceOK
)

type entry struct {
	expiry expiration.T
	name   string
}

// T is the asset store.
type T struct {
	mu         sync.Mutex
	assets     map[string]entry
	defaultTTL int64
}

// New returns an empty store with the default expiry.
func New() *T {
	return &T{
		assets:     make(map[string]entry),
		defaultTTL: DefaultExpirySec,
	}
}

// SetDefaultExpiry overrides the store-wide default TTL for newly tracked
// assets. Already-tracked assets keep their own TTL.
func (s *T) SetDefaultExpiry(sec int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultTTL = sec
}

// DefaultExpiry returns the store-wide default TTL.
func (s *T) DefaultExpiry() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaultTTL
}

// ApplyAssetEvent applies a decoded asset envelope (§4.2).
func (s *T) ApplyAssetEvent(ev assetevent.T, now int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.IsDeletion() {
		delete(s.assets, ev.Name)
		return
	}
	if !ev.IsTrackedDevice() {
		return
	}
	e, ok := s.assets[ev.Name]
	if !ok {
		e = entry{expiry: expiration.New(s.defaultTTL)}
		e.expiry.UpdateLastSeen(now)
	}
	e.name = ev.ExtName
	s.assets[ev.Name] = e
}

// Touch records a metric observation for name. Unknown assets are
// silently ignored (§4.2, §7): only declared assets are tracked.
func (s *T) Touch(name string, timestampSec, ttlSec, nowSec int64) TouchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.assets[name]
	if !ok {
		return TouchUnknown
	}
	e.expiry.UpdateTTL(ttlSec)
	if timestampSec > nowSec {
		s.assets[name] = e
		return TouchFuture
	}
	e.expiry.UpdateLastSeen(timestampSec)
	s.assets[name] = e
	return TouchOK
}

// SetMaintenance enables or disables maintenance for name. until == 0
// clears maintenance and restores the store default TTL; the design
// notes (§9) prefer this deadline form over a silent TTL mutation so
// clearing maintenance always returns to a documented TTL rather than
// whatever value metrics happened to narrow it to while the window was
// shrinking maintenance-driven behaviour.
func (s *T) SetMaintenance(name string, until int64) MaintenanceResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.assets[name]
	if !ok {
		return MaintenanceUnknown
	}
	if until == 0 {
		e.expiry.SetMaintenance(0)
		e.expiry.ResetTTL(s.defaultTTL)
	} else {
		e.expiry.SetMaintenance(until)
	}
	s.assets[name] = e
	return MaintenanceOK
}

// EnsureTracked creates a fresh Expiration for name if it is not already
// tracked, using ttl as its initial TTL. Used by maintenance-mode requests
// for an unknown asset (§4.4.4), which is the other path (besides
// ApplyAssetEvent) that can create an Expiration.
func (s *T) EnsureTracked(name string, ttl int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[name]; ok {
		return
	}
	s.assets[name] = entry{expiry: expiration.New(ttl)}
}

// Delete removes name from the store.
func (s *T) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assets, name)
}

// DeadDevices returns every tracked asset whose expiration time has
// passed. Order is unspecified.
func (s *T) DeadDevices(now int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dead []string
	for name, e := range s.assets {
		if e.expiry.ExpirationTime() <= now {
			dead = append(dead, name)
		}
		s.assets[name] = e
	}
	return dead
}

// AllDevices returns every tracked asset name.
func (s *T) AllDevices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.assets))
	for name := range s.assets {
		names = append(names, name)
	}
	return names
}

// FriendlyName returns the display name for name, or "" if unknown.
func (s *T) FriendlyName(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assets[name].name
}

// IsTracked reports whether name is currently tracked.
func (s *T) IsTracked(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.assets[name]
	return ok
}
