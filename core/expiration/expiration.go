// Package expiration tracks the per-asset liveness accounting used by the
// outage detector: the last time a device reported, the tightest TTL it
// ever advertised, and an optional operator-imposed maintenance deadline.
package expiration

// T holds the liveness accounting for a single tracked asset.
//
// last_seen only moves forward, ttl only moves down: a device that once
// promised a short reporting interval is held to that bar even if later
// metrics advertise a longer one, and a metric dated in the past never
// pushes the computed expiration backwards.
type T struct {
	lastSeen         int64
	ttl              int64
	maintenanceUntil int64
}

// New returns an Expiration with zero last-seen and no maintenance window,
// held to defaultTTL until a metric narrows it.
func New(defaultTTL int64) T {
	return T{ttl: defaultTTL}
}

// LastSeen returns the last-seen wall-clock second.
func (e T) LastSeen() int64 { return e.lastSeen }

// TTL returns the current (minimum observed) TTL in seconds.
func (e T) TTL() int64 { return e.ttl }

// MaintenanceUntil returns the maintenance deadline, or 0 when not in
// maintenance.
func (e T) MaintenanceUntil() int64 { return e.maintenanceUntil }

// UpdateLastSeen advances last-seen to t, ignoring t if it is in the past
// relative to what's already recorded.
func (e *T) UpdateLastSeen(t int64) {
	if t > e.lastSeen {
		e.lastSeen = t
	}
}

// UpdateTTL narrows ttl to t, ignoring t if it is wider than what's already
// recorded.
func (e *T) UpdateTTL(t int64) {
	if t < e.ttl {
		e.ttl = t
	}
}

// SetMaintenance writes the maintenance deadline unconditionally. Zero
// clears it.
func (e *T) SetMaintenance(until int64) {
	e.maintenanceUntil = until
}

// ResetTTL writes ttl directly, bypassing the monotonic-narrowing rule
// UpdateTTL enforces for metric-driven updates. Used only to restore the
// store default TTL when an operator clears maintenance (§4.2): that is
// an explicit administrative write, not a metric observation, so it is
// allowed to widen the TTL back out.
func (e *T) ResetTTL(ttl int64) {
	e.ttl = ttl
}

// ExpirationTime computes last_seen + 2*ttl, overridden by the maintenance
// deadline while it is strictly in the future of that value. A maintenance
// deadline that has been reached is auto-cleared as a side effect of this
// call, matching the C original's behaviour of folding the auto-reset into
// the read path rather than requiring a separate sweep.
func (e *T) ExpirationTime() int64 {
	derived := e.lastSeen + 2*e.ttl
	if e.maintenanceUntil > derived {
		return e.maintenanceUntil
	}
	if e.maintenanceUntil != 0 {
		e.maintenanceUntil = 0
	}
	return derived
}
