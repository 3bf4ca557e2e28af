package outage

import (
	"github.com/opensvc/fty-outaged/core/alert"
	"github.com/opensvc/fty-outaged/util/metricsserver"
)

// runDeadDeviceScan implements §4.4.1: every dead asset gets an ACTIVE
// alert, re-emitted on every scan even if already active — the spec
// explicitly preserves this "unexplained behaviour change from last
// release" because the downstream evaluator expects periodic
// reassertion (§9).
func (s *T) runDeadDeviceScan() {
	now := s.now()
	dead := s.store.DeadDevices(now)
	for _, name := range dead {
		s.alerts.MarkActive(name)
		s.emitAlert(name, alert.StateActive, now)
	}
	s.scansRun++
	s.lastScanSec = now

	metricsserver.DeadDeviceScans.Inc()
	metricsserver.AlertsActive.Set(float64(s.alerts.Len()))
}

// resolveAlert emits a RESOLVED alert for name if one is currently
// active, and clears it from the table. Safe to call unconditionally.
func (s *T) resolveAlert(name string, now int64) {
	if !s.alerts.IsActive(name) {
		return
	}
	s.alerts.MarkResolved(name)
	s.emitAlert(name, alert.StateResolved, now)
}

// emitAlert builds and publishes the alert envelope for name (§4.4.2).
func (s *T) emitAlert(name string, state alert.State, now int64) {
	env := alert.New(name, s.store.FriendlyName(name), state, now, s.pollIntervalSec)
	s.bus.Pub(env)
	if s.verbose {
		s.log.Debug().Str("asset", name).Str("state", string(state)).Msg("alert emitted")
	}
	switch state {
	case alert.StateActive:
		metricsserver.AlertsRaised.Inc()
	case alert.StateResolved:
		metricsserver.AlertsResolved.Inc()
		metricsserver.AlertsActive.Set(float64(s.alerts.Len()))
	}
}
