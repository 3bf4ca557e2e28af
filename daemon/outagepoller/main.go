// Package outagepoller implements OutageMetricPoller (§4.5): the child
// actor that periodically drains the shared metric store into the
// AssetStore's liveness accounting and writes a summary "outage" metric
// back for every known device.
package outagepoller

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/opensvc/fty-outaged/core/assetstore"
	"github.com/opensvc/fty-outaged/core/metricstore"
	"github.com/opensvc/fty-outaged/daemon/outage"
	"github.com/opensvc/fty-outaged/util/metricsserver"
)

// summaryMetricType is the type name of the poller's own output metric
// (§4.5 step 4). It is written with an x-cm-count tag so the poller
// ignores it on the following tick.
const summaryMetricType = "outage"

const (
	valueActive   = "ACTIVE"
	valueInactive = "INACTIVE"
)

// newTimer is a factory for a timer channel and its stop function,
// injected so tests can drive Run's tick cadence with a
// chronon.FakeClock instead of a wall-clock time.Timer (grounded on the
// xmidt-org/haelu monitor's now/newTimer closure pair).
type newTimer func(time.Duration) (<-chan time.Time, func() bool)

func defaultNewTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

// T is the OutageMetricPoller actor.
type T struct {
	metrics *metricstore.T
	store   *assetstore.T
	server  *outage.T
	log     zerolog.Logger
	now     func() int64

	newTimer     newTimer
	pollInterval time.Duration
	pollSec      int64
}

// New returns an unstarted poller reading metrics, updating store, and
// asking server to resolve alerts for assets it sees touched.
func New(metrics *metricstore.T, store *assetstore.T, server *outage.T, pollInterval time.Duration, log zerolog.Logger) *T {
	return &T{
		metrics:      metrics,
		store:        store,
		server:       server,
		log:          log.With().Str("actor", "outage-metric-poller").Logger(),
		now:          func() int64 { return time.Now().Unix() },
		newTimer:     defaultNewTimer,
		pollInterval: pollInterval,
		pollSec:      int64(pollInterval / time.Second),
	}
}

// Run ticks at the configured poll interval until ctx is cancelled,
// re-arming its own timer after each tick rather than using a
// time.Ticker so the same newTimer closure serves both real and fake
// clocks.
func (p *T) Run(ctx context.Context) {
	timeC, stop := p.newTimer(p.pollInterval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timeC:
			p.tick()
			timeC, stop = p.newTimer(p.pollInterval)
		}
	}
}

// tick implements §4.5's four steps for a single poll.
func (p *T) tick() {
	metricsserver.PollerTicks.Inc()
	now := p.now()
	metrics := p.metrics.ReadMetrics("*", "*")

	seen := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		if m.IsComputed() {
			continue
		}
		asset := m.Asset
		if port, ok := m.SensorPort(); ok {
			asset = port
		}
		if asset == "" {
			continue
		}

		res := p.store.Touch(asset, m.TimeSec, m.TTLSec, now)
		if res == assetstore.TouchUnknown {
			continue
		}
		seen[asset] = true
		p.server.RequestResolve(asset)
	}

	p.writeSummary(seen, now)
}

// writeSummary implements §4.5 step 4: one outage/ACTIVE-or-INACTIVE
// metric per known device, tagged so the poller ignores it next tick.
func (p *T) writeSummary(seen map[string]bool, now int64) {
	ttl := 2*p.pollSec - 1
	for _, asset := range p.store.AllDevices() {
		value := valueInactive
		if !seen[asset] {
			value = valueActive
		}
		p.metrics.WriteMetricProto(metricstore.Metric{
			Type:    summaryMetricType,
			Asset:   asset,
			Value:   value,
			TTLSec:  ttl,
			TimeSec: now,
			Aux:     map[string]string{"x-cm-count": "0"},
		})
	}
	p.log.Debug().Int("seen", len(seen)).Msg("summary metrics written")
}
