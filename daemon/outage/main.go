// Package outage implements OutageServer (§4.4): the actor that tracks
// per-asset liveness, raises and resolves outage alerts, answers
// maintenance-mode requests, and persists the alert table across
// restarts.
//
// The main loop follows the teacher's daemon/nmon worker shape: one
// select over a command channel, a bus-fed external channel, a mailbox
// channel, and a set of timers, rather than spreading the same state
// across several goroutines.
package outage

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/opensvc/fty-outaged/core/alerttable"
	"github.com/opensvc/fty-outaged/core/assetevent"
	"github.com/opensvc/fty-outaged/core/assetstore"
	"github.com/opensvc/fty-outaged/util/pubsub"
)

const (
	defaultPollIntervalSec                = 5
	defaultSaveInterval                   = 45 * time.Minute
	defaultMaintenanceExpirationSec int64 = 3600
	defaultStateFilePath                  = "/var/lib/fty-outage/state.zpl"
)

// T is the OutageServer actor.
type T struct {
	store  *assetstore.T
	alerts *alerttable.T
	bus    *pubsub.Bus
	log    zerolog.Logger
	now    func() int64

	cmdC     chan any
	mailboxC chan MaintenanceRequest
	resolveC chan string

	assetSub         *pubsub.Subscription
	metricUnavailSub *pubsub.Subscription

	pollIntervalSec                 int64
	saveInterval                    time.Duration
	stateFilePath                   string
	defaultMaintenanceExpirationSec int64
	verbose                         bool
	connected                       bool

	lastScanSec int64
	lastSave    time.Time
	scansRun    int64
}

// New returns an unstarted OutageServer wired to store, alerts and bus,
// scanning for dead devices and computing alert TTLs at pollIntervalSec
// (§4.4 step 3, §4.4.2) — pass defaultPollIntervalSec to keep the
// built-in default. The interval is fixed for the actor's lifetime: it
// drives the ticker built once at the top of Run, so changing it after
// Run has started would have no effect.
func New(store *assetstore.T, alerts *alerttable.T, bus *pubsub.Bus, log zerolog.Logger, pollIntervalSec int64) *T {
	return &T{
		store:  store,
		alerts: alerts,
		bus:    bus,
		log:    log.With().Str("actor", "outage-server").Logger(),
		now:    func() int64 { return time.Now().Unix() },

		cmdC:     make(chan any, 16),
		mailboxC: make(chan MaintenanceRequest, 16),
		resolveC: make(chan string, 64),

		pollIntervalSec:                 pollIntervalSec,
		saveInterval:                    defaultSaveInterval,
		stateFilePath:                   defaultStateFilePath,
		defaultMaintenanceExpirationSec: defaultMaintenanceExpirationSec,
	}
}

// Command submits cmd to the actor's command channel, blocking until it
// is accepted.
func (s *T) Command(cmd any) {
	s.cmdC <- cmd
}

// RequestMaintenance submits req to the actor's mailbox, blocking until
// it is accepted. The caller must read req.ReplyC for the outcome.
func (s *T) RequestMaintenance(req MaintenanceRequest) {
	s.mailboxC <- req
}

// RequestResolve asks the server to resolve any active alert held by
// asset. OutageMetricPoller uses this instead of touching the alert
// table directly, keeping alert-table mutation confined to this actor
// (§4.7).
func (s *T) RequestResolve(asset string) {
	select {
	case s.resolveC <- asset:
	default:
		s.log.Warn().Str("asset", asset).Msg("resolve request dropped, mailbox full")
	}
}

// subscribeExternal wires the bus subscriptions the server listens on
// (§4.7): asset lifecycle events and metric-unavailable tombstones.
func (s *T) subscribeExternal() {
	s.assetSub = s.bus.Sub("outage-server-assets")
	s.assetSub.AddFilter(assetevent.T{})
	s.assetSub.Start()

	s.metricUnavailSub = s.bus.Sub("outage-server-metric-unavailable")
	s.metricUnavailSub.AddFilter(MetricUnavailable{})
	s.metricUnavailSub.Start()
}

// Run is the actor's main loop (§4.4, steps 1-5). It returns when ctx is
// cancelled or a CmdTerm is received, having first persisted the alert
// table.
func (s *T) Run(ctx context.Context) {
	s.subscribeExternal()
	defer s.assetSub.Stop()
	defer s.metricUnavailSub.Stop()

	pollTicker := time.NewTicker(time.Duration(s.pollIntervalSec) * time.Second)
	defer pollTicker.Stop()
	saveTicker := time.NewTicker(s.saveInterval)
	defer saveTicker.Stop()

	s.lastSave = time.Now()

	for {
		select {
		case <-ctx.Done():
			s.saveState()
			return

		case cmd := <-s.cmdC:
			if s.handleCommand(cmd) {
				s.saveState()
				return
			}

		case ev := <-s.assetSub.C:
			s.onAssetEvent(ev.(assetevent.T))

		case ev := <-s.metricUnavailSub.C:
			s.onMetricUnavailable(ev.(MetricUnavailable))

		case req := <-s.mailboxC:
			reply := s.handleMaintenance(req)
			if req.ReplyC != nil {
				req.ReplyC <- reply
			}

		case asset := <-s.resolveC:
			s.resolveAlert(asset, s.now())

		case <-pollTicker.C:
			s.runDeadDeviceScan()

		case <-saveTicker.C:
			s.saveState()
		}
	}
}

// handleCommand applies cmd (§4.4's command table) and reports whether
// the actor should shut down.
func (s *T) handleCommand(cmd any) (shutdown bool) {
	switch c := cmd.(type) {
	case CmdConnect:
		first := !s.connected
		s.connected = true
		s.log.Info().Str("endpoint", c.Endpoint).Str("address", c.Address).Msg("connected")
		if first {
			s.bus.Pub(RepublishRequest{})
		}
	case CmdConsumer:
		s.log.Info().Str("stream", c.Stream).Str("filter", c.Filter).Msg("consumer registered")
	case CmdProducer:
		s.log.Info().Str("stream", c.Stream).Msg("producer registered")
	case CmdStateFile:
		s.stateFilePath = c.Path
		s.alerts.LoadOrWarn(c.Path, s.log)
	case CmdAssetExpirySec:
		s.store.SetDefaultExpiry(c.Sec)
	case CmdDefaultMaintenanceExpirationSec:
		s.defaultMaintenanceExpirationSec = c.Sec
	case CmdVerbose:
		s.verbose = true
	case CmdTerm:
		return true
	default:
		s.log.Warn().Interface("command", cmd).Msg("unrecognised command")
	}
	return false
}

func (s *T) saveState() {
	if err := s.alerts.Save(s.stateFilePath); err != nil {
		s.log.Warn().Err(err).Str("path", s.stateFilePath).Msg("save alert state file")
		return
	}
	s.lastSave = time.Now()
}

// RepublishRequest is published once, on first successful bus
// connection, asking the asset service to replay every asset created
// before this server started (§4.4 step 4).
type RepublishRequest struct{}
