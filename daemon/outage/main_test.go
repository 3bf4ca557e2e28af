package outage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/opensvc/fty-outaged/core/alert"
	"github.com/opensvc/fty-outaged/core/alerttable"
	"github.com/opensvc/fty-outaged/core/assetevent"
	"github.com/opensvc/fty-outaged/core/assetstore"
	"github.com/opensvc/fty-outaged/util/logging"
	"github.com/opensvc/fty-outaged/util/pubsub"
)

// testServer wires an OutageServer the same way outagecmd does, but
// with a controllable clock and a capture subscription on the alert
// envelopes the server publishes, so scenarios can be driven step by
// step without waiting on real tickers.
type testServer struct {
	*T
	clock    int64
	alertC   <-chan any
	alertSub *pubsub.Subscription
	bus      *pubsub.Bus
	cancel   context.CancelFunc
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log, err := logging.Configure(logging.Config{Level: "error"})
	require.NoError(t, err)

	bus := pubsub.NewBus("test")
	ctx, cancel := context.WithCancel(context.Background())
	bus.Start(ctx)
	t.Cleanup(cancel)
	t.Cleanup(bus.Stop)

	srv := New(assetstore.New(), alerttable.New(), bus, log, defaultPollIntervalSec)

	ts := &testServer{T: srv, bus: bus, cancel: cancel}
	ts.now = func() int64 { return ts.clock }

	ts.alertSub = bus.Sub("test-capture")
	ts.alertSub.AddFilter(alert.Envelope{})
	ts.alertSub.Start()
	t.Cleanup(func() { ts.alertSub.Stop() })
	ts.alertC = ts.alertSub.C

	return ts
}

func (ts *testServer) expectAlert(t *testing.T, asset string, state alert.State) {
	t.Helper()
	select {
	case v := <-ts.alertC:
		env := v.(alert.Envelope)
		require.Equal(t, "outage/CRITICAL/"+asset, env.Subject)
		require.Equal(t, state, env.State)
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s alert on %s", state, asset)
	}
}

func (ts *testServer) expectNoAlert(t *testing.T) {
	t.Helper()
	select {
	case v := <-ts.alertC:
		t.Fatalf("unexpected alert: %+v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

// Scenario 3 (§8): asset created, metric arrives inside the expiry
// window so no alert fires yet, then the asset goes dead and an ACTIVE
// alert is raised; a resuming metric resolves it.
func TestAlertCycle(t *testing.T) {
	ts := newTestServer(t)
	ts.store.SetDefaultExpiry(3)
	ts.clock = 0

	ts.onAssetEvent(assetevent.T{
		Name: "UPS33", Operation: assetevent.OperationCreate,
		Type: "device", Subtype: "ups", ExtName: "UPS33",
	})

	ts.clock = 1
	res := ts.store.Touch("UPS33", ts.clock, 19, ts.clock)
	require.Equal(t, assetstore.TouchOK, res)
	ts.resolveAlert("UPS33", ts.clock)
	ts.expectNoAlert(t)

	ts.clock = 50
	ts.runDeadDeviceScan()
	ts.expectAlert(t, "UPS33", alert.StateActive)
	require.True(t, ts.alerts.IsActive("UPS33"))

	ts.clock = 51
	res = ts.store.Touch("UPS33", ts.clock, 19, ts.clock)
	require.Equal(t, assetstore.TouchOK, res)
	ts.resolveAlert("UPS33", ts.clock)
	ts.expectAlert(t, "UPS33", alert.StateResolved)
	require.False(t, ts.alerts.IsActive("UPS33"))
}

// Scenario 4 (§8): a maintenance-mode enable resolves the current
// alert and suppresses detection until the deadline, after which the
// asset reverts to its default TTL and, if still silent, is flagged
// ACTIVE again.
func TestMaintenanceRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	ts.store.SetDefaultExpiry(5)
	ts.clock = 0

	ts.store.ApplyAssetEvent(assetevent.T{
		Name: "UPS-42", Operation: assetevent.OperationCreate,
		Type: "device", Subtype: "ups", ExtName: "UPS-42",
	}, ts.clock)
	ts.alerts.MarkActive("UPS-42")

	correlationID := uuid.New()
	req, reason := ParseMaintenanceFrames(correlationID, []string{"enable", "UPS-42", "10"})
	require.Empty(t, reason)

	reply := ts.handleMaintenance(req)
	require.True(t, reply.OK)
	ts.expectAlert(t, "UPS-42", alert.StateResolved)
	require.False(t, ts.alerts.IsActive("UPS-42"))

	ts.clock = 9
	dead := ts.store.DeadDevices(ts.clock)
	require.Empty(t, dead)

	ts.clock = 11
	dead = ts.store.DeadDevices(ts.clock)
	require.Contains(t, dead, "UPS-42")
	ts.runDeadDeviceScan()
	ts.expectAlert(t, "UPS-42", alert.StateActive)
}

// Scenario 5 (§8): an asset update carrying a non-active status
// resolves any active alert and removes the asset from the store
// entirely.
func TestDeactivationResolves(t *testing.T) {
	ts := newTestServer(t)
	ts.clock = 0

	ts.store.ApplyAssetEvent(assetevent.T{
		Name: "UPS-42", Operation: assetevent.OperationCreate,
		Type: "device", Subtype: "ups", ExtName: "UPS-42",
	}, ts.clock)
	ts.alerts.MarkActive("UPS-42")

	ts.onAssetEvent(assetevent.T{
		Name: "UPS-42", Operation: assetevent.OperationUpdate,
		Status: "nonactive", Type: "device", Subtype: "ups",
	})

	ts.expectAlert(t, "UPS-42", alert.StateResolved)
	require.False(t, ts.store.IsTracked("UPS-42"))
}

func TestMaintenanceInvalidFrames(t *testing.T) {
	_, reason := ParseMaintenanceFrames(uuid.New(), nil)
	require.Equal(t, ReasonMissingMaintenanceMode, reason)

	_, reason = ParseMaintenanceFrames(uuid.New(), []string{"bogus", "UPS-1"})
	require.Equal(t, ReasonUnsupportedMaintenance, reason)

	_, reason = ParseMaintenanceFrames(uuid.New(), []string{"enable"})
	require.Equal(t, ReasonCommandFailed, reason)
}

func TestDecodeMailboxRequestInvalidEnvelope(t *testing.T) {
	_, reason := DecodeMailboxRequest(uuid.New(), "PUBLISH", "MAINTENANCE_MODE", []string{"enable", "UPS-1"})
	require.Equal(t, ReasonInvalidMessageType, reason)

	_, reason = DecodeMailboxRequest(uuid.New(), "REQUEST", "", nil)
	require.Equal(t, ReasonMissingCommand, reason)

	_, reason = DecodeMailboxRequest(uuid.New(), "REQUEST", "GET_STATUS", nil)
	require.Equal(t, ReasonInvalidCommand, reason)
}

// Run wires the bus subscriptions live: an asset event published on the
// bus reaches onAssetEvent through the real select loop, and a $TERM
// command stops the actor cleanly.
func TestRunConsumesBusEventsAndTerminates(t *testing.T) {
	ts := newTestServer(t)
	ts.store.SetDefaultExpiry(30)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		ts.T.Run(ctx)
		close(done)
	}()

	ts.bus.Pub(assetevent.T{
		Name: "UPS-RUN", Operation: assetevent.OperationCreate,
		Type: "device", Subtype: "ups", ExtName: "UPS-RUN",
	})

	require.Eventually(t, func() bool {
		return ts.store.IsTracked("UPS-RUN")
	}, time.Second, 10*time.Millisecond)

	ts.Command(CmdTerm{})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after CmdTerm")
	}
}
