package outage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/opensvc/fty-outaged/core/assetevent"
)

// ServeMailbox is the only way an operator outside the process can
// reach handleMaintenance; this exercises it end to end over the bus.
func TestServeMailboxEnableAndReject(t *testing.T) {
	ts := newTestServer(t)
	ts.store.SetDefaultExpiry(5)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverDone := make(chan struct{})
	go func() {
		ts.T.Run(ctx)
		close(serverDone)
	}()
	go ServeMailbox(ctx, ts.bus, ts.T)

	ts.store.ApplyAssetEvent(assetevent.T{
		Name: "UPS-9", Operation: assetevent.OperationCreate,
		Type: "device", Subtype: "ups", ExtName: "UPS-9",
	}, 0)

	replySub := ts.bus.Sub("test-mailbox-reply")
	replySub.AddFilter(MaintenanceReplyFrame{})
	replySub.Start()
	defer replySub.Stop()

	correlationID := uuid.New()
	ts.bus.Pub(MailboxRequestFrame{
		CorrelationID: correlationID,
		MessageType:   "REQUEST",
		Command:       "MAINTENANCE_MODE",
		Args:          []string{"enable", "UPS-9", "10"},
	})

	select {
	case v := <-replySub.C:
		reply := v.(MaintenanceReplyFrame)
		require.Equal(t, correlationID, reply.CorrelationID)
		require.True(t, reply.OK)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for maintenance reply")
	}

	badID := uuid.New()
	ts.bus.Pub(MailboxRequestFrame{
		CorrelationID: badID,
		MessageType:   "REQUEST",
		Command:       "MAINTENANCE_MODE",
		Args:          []string{"bogus", "UPS-9"},
	})

	select {
	case v := <-replySub.C:
		reply := v.(MaintenanceReplyFrame)
		require.Equal(t, badID, reply.CorrelationID)
		require.False(t, reply.OK)
		require.Equal(t, ReasonUnsupportedMaintenance, reply.Reason)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error reply")
	}

	invalidCmdID := uuid.New()
	ts.bus.Pub(MailboxRequestFrame{
		CorrelationID: invalidCmdID,
		MessageType:   "REQUEST",
		Command:       "BOGUS_COMMAND",
	})

	select {
	case v := <-replySub.C:
		reply := v.(MaintenanceReplyFrame)
		require.Equal(t, invalidCmdID, reply.CorrelationID)
		require.False(t, reply.OK)
		require.Equal(t, ReasonInvalidCommand, reply.Reason)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error reply")
	}

	ts.Command(CmdTerm{})
	select {
	case <-serverDone:
	case <-time.After(time.Second):
		t.Fatal("server did not terminate")
	}
}
