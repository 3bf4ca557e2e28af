package outage

import (
	"context"

	"github.com/google/uuid"

	"github.com/opensvc/fty-outaged/util/pubsub"
)

// MailboxRequestFrame is the bus-carried form of a raw mailbox REQUEST
// message (§4.4.3/§4.4.4): message type, command literal, and the
// command's own argument frames. Whatever plays the role of the
// remote-control client in this process publishes one of these to ask
// the server to do something — today, only MAINTENANCE_MODE is
// implemented, everything else decodes to an error reply.
type MailboxRequestFrame struct {
	CorrelationID uuid.UUID
	MessageType   string
	Command       string
	Args          []string
}

// MaintenanceReplyFrame answers a MailboxRequestFrame, correlated by
// CorrelationID: REPLY/OK on success, REPLY/ERROR/<reason> on failure.
type MaintenanceReplyFrame struct {
	CorrelationID uuid.UUID
	OK            bool
	Reason        string
}

// ServeMailbox subscribes to incoming MailboxRequestFrame publications
// and answers each one through server's mailbox (RequestMaintenance),
// publishing the reply back on bus. It runs until ctx is cancelled. This
// is the external entry point for the MAINTENANCE_MODE contract handled
// internally by handleMaintenance.
func ServeMailbox(ctx context.Context, bus *pubsub.Bus, server *T) {
	sub := bus.Sub("outage-server-mailbox")
	sub.AddFilter(MailboxRequestFrame{})
	sub.Start()
	defer sub.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case v := <-sub.C:
			go answerMailboxRequest(bus, server, v.(MailboxRequestFrame))
		}
	}
}

func answerMailboxRequest(bus *pubsub.Bus, server *T, fr MailboxRequestFrame) {
	req, reason := DecodeMailboxRequest(fr.CorrelationID, fr.MessageType, fr.Command, fr.Args)
	if reason != "" {
		bus.Pub(MaintenanceReplyFrame{CorrelationID: fr.CorrelationID, OK: false, Reason: reason})
		return
	}

	replyC := make(chan MaintenanceReply, 1)
	req.ReplyC = replyC
	server.RequestMaintenance(req)
	reply := <-replyC

	bus.Pub(MaintenanceReplyFrame{CorrelationID: fr.CorrelationID, OK: reply.OK, Reason: reply.Reason})
}
