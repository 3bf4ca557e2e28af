// Package alert builds the outage alert envelopes emitted downstream
// (§4.4.2).
package alert

import "fmt"

// State is the alert lifecycle state.
type State string

const (
	StateActive   State = "ACTIVE"
	StateResolved State = "RESOLVED"
)

// Severity is always CRITICAL for outage alerts; kept as a field rather
// than a constant literal so the envelope shape matches what's actually
// serialised downstream.
const Severity = "CRITICAL"

// Channels are the fixed notification channels for an outage alert (§4.4.2).
var Channels = []string{"EMAIL", "SMS"}

// Envelope is one outage alert, as emitted on the alerts stream.
type Envelope struct {
	Subject     string
	Rule        string
	State       State
	Severity    string
	TimestampS  int64
	TTLSec      int64
	Description string
	Channels    []string
}

// New builds the envelope for asset, using friendlyName in the
// description and pollIntervalSec*3 as the TTL (§4.4.2).
func New(asset, friendlyName string, state State, nowSec, pollIntervalSec int64) Envelope {
	return Envelope{
		Subject:     fmt.Sprintf("outage/CRITICAL/%s", asset),
		Rule:        fmt.Sprintf("outage@%s", asset),
		State:       state,
		Severity:    Severity,
		TimestampS:  nowSec,
		TTLSec:      3 * pollIntervalSec,
		Description: Description(friendlyName),
		Channels:    Channels,
	}
}

// Description renders the localised outage description for a device with
// the given friendly name.
func Description(friendlyName string) string {
	return fmt.Sprintf("Device %s does not provide expected data. It may be offline or not correctly configured.", friendlyName)
}
