package outage

// Commands accepted on the server's command channel (§4.4). Each token in
// the spec's command table is a distinct Go type here rather than a
// string dispatch, so a caller gets compile-time help building a valid
// command instead of having to know the token spelling.

// CmdConnect connects the bus client under address.
type CmdConnect struct {
	Endpoint string
	Address  string
}

// CmdConsumer subscribes to a stream with a pattern filter.
type CmdConsumer struct {
	Stream string
	Filter string
}

// CmdProducer registers as a producer on a stream.
type CmdProducer struct {
	Stream string
}

// CmdStateFile sets the state file path and attempts to load the alert
// table from it.
type CmdStateFile struct {
	Path string
}

// CmdAssetExpirySec overrides the store's default expiry.
type CmdAssetExpirySec struct {
	Sec int64
}

// CmdDefaultMaintenanceExpirationSec sets the default maintenance TTL
// used when a maintenance request omits one.
type CmdDefaultMaintenanceExpirationSec struct {
	Sec int64
}

// CmdVerbose enables verbose message tracing.
type CmdVerbose struct{}

// CmdTerm requests a graceful shutdown: save state and exit.
type CmdTerm struct{}
