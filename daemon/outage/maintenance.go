package outage

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// MaintenanceMode is the mode token of a maintenance-mode request (§4.4.4).
type MaintenanceMode string

const (
	MaintenanceEnable  MaintenanceMode = "enable"
	MaintenanceDisable MaintenanceMode = "disable"
)

// Reply reasons, verbatim per §4.4.4.
const (
	ReasonInvalidMessageType     = "Invalid message type"
	ReasonMissingCommand         = "Missing command"
	ReasonInvalidCommand         = "Invalid command"
	ReasonMissingMaintenanceMode = "Missing maintenance mode"
	ReasonUnsupportedMaintenance = "Unsupported maintenance mode"
	ReasonCommandFailed          = "Command failed"
)

// MaintenanceRequest is a decoded mailbox REQUEST/MAINTENANCE_MODE frame
// set: mode, one or more asset names, and an optional TTL override.
type MaintenanceRequest struct {
	CorrelationID uuid.UUID
	Mode          MaintenanceMode
	Assets        []string
	TTLSec        int64 // 0 means "use the server default"
	ReplyC        chan<- MaintenanceReply
}

// MaintenanceReply is sent back on the request's ReplyC.
type MaintenanceReply struct {
	OK     bool
	Reason string
}

// looksLikeTTL reports whether frame is a TTL rather than an asset name:
// asset names always contain a hyphen (§4.4.4, §9 — flagged in DESIGN.md
// as an assumption carried over from the original implementation rather
// than independently verified).
func looksLikeTTL(frame string) bool {
	return !strings.Contains(frame, "-")
}

// DecodeMailboxRequest decodes a raw mailbox REQUEST frame set
// (message type, command literal, command arguments) and, for a
// MAINTENANCE_MODE command, the frames that follow: mode, one or more
// asset names, and an optional trailing TTL integer.
func DecodeMailboxRequest(correlationID uuid.UUID, messageType, command string, args []string) (MaintenanceRequest, string) {
	if messageType != "REQUEST" {
		return MaintenanceRequest{}, ReasonInvalidMessageType
	}
	if command == "" {
		return MaintenanceRequest{}, ReasonMissingCommand
	}
	if command != "MAINTENANCE_MODE" {
		return MaintenanceRequest{}, ReasonInvalidCommand
	}
	return ParseMaintenanceFrames(correlationID, args)
}

// ParseMaintenanceFrames decodes the frames following
// REQUEST/<correlation-id>/MAINTENANCE_MODE: mode, one or more asset
// names, and an optional trailing TTL integer.
func ParseMaintenanceFrames(correlationID uuid.UUID, frames []string) (MaintenanceRequest, string) {
	if len(frames) == 0 {
		return MaintenanceRequest{}, ReasonMissingMaintenanceMode
	}
	mode := MaintenanceMode(frames[0])
	if mode != MaintenanceEnable && mode != MaintenanceDisable {
		return MaintenanceRequest{}, ReasonUnsupportedMaintenance
	}
	rest := frames[1:]

	var (
		assets []string
		ttl    int64
	)
	for i, f := range rest {
		if i == len(rest)-1 && looksLikeTTL(f) {
			n, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return MaintenanceRequest{}, ReasonInvalidCommand
			}
			ttl = n
			continue
		}
		assets = append(assets, f)
	}
	// No valid asset name survived: the original implementation leaves
	// its result accumulator at -1 in exactly this case (zero assets
	// processed) and reports it the same way it reports a processing
	// failure.
	if len(assets) == 0 {
		return MaintenanceRequest{}, ReasonCommandFailed
	}
	return MaintenanceRequest{
		CorrelationID: correlationID,
		Mode:          mode,
		Assets:        assets,
		TTLSec:        ttl,
	}, ""
}

// handleMaintenance implements §4.4.4: create any unknown asset, apply
// the maintenance mode to every named asset, resolve any active alert for
// each (maintenance implies no outage), and reply before returning —
// satisfying the ordering guarantee (§5c) that the enable/disable is
// applied before the reply is sent. EnsureTracked above guarantees every
// asset in req.Assets is tracked by the time SetMaintenance runs, so it
// cannot fail here the way it can for an asset named from a stale cache.
func (s *T) handleMaintenance(req MaintenanceRequest) MaintenanceReply {
	ttl := req.TTLSec
	if ttl == 0 {
		ttl = s.defaultMaintenanceExpirationSec
	}

	now := s.now()
	for _, asset := range req.Assets {
		if !s.store.IsTracked(asset) {
			s.store.EnsureTracked(asset, s.store.DefaultExpiry())
		}
		switch req.Mode {
		case MaintenanceEnable:
			s.store.SetMaintenance(asset, now+ttl)
		case MaintenanceDisable:
			s.store.SetMaintenance(asset, 0)
		}
		s.resolveAlert(asset, now)
	}
	return MaintenanceReply{OK: true}
}
