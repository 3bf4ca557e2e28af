// Package assetevent decodes the asset-lifecycle envelopes consumed from
// the asset stream (§4.2, §4.4.3 of the spec).
package assetevent

// Operation is the asset envelope's operation field.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// T is a decoded asset event: {operation, status, name, type, subtype,
// ext.name, ext.device_type}.
type T struct {
	Name       string
	Operation  Operation
	Status     string
	Type       string
	Subtype    string
	ExtName    string
	DeviceType string
}

// supportedSubtypes are device subtypes directly tracked for outage
// detection.
var supportedSubtypes = map[string]bool{
	"ups":        true,
	"epdu":       true,
	"sensor":     true,
	"sensorgpio": true,
}

// IsDeletion reports whether this event removes the asset from tracking.
func (e T) IsDeletion() bool {
	return e.Operation == OperationDelete || e.Status == "nonactive" || e.Status == "retired"
}

// IsTrackedDevice reports whether this event declares an asset of a
// subtype the outage detector tracks.
func (e T) IsTrackedDevice() bool {
	if e.Type != "device" {
		return false
	}
	if supportedSubtypes[e.Subtype] {
		return true
	}
	if e.Subtype == "sts" && e.DeviceType != "" {
		return true
	}
	return false
}
