package outage

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/opensvc/fty-outaged/core/assetevent"
)

// MetricUnavailable is the decoded two-frame tombstone message from the
// metric-unavailable stream: ["METRICUNAVAILABLE", "<type>@<asset>"]
// (§4.4.3, §6).
type MetricUnavailable struct {
	Type  string
	Asset string
}

// ParseMetricUnavailable decodes the two-frame payload.
func ParseMetricUnavailable(frames []string) (MetricUnavailable, error) {
	if len(frames) != 2 {
		return MetricUnavailable{}, errors.New("METRICUNAVAILABLE: expected 2 frames")
	}
	if frames[0] != "METRICUNAVAILABLE" {
		return MetricUnavailable{}, errors.Errorf("METRICUNAVAILABLE: unexpected frame 0 %q", frames[0])
	}
	typeAsset := strings.SplitN(frames[1], "@", 2)
	if len(typeAsset) != 2 {
		return MetricUnavailable{}, errors.Errorf("METRICUNAVAILABLE: malformed type@asset %q", frames[1])
	}
	return MetricUnavailable{Type: typeAsset[0], Asset: typeAsset[1]}, nil
}

// onAssetEvent implements §4.4.3's asset-stream handler: resolve any
// active alert when the asset is being deactivated/deleted, then always
// forward the event to the store.
func (s *T) onAssetEvent(ev assetevent.T) {
	now := s.now()
	if ev.IsDeletion() || (ev.Status != "" && ev.Status != "active") {
		s.resolveAlert(ev.Name, now)
	}
	s.store.ApplyAssetEvent(ev, now)
}

// onMetricUnavailable implements §4.4.3's metric-unavailable handler:
// resolve any alert for the asset and forget it entirely.
func (s *T) onMetricUnavailable(ev MetricUnavailable) {
	now := s.now()
	s.resolveAlert(ev.Asset, now)
	s.store.Delete(ev.Asset)
}
