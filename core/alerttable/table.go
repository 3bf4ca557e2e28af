// Package alerttable implements the AlertTable (§4.3): the set of assets
// currently holding an ACTIVE outage alert, persisted to a crash-surviving
// state file so alerts are not spuriously resolved then re-raised after a
// restart.
package alerttable

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/opensvc/fty-outaged/internal/zpltext"
)

// T is the alert table. Membership is mutated only by the OutageServer
// (§3); the mutex here protects against the save path running
// concurrently with a mutation, not against a second writer.
type T struct {
	mu     sync.Mutex
	active map[string]bool
}

// New returns an empty alert table.
func New() *T {
	return &T{active: make(map[string]bool)}
}

// IsActive reports whether name currently holds an ACTIVE alert.
func (t *T) IsActive(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active[name]
}

// MarkActive records that name now holds an ACTIVE alert.
func (t *T) MarkActive(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[name] = true
}

// MarkResolved clears any ACTIVE alert recorded for name. It is always
// safe to call on an asset with no active alert.
func (t *T) MarkResolved(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, name)
}

// Len returns the number of assets currently holding an ACTIVE alert.
func (t *T) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// Names returns the set of assets currently holding an ACTIVE alert, in
// unspecified order.
func (t *T) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.active))
	for name := range t.active {
		names = append(names, name)
	}
	return names
}

// Save persists the table to path. A failure to write is logged as a
// warning, not returned as a hard failure to the caller's own
// shutdown/save-interval path (§7): the caller decides how to log it, but
// Save itself always returns the underlying error so the caller can
// choose.
func (t *T) Save(path string) error {
	return zpltext.WriteAlerts(path, t.Names())
}

// Load replaces the table's contents with what's recorded at path. An
// absent file or a file without an alerts section is an error (§4.3,
// §7); the caller logs it and proceeds with whatever the table already
// held (typically empty, since Load is normally called once at startup).
func (t *T) Load(path string) error {
	names, err := zpltext.ReadAlerts(path)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = make(map[string]bool, len(names))
	for _, name := range names {
		t.active[name] = true
	}
	return nil
}

// LoadOrWarn calls Load and logs a warning on failure instead of
// returning the error, matching the server's STATE_FILE command handler
// (§4.4): the table is left empty and the server proceeds.
func (t *T) LoadOrWarn(path string, log zerolog.Logger) {
	if err := t.Load(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("load alert state file")
	}
}
