package gcsfusemount

import "sync"

// SessionEntry records one mount successfully established by this plug-in
// instance during the current step.
type SessionEntry struct {
	MountPoint string
	DaemonPID  int
}

// SessionTable is the per-step, per-node, in-memory record of mounts this
// plug-in instance established, in the order they were established.
// Entries must be torn down in reverse insertion order to avoid
// parent/child directory interference.
//
// SessionTable is safe for concurrent use. The host scheduler is expected
// to invoke callbacks sequentially, but nothing here assumes it.
type SessionTable struct {
	mu      sync.Mutex
	entries []SessionEntry
}

// NewSessionTable returns an empty table. cmd/gcsfuse-spank creates one
// in Init, fills it in UserInit and drops it (after Teardown) in Exit; when
// the host provides no instance-scoped storage hook, a single file-scope table
// is acceptable under the invariant that the host runs exactly one step
// per process image.
func NewSessionTable() *SessionTable {
	return &SessionTable{}
}

// Add appends a successfully established mount.
func (t *SessionTable) Add(entry SessionEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, entry)
}

// EntriesReversed returns a snapshot of the recorded entries in reverse
// insertion order, ready for teardown.
func (t *SessionTable) EntriesReversed() []SessionEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]SessionEntry, len(t.entries))

	for i, entry := range t.entries {
		out[len(t.entries)-1-i] = entry
	}

	return out
}

// Len reports the number of recorded entries.
func (t *SessionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}

// Clear empties the table. Called once teardown has run to completion.
func (t *SessionTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = nil
}
