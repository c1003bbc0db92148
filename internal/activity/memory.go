package activity

import "sync"

// Memory keeps entries in process. Tests use it to assert on audit output.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *Memory) Record(entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

// Entries returns a copy of everything recorded so far.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
