package enrich

import (
	"sync"

	"whodunnit/pkg/model"
)

// call is one in-progress resolution. Waiters block on done and then
// read val.
type call struct {
	done chan struct{}
	val  *model.LocalEnrichment
}

// inflightMap coalesces concurrent resolutions of the same cache key:
// whoever registers first does the work, everyone else waits for the
// same result. Entries are removed exactly once, when the owning call
// settles.
type inflightMap struct {
	mu    sync.Mutex
	calls map[string]*call
}

func newInflightMap() *inflightMap {
	return &inflightMap{calls: make(map[string]*call)}
}

// begin returns the call registered for key. The second return is true
// if the caller registered it and therefore owns the resolution.
func (m *inflightMap) begin(key string) (*call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.calls[key]; ok {
		return c, false
	}
	c := &call{done: make(chan struct{})}
	m.calls[key] = c
	return c, true
}

// finish publishes the result and deregisters the call.
func (m *inflightMap) finish(key string, c *call, val *model.LocalEnrichment) {
	m.mu.Lock()
	delete(m.calls, key)
	m.mu.Unlock()

	c.val = val
	close(c.done)
}
