package radio

import "sync"

// nodeTable tracks the last-known position per node. Positions arrive on
// the read loop; lookups come from the dispatch path, so access is
// guarded by a read-write mutex.
type nodeTable struct {
	mu        sync.RWMutex
	positions map[NodeID]Position
}

func newNodeTable() *nodeTable {
	return &nodeTable{positions: make(map[NodeID]Position)}
}

func (t *nodeTable) update(id NodeID, pos Position) {
	if id == "" {
		return
	}
	t.mu.Lock()
	t.positions[id] = pos
	t.mu.Unlock()
}

func (t *nodeTable) position(id NodeID) (Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pos, ok := t.positions[id]
	return pos, ok
}
