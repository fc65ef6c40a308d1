package stream

import (
	"sort"
	"sync"

	"github.com/mtlprog/finagent/internal/metrics"
)

// ConnectionRegistry tracks the open streaming connections of one process.
type ConnectionRegistry struct {
	mu    sync.Mutex
	conns map[string]Conn
}

// NewConnectionRegistry creates an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{conns: make(map[string]Conn)}
}

// Register adds conn under id.
func (r *ConnectionRegistry) Register(id string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conns[id]; !exists {
		metrics.StreamConnections.Inc()
	}
	r.conns[id] = conn
}

// Deregister removes id. Removing an unknown id is a no-op.
func (r *ConnectionRegistry) Deregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conns[id]; exists {
		delete(r.conns, id)
		metrics.StreamConnections.Dec()
	}
}

// Count returns the number of open connections.
func (r *ConnectionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// IDs lists the open connection ids in sorted order.
func (r *ConnectionRegistry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CloseAll closes every registered connection. Used on shutdown.
func (r *ConnectionRegistry) CloseAll() {
	r.mu.Lock()
	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}
