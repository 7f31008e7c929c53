// Package connectivity tracks the host's online/offline signal. The host
// forwards platform notifications through SetOnline; nothing here polls.
package connectivity

import (
	"errors"
	"sync"
)

// ErrOffline is returned by any operation whose connectivity precondition
// failed. Callers must check the monitor before touching the network rather
// than attempting and catching a transport error.
var ErrOffline = errors.New("no connectivity")

type Monitor struct {
	mu     sync.RWMutex
	online bool
	subs   []func(online bool)
}

func NewMonitor(initial bool) *Monitor {
	return &Monitor{online: initial}
}

// Online reflects the platform's connectivity signal at all times.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline records a transition and notifies subscribers. Setting the same
// state twice is a no-op, so the host can forward duplicate events freely.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// Subscribe registers a callback fired on every transition. Callbacks run on
// the caller of SetOnline and must not block.
func (m *Monitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}
