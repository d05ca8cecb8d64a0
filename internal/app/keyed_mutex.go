package app

import "sync"

// keyedMutex serializes work per key. Entries are dropped once nobody holds
// or waits for them.
type keyedMutex struct {
	edit    sync.Mutex
	waiters map[uint]int
	mutexes map[uint]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		waiters: make(map[uint]int),
		mutexes: make(map[uint]*sync.Mutex),
	}
}

// Lock blocks until key is free and returns its unlock function.
func (m *keyedMutex) Lock(key uint) func() {
	m.edit.Lock()
	mu := m.mutexes[key]
	if mu == nil {
		mu = &sync.Mutex{}
		m.mutexes[key] = mu
	}
	m.waiters[key]++
	m.edit.Unlock()

	mu.Lock()
	return func() {
		m.edit.Lock()
		defer m.edit.Unlock()
		mu.Unlock()
		m.waiters[key]--
		if m.waiters[key] == 0 {
			delete(m.mutexes, key)
			delete(m.waiters, key)
		}
	}
}
