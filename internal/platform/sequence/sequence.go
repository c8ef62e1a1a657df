// Package sequence hands out monotonically increasing counters per key.
package sequence

import (
	"context"
	"sync"
)

// Sequencer returns the next value of the counter named key, starting at 1.
type Sequencer interface {
	Next(ctx context.Context, key string) (int64, error)
}

// Memory is a process-local Sequencer.
type Memory struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemory() *Memory {
	return &Memory{counters: make(map[string]int64)}
}

func (m *Memory) Next(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], nil
}
