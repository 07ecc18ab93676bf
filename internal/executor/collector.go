package executor

import (
	"errors"
	"sync"
	"time"
)

var errNotExecuted = errors.New("item was not executed")

// ResultCollector gathers outcomes from concurrent workers into slots indexed
// by submission order. All access goes through one mutex.
type ResultCollector struct {
	mu     sync.Mutex
	ids    []string
	slots  []Outcome
	filled []bool
	count  int
}

// NewResultCollector creates a collector with one slot per item
func NewResultCollector(items []WorkItem) *ResultCollector {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	return &ResultCollector{
		ids:    ids,
		slots:  make([]Outcome, len(items)),
		filled: make([]bool, len(items)),
	}
}

// Set stores the outcome for the item at index. Out-of-range indexes and
// second writes to the same slot are ignored.
func (c *ResultCollector) Set(index int, o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.slots) || c.filled[index] {
		return
	}
	c.slots[index] = o
	c.filled[index] = true
	c.count++
}

// Len returns how many slots have been filled
func (c *ResultCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Outcomes returns a copy of the slots in submission order. A slot that was
// never filled is reported as a failure so no item is silently dropped.
func (c *ResultCollector) Outcomes() []Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Outcome, len(c.slots))
	for i := range c.slots {
		if c.filled[i] {
			out[i] = c.slots[i]
			continue
		}
		out[i] = failedOutcome(c.ids[i], time.Time{}, 0, errNotExecuted)
	}
	return out
}
