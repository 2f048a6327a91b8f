// Package inmemory provides a process-local spool driver. Entries do not
// survive a restart; it is the default for development and tests.
package inmemory

import (
	"context"
	"sync"

	"github.com/memgatehq/memgate/pkg/spool"
)

// Driver implements spool.Driver using an in-memory map.
type Driver struct {
	mu sync.RWMutex

	// entries maps entry ID to entry; order tracks insertion order so
	// List can replay oldest first.
	entries map[string]spool.Entry
	order   []string
}

// NewDriver creates a new in-memory spool.
func NewDriver() *Driver {
	return &Driver{
		entries: make(map[string]spool.Entry),
	}
}

// Append stores an entry. Appending an existing ID is a no-op.
func (d *Driver) Append(_ context.Context, entry spool.Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.entries[entry.ID]; ok {
		return nil
	}

	d.entries[entry.ID] = entry
	d.order = append(d.order, entry.ID)
	return nil
}

// List returns all entries oldest first.
func (d *Driver) List(_ context.Context) ([]spool.Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]spool.Entry, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.entries[id])
	}
	return out, nil
}

// Remove deletes an entry by ID.
func (d *Driver) Remove(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.entries[id]; !ok {
		return spool.ErrNotFound{ID: id}
	}

	delete(d.entries, id)
	for i, existing := range d.order {
		if existing == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len reports the number of spooled entries.
func (d *Driver) Len(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries), nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
