// Package directory provides a keyed, uniqueness-enforcing view over a
// channel-owned record slice.
package directory

import (
	"fmt"
	"strings"

	"smsrelay/internal/domain"
)

// Directory wraps a record slice with keyed access. Mutations are applied
// in place so they stay visible through the owning channel when it is
// persisted.
type Directory[T any] struct {
	records *[]T
	key     func(T) string
	fold    bool // case-insensitive key comparison
}

// New creates a directory over records. key extracts the record key; fold
// selects case-insensitive comparison.
func New[T any](records *[]T, key func(T) string, fold bool) *Directory[T] {
	return &Directory[T]{records: records, key: key, fold: fold}
}

func (d *Directory[T]) norm(key string) string {
	if d.fold {
		return strings.ToLower(key)
	}
	return key
}

// Get returns the record stored under key, or ErrNotFound.
func (d *Directory[T]) Get(key string) (T, error) {
	want := d.norm(key)
	for _, r := range *d.records {
		if d.norm(d.key(r)) == want {
			return r, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
}

// Contains reports whether a record is stored under key.
func (d *Directory[T]) Contains(key string) bool {
	_, err := d.Get(key)
	return err == nil
}

// Add appends a record, or returns ErrDuplicateKey if its key is taken.
func (d *Directory[T]) Add(record T) error {
	key := d.key(record)
	if d.Contains(key) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, key)
	}
	*d.records = append(*d.records, record)
	return nil
}

// Delete removes the record stored under key, or returns ErrNotFound.
func (d *Directory[T]) Delete(key string) error {
	want := d.norm(key)
	for i, r := range *d.records {
		if d.norm(d.key(r)) == want {
			*d.records = append((*d.records)[:i], (*d.records)[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrNotFound, key)
}

// Keys returns the record keys in insertion order.
func (d *Directory[T]) Keys() []string {
	keys := make([]string, 0, len(*d.records))
	for _, r := range *d.records {
		keys = append(keys, d.key(r))
	}
	return keys
}

// Records returns the records in insertion order.
func (d *Directory[T]) Records() []T {
	return *d.records
}

// Len returns the number of records.
func (d *Directory[T]) Len() int {
	return len(*d.records)
}
