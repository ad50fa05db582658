package store

import (
	"slices"

	"github.com/desertthunder/stemhub/internal/models"
)

// Partitions maps an owning project id to its ordered entries.
//
// An entry id appears in at most one partition: Replace and Append drop the id from
// every other partition first.
type Partitions[T models.Identified] map[models.ID][]T

// Clone copies the map and every slice.
func (p Partitions[T]) Clone() Partitions[T] {
	c := make(Partitions[T], len(p))
	for k, v := range p {
		c[k] = slices.Clone(v)
	}
	return c
}

// Get returns a copy of the entries for key.
func (p Partitions[T]) Get(key models.ID) []T {
	return slices.Clone(p[key])
}

// Loaded reports whether key has a partition, even an empty one.
func (p Partitions[T]) Loaded(key models.ID) bool {
	_, ok := p[key]
	return ok
}

// Replace sets the whole partition for key.
func (p Partitions[T]) Replace(key models.ID, items []T) {
	for _, item := range items {
		p.removeExcept(key, item.Key())
	}
	if items == nil {
		items = []T{}
	}
	p[key] = slices.Clone(items)
}

// Append adds item to the end of key's partition, creating it when absent.
func (p Partitions[T]) Append(key models.ID, item T) {
	p.removeExcept(key, item.Key())
	p[key] = slices.DeleteFunc(p[key], func(e T) bool { return e.Key() == item.Key() })
	p[key] = append(p[key], item)
}

// Update replaces the entry with item's id wherever it resides. It reports whether one was found.
func (p Partitions[T]) Update(item T) bool {
	found := false
	for k, entries := range p {
		for i, e := range entries {
			if e.Key() == item.Key() {
				p[k][i] = item
				found = true
			}
		}
	}
	return found
}

// UpdateIn replaces the entry with item's id in key's partition only.
func (p Partitions[T]) UpdateIn(key models.ID, item T) bool {
	for i, e := range p[key] {
		if e.Key() == item.Key() {
			p[key][i] = item
			return true
		}
	}
	return false
}

// Remove deletes the entry with id from every partition. It reports whether one was found.
func (p Partitions[T]) Remove(id models.ID) bool {
	found := false
	for k := range p {
		if p.RemoveFrom(k, id) {
			found = true
		}
	}
	return found
}

// RemoveFrom deletes the entry with id from key's partition only.
func (p Partitions[T]) RemoveFrom(key models.ID, id models.ID) bool {
	entries, ok := p[key]
	if !ok {
		return false
	}
	before := len(entries)
	p[key] = slices.DeleteFunc(entries, func(e T) bool { return e.Key() == id })
	return len(p[key]) != before
}

// Find returns the entry with id and the partition holding it.
func (p Partitions[T]) Find(id models.ID) (T, models.ID, bool) {
	for k, entries := range p {
		for _, e := range entries {
			if e.Key() == id {
				return e, k, true
			}
		}
	}
	var zero T
	return zero, "", false
}

// Clear drops key's partition, or every partition when key is empty.
func (p Partitions[T]) Clear(key models.ID) {
	if key == "" {
		clear(p)
		return
	}
	delete(p, key)
}

func (p Partitions[T]) removeExcept(keep models.ID, id models.ID) {
	for k := range p {
		if k != keep {
			p.RemoveFrom(k, id)
		}
	}
}
