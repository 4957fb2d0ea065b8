package cache

import "time"

// Entry is a single cached value together with the metadata needed to decide
// whether it is still valid. Entries are never mutated after they are stored;
// a Set on an existing key replaces the entry wholesale.
type Entry[T any] struct {
	Key       string
	Data      T
	Timestamp time.Time
	TTL       time.Duration
	Tags      map[string]struct{}
}

// newEntry builds an entry stamped with now. Duplicate and empty tags are dropped.
func newEntry[T any](key string, data T, now time.Time, ttl time.Duration, tags []string) *Entry[T] {
	e := &Entry[T]{
		Key:       key,
		Data:      data,
		Timestamp: now,
		TTL:       ttl,
	}
	if len(tags) > 0 {
		e.Tags = make(map[string]struct{}, len(tags))
		for _, tag := range tags {
			if tag != "" {
				e.Tags[tag] = struct{}{}
			}
		}
	}
	return e
}

// Valid reports whether the entry is still inside its TTL at the given instant.
// An entry whose age equals its TTL exactly is still valid.
func (e *Entry[T]) Valid(now time.Time) bool {
	return now.Sub(e.Timestamp) <= e.TTL
}

// HasAnyTag reports whether the entry carries at least one of the given tags.
func (e *Entry[T]) HasAnyTag(tags map[string]struct{}) bool {
	if len(e.Tags) == 0 || len(tags) == 0 {
		return false
	}
	for tag := range tags {
		if _, ok := e.Tags[tag]; ok {
			return true
		}
	}
	return false
}

// TagList returns the entry's tags. Order is unspecified.
func (e *Entry[T]) TagList() []string {
	if len(e.Tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(e.Tags))
	for tag := range e.Tags {
		out = append(out, tag)
	}
	return out
}
