package core

import "fmt"

// WatchEntry pairs a category group name with its display hint.
type WatchEntry struct {
	Group string
	Hint  string
}

// WatchList is an ordered mapping from category group name to display hint.
// Order matters only to renderers.
type WatchList []WatchEntry

// Has reports whether group is watched.
func (w WatchList) Has(group string) bool {
	for _, e := range w {
		if e.Group == group {
			return true
		}
	}
	return false
}

// Hint returns the display hint for group, if watched.
func (w WatchList) Hint(group string) (string, bool) {
	for _, e := range w {
		if e.Group == group {
			return e.Hint, true
		}
	}
	return "", false
}

// Names returns group names in insertion order.
func (w WatchList) Names() []string {
	names := make([]string, 0, len(w))
	for _, e := range w {
		names = append(names, e.Group)
	}
	return names
}

// Set replaces the hint of an existing group or appends a new entry.
func (w WatchList) Set(group, hint string) WatchList {
	for i, e := range w {
		if e.Group == group {
			w[i].Hint = hint
			return w
		}
	}
	return append(w, WatchEntry{Group: group, Hint: hint})
}

func (w WatchList) Validate() error {
	if len(w) == 0 {
		return ErrEmptyWatchList
	}
	seen := make(map[string]struct{}, len(w))
	for _, e := range w {
		if _, ok := seen[e.Group]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateWatchKey, e.Group)
		}
		seen[e.Group] = struct{}{}
	}
	return nil
}
