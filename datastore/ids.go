package datastore

import "github.com/google/uuid"

// idSet collects the ids already present in a collection.
func idSet[T any](records []T, id func(T) string) map[string]struct{} {
	taken := make(map[string]struct{}, len(records))
	for _, r := range records {
		taken[id(r)] = struct{}{}
	}
	return taken
}

// newID returns a uuid that is not in taken and marks it as taken.
func newID(taken map[string]struct{}) string {
	for {
		id := uuid.NewString()
		if _, dup := taken[id]; !dup {
			taken[id] = struct{}{}
			return id
		}
	}
}
