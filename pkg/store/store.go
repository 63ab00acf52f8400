// Package store persists, per paper, its chunk sequence, vector index and
// metadata, and loads them back by paper identifier.
package store

import (
	"errors"
	"strings"
	"sync"
)

// ErrNotFound reports that no index has been built for the identifier.
// Distinct from a paper that exists but has zero chunks, which loads
// successfully with an empty chunk sequence.
var ErrNotFound = errors.New("paper not found")

const titleLimit = 200

// deriveTitle takes the leading text of the first chunk as the paper's
// display title. Papers whose extracted text starts with boilerplate get a
// poor title; callers that know the real title (e.g. an uploaded filename)
// override it in their own records.
func deriveTitle(chunks []string) string {
	if len(chunks) == 0 {
		return "Untitled"
	}
	r := []rune(chunks[0])
	if len(r) > titleLimit {
		r = r[:titleLimit]
	}
	return strings.TrimSpace(string(r))
}

// lockTable serializes builds per paper identifier: at most one build for
// a given identifier is in flight at a time, so concurrent writers cannot
// interleave partial persistence.
type lockTable struct {
	locks sync.Map // paper id -> *sync.Mutex
}

func (t *lockTable) acquire(paperID string) func() {
	mu, _ := t.locks.LoadOrStore(paperID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
