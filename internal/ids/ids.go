// Package ids generates the identifiers used across the memory store.
package ids

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// suffix returns n characters of ULID entropy, lowercased. The timestamp
// half of the ULID is discarded; ids carry their own timestamp segment.
func suffix(now time.Time, n int) string {
	mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), entropy)
	mu.Unlock()
	s := strings.ToLower(id.String())
	return s[len(s)-n:]
}

// NewMemoryID returns an id like "session-20240101-153045-8fk2". The
// prefix names the memory type; ids are generated once and never reused.
func NewMemoryID(prefix string) string {
	now := time.Now()
	return prefix + "-" + now.Format("20060102-150405") + "-" + suffix(now, 4)
}

// NewSessionID returns an id like "session-20240101-153045-x7q2mh".
func NewSessionID() string {
	now := time.Now()
	return "session-" + now.Format("20060102-150405") + "-" + suffix(now, 6)
}
