/*
Package randx generates identifiers: UUID session ids and monotonic ULID chat message ids.
*/
package randx

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	// entropyMu guards entropy; ulid.MonotonicEntropy is not safe for concurrent use.
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// SessionID returns a new random UUID v4 identifying one real-time connection.
func SessionID() string {
	return uuid.NewString()
}

// MessageID returns a ULID for t. Ids created within the same millisecond increase
// monotonically, so they never collide and sort in creation order.
func MessageID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
