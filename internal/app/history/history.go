/*
Package history implements the recent chat history cache behind presence.History.

Each room's history lives under the key room:<streamId>:messages, holds at most
presence.HistoryCapacity messages in arrival order and expires presence.HistoryTTL after
the last append.
*/
package history

import "fmt"

// Key returns the cache key holding a room's recent messages.
func Key(streamID string) string {
	return fmt.Sprintf("room:%s:messages", streamID)
}
