package redis

import "fmt"

// documentKey returns the Redis key holding a document body
func documentKey(prefix, docID string) string {
	return fmt.Sprintf("%s:doc:%s", prefix, docID)
}

// documentChannel returns the pub/sub channel announcing new document versions
func documentChannel(prefix, docID string) string {
	return fmt.Sprintf("%s:doc:%s:updates", prefix, docID)
}
