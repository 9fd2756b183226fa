package docstore

import "context"

// Store pushes raw uploaded bytes to durable storage under a caller-chosen
// key. A same-named re-upload overwrites; collision handling is the
// caller's problem, matching how the tool has always behaved.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}
