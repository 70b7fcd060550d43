package repository

import "context"

// SnapshotStore is the durable key-value boundary the medication store
// persists through. The serialized collection is written whole under a single
// key after every mutation; readers in the same process never observe a
// partial write.
//
// Load returns (nil, nil) when nothing has been stored under key yet. Backends
// never interpret the payload.
type SnapshotStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}
