// Package blob abstracts the object store holding the raw and bronze layers.
package blob

import "context"

// Store is the narrow object-store surface the pipeline needs. Keys are
// slash-separated paths relative to the bucket or root.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Copy(ctx context.Context, srcKey, dstKey string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
