package ports

import "context"

// StateMirror is a key-value text store used to resume displaying state
// after a restart. It is never authoritative.
type StateMirror interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
