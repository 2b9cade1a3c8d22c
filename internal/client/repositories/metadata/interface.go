// Package metadata stores small key/value settings of the CLI, such as the
// session tokens.
package metadata

import "context"

type Repository interface {
	// Get reports ok=false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Put upserts every pair in one statement.
	Put(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string]string, error)
}
