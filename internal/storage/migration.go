package storage

import (
	"context"
	"fmt"
)

// Migrate copies every key from src into dst and returns how many were copied.
// Used to move a deployment between the sqlite and file backends.
func Migrate(ctx context.Context, src, dst Store) (int, error) {
	keys, err := src.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}

	for i, k := range keys {
		v, err := src.Get(ctx, k)
		if err != nil {
			return i, fmt.Errorf("read %s: %w", k, err)
		}
		if err := dst.Set(ctx, k, v); err != nil {
			return i, fmt.Errorf("write %s: %w", k, err)
		}
	}
	return len(keys), nil
}
