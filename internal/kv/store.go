// Package kv is the shared counter and cache store used for admission control.
// Implementations must make IncrementWithWindow atomic across processes.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("kv: key not found")

// Counter is the state of a windowed counter after an increment attempt.
type Counter struct {
	Count    int64
	Admitted bool
}

type Store interface {
	// IncrementWithWindow increments key unless it already reached ceiling, in one
	// atomic step. The key expires window after its first increment.
	IncrementWithWindow(ctx context.Context, key string, ceiling int64, window time.Duration) (Counter, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
