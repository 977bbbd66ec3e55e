package bootstrap

import (
	"context"
	"runtime/trace"
)

const traceCategory = "bootstrap"

func withTraceRegion[T any](ctx context.Context, name string, fn func() (T, error)) (T, error) {
	var value T
	var err error
	trace.WithRegion(ctx, traceCategory+"."+name, func() {
		value, err = fn()
	})
	if err != nil {
		trace.Logf(ctx, traceCategory, "%s failed: %v", name, err)
	}
	return value, err
}

func withTraceRegionErr(ctx context.Context, name string, fn func() error) error {
	_, err := withTraceRegion(ctx, name, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
