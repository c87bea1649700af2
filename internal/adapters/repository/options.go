package repository

import "time"

// storeOptions holds configuration shared by the store backends.
type storeOptions struct {
	now func() time.Time
}

// Option applies a configuration option to a store backend.
type Option func(*storeOptions)

// WithNow overrides the clock used to stamp RecordedAt, used by tests.
func WithNow(now func() time.Time) Option {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func newStoreOptions(opts []Option) storeOptions {
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
