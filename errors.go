package goSessionSync

import "errors"

var (
	// ErrProviderClosed is returned by Provider operations after Close.
	ErrProviderClosed = errors.New("provider closed")
	// ErrProviderNotStarted is returned when an operation requires Start to have run.
	ErrProviderNotStarted = errors.New("provider not started")
	// ErrNilRecord is returned by Establish when the record is nil.
	ErrNilRecord = errors.New("nil session record")
	// ErrBuilderUsed is returned by Build when the builder was already consumed.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrStoreRequired is returned by Build when no store or Redis client was provided.
	ErrStoreRequired = errors.New("session store or redis client required")
)
