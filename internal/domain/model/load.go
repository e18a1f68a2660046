package model

import (
	"io"
	"time"
)

// StoredObject is an open object-storage read. Body must be closed by the caller.
type StoredObject struct {
	Ref           ObjectRef
	Body          io.ReadCloser
	ContentLength int64
}

// LoadRequest describes one bulk load.
type LoadRequest struct {
	Table string
	Body  io.Reader
	// ExpectedBytes is the declared object size; a stream that ends early is an error.
	// Zero or negative disables the check.
	ExpectedBytes int64
}

// LoadResult is what a completed bulk load reports.
type LoadResult struct {
	RowsCopied int64
	BytesRead  int64
	Duration   time.Duration
}
