package data

import (
	"errors"
	"fmt"
	"io"
)

const maxConsecutiveEmptyReads = 100

// ChunkReader streams src through one fixed-size buffer, so memory stays bounded by the
// chunk size however large the object is. It counts the bytes it passes on and, when an
// expected length is known, reports a stream that ends early as io.ErrUnexpectedEOF.
//
// A ChunkReader is owned by a single load call and is not safe for concurrent use.
type ChunkReader struct {
	src      io.Reader
	buf      []byte
	r, w     int
	total    int64
	expected int64
	err      error
}

// NewChunkReader wraps src with a buffer of size bytes. expected <= 0 disables the length check.
func NewChunkReader(src io.Reader, size int, expected int64) *ChunkReader {
	if size <= 0 {
		size = 64 * 1024
	}
	return &ChunkReader{src: src, buf: make([]byte, size), expected: expected}
}

// Read implements io.Reader.
func (c *ChunkReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if c.r == c.w {
		if c.err != nil {
			return 0, c.err
		}
		c.fill()
		if c.r == c.w {
			return 0, c.err
		}
	}
	n := copy(p, c.buf[c.r:c.w])
	c.r += n
	return n, nil
}

// fill reads from src until the buffer is full or src stops.
func (c *ChunkReader) fill() {
	c.r, c.w = 0, 0
	empty := 0
	for c.w < len(c.buf) {
		n, err := c.src.Read(c.buf[c.w:])
		c.w += n
		c.total += int64(n)
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.err = c.checkLength()
			} else {
				c.err = err
			}
			return
		}
		if n == 0 {
			empty++
			if empty >= maxConsecutiveEmptyReads {
				c.err = io.ErrNoProgress
				return
			}
		}
	}
}

func (c *ChunkReader) checkLength() error {
	if c.expected > 0 && c.total < c.expected {
		return fmt.Errorf("%w: stream ended after %d of %d bytes", io.ErrUnexpectedEOF, c.total, c.expected)
	}
	return io.EOF
}

// BytesRead returns the number of bytes read from src so far.
func (c *ChunkReader) BytesRead() int64 {
	return c.total
}

// Err returns the failure that stopped the stream, or nil if it is still open or ended cleanly.
func (c *ChunkReader) Err() error {
	if errors.Is(c.err, io.EOF) {
		return nil
	}
	return c.err
}
