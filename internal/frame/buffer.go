// Package frame extracts newline-terminated lines from a bounded per-connection
// byte accumulator.
package frame

import (
	"bytes"
	"iter"
)

// Buffer accumulates bytes read from one connection until they form complete
// lines. Its length never exceeds the capacity given to NewBuffer.
type Buffer struct {
	data []byte
	n    int
}

// NewBuffer returns an empty buffer holding at most capacity bytes.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{data: make([]byte, capacity)}
}

// Len reports how many buffered bytes have not been framed yet.
func (b *Buffer) Len() int { return b.n }

// Cap reports the buffer capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Free reports how many more bytes fit into the buffer.
func (b *Buffer) Free() int { return len(b.data) - b.n }

// Append copies as much of p as fits and returns the number of bytes copied.
func (b *Buffer) Append(p []byte) int {
	copied := copy(b.data[b.n:], p)
	b.n += copied
	return copied
}

// Overflowed reports whether the buffer is exactly full and holds no line
// terminator. Such a connection can never produce another line.
func (b *Buffer) Overflowed() bool {
	return b.n == len(b.data) && bytes.IndexByte(b.data[:b.n], '\n') < 0
}

// Next removes the first complete line from the buffer and returns it without
// its terminator. A '\r' immediately before the '\n' is dropped as well.
// The remaining bytes are shifted to the start of the buffer.
func (b *Buffer) Next() (string, bool) {
	i := bytes.IndexByte(b.data[:b.n], '\n')
	if i < 0 {
		return "", false
	}

	end := i
	if end > 0 && b.data[end-1] == '\r' {
		end--
	}
	line := string(b.data[:end])

	remaining := copy(b.data, b.data[i+1:b.n])
	b.n = remaining
	return line, true
}

// Lines yields every complete line currently buffered. Stopping the iteration
// early leaves the unconsumed lines in place for a later call.
func (b *Buffer) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			line, ok := b.Next()
			if !ok || !yield(line) {
				return
			}
		}
	}
}

// Reset drops every buffered byte.
func (b *Buffer) Reset() {
	b.n = 0
}
