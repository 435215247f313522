package device

import (
	"fmt"
	"io"

	. "github.com/weberc2/blockfs/pkg/types"
)

type ReadAt interface {
	ReadAt(offset Byte, b []byte) error
}

type WriteAt interface {
	WriteAt(offset Byte, p []byte) error
}

type Volume interface {
	ReadAt
	WriteAt
}

// Buffer is a fixed-size in-memory Volume. Reads and writes never
// resize it; accesses that would run past the end fail with io.EOF.
type Buffer struct {
	data []byte
}

func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) ReadAt(offset Byte, p []byte) error {
	if offset+Byte(len(p)) <= Byte(len(b.data)) {
		copy(p, b.data[offset:])
		return nil
	}
	return fmt.Errorf(
		"reading `%d` bytes from buffer at offset `%d`: %w",
		len(p),
		offset,
		io.EOF,
	)
}

func (b *Buffer) WriteAt(offset Byte, p []byte) error {
	if offset+Byte(len(p)) <= Byte(len(b.data)) {
		copy(b.data[offset:], p)
		return nil
	}
	return fmt.Errorf(
		"writing `%d` bytes to buffer at offset `%d`: %w",
		len(p),
		offset,
		io.EOF,
	)
}

func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) Len() int { return len(b.data) }
