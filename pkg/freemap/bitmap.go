package freemap

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/math"
)

const bitsPerByte = 8

// Bitmap tracks one bit per sector. Bits past `bits` exist only as
// padding in the final byte and are never handed out.
type Bitmap struct {
	bytes []byte
	bits  uint64
}

func NewBitmap(bits uint64) Bitmap {
	return Bitmap{
		bytes: make([]byte, math.DivRoundUp(bits, bitsPerByte)),
		bits:  bits,
	}
}

// FromBytes wraps previously stored bitmap bytes. The byte slice must
// be exactly the length NewBitmap would have allocated for `bits`.
func FromBytes(b []byte, bits uint64) Bitmap {
	if uint64(len(b)) != math.DivRoundUp(bits, bitsPerByte) {
		panic(fmt.Sprintf(
			"bitmap for `%d` bits: wanted `%d` bytes; found `%d`",
			bits,
			math.DivRoundUp(bits, bitsPerByte),
			len(b),
		))
	}
	return Bitmap{bytes: b, bits: bits}
}

// AllocRun finds the first run of `count` consecutive zero bits, sets
// them, and returns the run's first bit index.
func (bm Bitmap) AllocRun(count uint64) (uint64, bool) {
	if count == 0 {
		panic("allocating a zero-length run")
	}
	var run uint64
	for bit := uint64(0); bit < bm.bits; bit++ {
		if byteIsZero(bm.bytes[bit/bitsPerByte], uint8(bit%bitsPerByte)) {
			run++
			if run == count {
				start := bit + 1 - count
				for i := start; i <= bit; i++ {
					bm.Reserve(i)
				}
				return start, true
			}
		} else {
			run = 0
		}
	}
	return 0, false
}

func (bm Bitmap) Reserve(bit uint64) {
	b := &bm.bytes[bit/bitsPerByte]
	*b = byteSetHigh(*b, uint8(bit%bitsPerByte))
}

func (bm Bitmap) Free(bit uint64) {
	if byteIsZero(bm.bytes[bit/bitsPerByte], uint8(bit%bitsPerByte)) {
		panic(fmt.Sprintf("freeing bit `%d`: already free", bit))
	}
	b := &bm.bytes[bit/bitsPerByte]
	*b = byteSetLow(*b, uint8(bit%bitsPerByte))
}

func (bm Bitmap) FreeCount() uint64 {
	var count uint64
	for bit := uint64(0); bit < bm.bits; bit++ {
		if byteIsZero(bm.bytes[bit/bitsPerByte], uint8(bit%bitsPerByte)) {
			count++
		}
	}
	return count
}

func (bm Bitmap) Bytes() []byte { return bm.bytes }

func byteIsZero(byt byte, bit uint8) bool {
	return byt&(0b1000_0000>>bit) == 0
}

func byteSetHigh(byt byte, bit uint8) byte {
	return byt | (0b1000_0000 >> bit)
}

func byteSetLow(byt byte, bit uint8) byte {
	return byt & ^(0b1000_0000 >> bit)
}
