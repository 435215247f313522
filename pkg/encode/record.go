package encode

import (
	"fmt"

	. "github.com/weberc2/blockfs/pkg/types"
)

// RecordMagic is written into every record sector at create time and
// checked on every decode. A mismatch means the sector never held an
// inode record (or the disk is corrupt).
const RecordMagic uint32 = 0x494e4f44

const BadMagicErr ConstError = "bad record magic"

func EncodeRecord(rec *Record, b *[SectorSize]byte) {
	p := b[:]

	putU32(p, recordLengthStart, uint32(rec.Length))
	putU32(p, recordMagicStart, RecordMagic)

	for i := Byte(0); i < Byte(PointerCount); i++ {
		pointerStart := recordPointersStart + i*SectorPointerSize
		putSector(p, pointerStart, rec.Pointers[i])
	}

	putU32(p, recordAllocatedStart, uint32(rec.Allocated))

	var isDir uint32
	if rec.IsDir {
		isDir = 1
	}
	putU32(p, recordIsDirStart, isDir)
}

func DecodeRecord(rec *Record, b *[SectorSize]byte) error {
	p := b[:]

	// validate the magic before mutating the `rec` pointee; we strongly
	// prefer to avoid partial writes to the output when an error will be
	// returned.
	if magic := getU32(p, recordMagicStart); magic != RecordMagic {
		return fmt.Errorf(
			"decoding record: magic `%#08x`: %w",
			magic,
			BadMagicErr,
		)
	}

	rec.Length = Byte(getU32(p, recordLengthStart))

	for i := Byte(0); i < Byte(PointerCount); i++ {
		pointerStart := recordPointersStart + i*SectorPointerSize
		rec.Pointers[i] = getSector(p, pointerStart)
	}

	rec.Allocated = Sector(getU32(p, recordAllocatedStart))
	rec.IsDir = getU32(p, recordIsDirStart) != 0

	return nil
}

const (
	recordLengthStart = 0
	recordLengthSize  = 4
	recordLengthEnd   = recordLengthStart + recordLengthSize

	recordMagicStart = recordLengthEnd
	recordMagicSize  = 4
	recordMagicEnd   = recordMagicStart + recordMagicSize

	recordPointersStart = recordMagicEnd
	recordPointersSize  = Byte(PointerCount) * SectorPointerSize
	recordPointersEnd   = recordPointersStart + recordPointersSize

	recordAllocatedStart = recordPointersEnd
	recordAllocatedSize  = 4
	recordAllocatedEnd   = recordAllocatedStart + recordAllocatedSize

	recordIsDirStart = recordAllocatedEnd
	recordIsDirSize  = 4
	recordIsDirEnd   = recordIsDirStart + recordIsDirSize
)
