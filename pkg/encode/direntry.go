package encode

import (
	. "github.com/weberc2/blockfs/pkg/types"
)

func EncodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]

	if len(entry.Name) > NameMax {
		panic("encoding dir entry: name exceeds NameMax")
	}

	putSector(p, dirEntrySectorStart, entry.Sector)

	for i := Byte(0); i < dirEntryNameSize; i++ {
		p[dirEntryNameStart+i] = 0
	}
	copy(p[dirEntryNameStart:dirEntryNameEnd], entry.Name)

	var inUse uint8
	if entry.InUse {
		inUse = 1
	}
	putU8(p, dirEntryInUseStart, inUse)
}

func DecodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]

	entry.Sector = getSector(p, dirEntrySectorStart)

	name := p[dirEntryNameStart:dirEntryNameEnd]
	nameLen := 0
	for nameLen < len(name) && name[nameLen] != 0 {
		nameLen++
	}
	entry.Name = string(name[:nameLen])

	entry.InUse = getU8(p, dirEntryInUseStart) != 0
}

const (
	dirEntrySectorStart = 0
	dirEntrySectorSize  = SectorPointerSize
	dirEntrySectorEnd   = dirEntrySectorStart + dirEntrySectorSize

	// the name field holds NameMax bytes of name plus a terminating NUL,
	// so every stored name is also a valid C string.
	dirEntryNameStart = dirEntrySectorEnd
	dirEntryNameSize  = NameMax + 1
	dirEntryNameEnd   = dirEntryNameStart + dirEntryNameSize

	dirEntryInUseStart = dirEntryNameEnd
	dirEntryInUseSize  = 1
	dirEntryInUseEnd   = dirEntryInUseStart + dirEntryInUseSize

	DirEntrySize = dirEntryInUseEnd
)
