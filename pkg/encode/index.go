package encode

import (
	. "github.com/weberc2/blockfs/pkg/types"
)

// An index sector is nothing but a packed array of sector pointers, so
// its codec has no layout constants and nothing to validate.

func EncodeIndex(index *[PointersPerSector]Sector, b *[SectorSize]byte) {
	p := b[:]
	for i := Byte(0); i < Byte(PointersPerSector); i++ {
		putSector(p, i*SectorPointerSize, index[i])
	}
}

func DecodeIndex(index *[PointersPerSector]Sector, b *[SectorSize]byte) {
	p := b[:]
	for i := Byte(0); i < Byte(PointersPerSector); i++ {
		index[i] = getSector(p, i*SectorPointerSize)
	}
}
