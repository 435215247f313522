package inode

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/math"
	. "github.com/weberc2/blockfs/pkg/types"
)

// ReadAt reads up to len(b) bytes starting at `offset`, returning how
// many bytes it read. Reads at or past the end of the file return 0
// without error; reads crossing the end come back short.
func (ino *Inode) ReadAt(offset Byte, b []byte) (Byte, error) {
	ino.mutex.RLock()
	defer ino.mutex.RUnlock()

	if offset >= ino.rec.Length {
		return 0, nil
	}
	maxLength := math.Min(Byte(len(b)), ino.rec.Length-offset)

	var bounce []byte
	var chunkBegin Byte
	for chunkBegin < maxLength {
		pos := offset + chunkBegin
		index := Sector(pos / SectorSize)
		sectorOfs := pos % SectorSize
		chunkLength := math.Min(maxLength-chunkBegin, SectorSize-sectorOfs)

		sector, err := ino.registry.dataSector(&ino.rec, index)
		if err != nil {
			return chunkBegin, fmt.Errorf(
				"reading up to `%d` bytes from inode `%d` at offset `%d`: %w",
				len(b),
				ino.sector,
				offset,
				err,
			)
		}

		if sectorOfs == 0 && chunkLength == SectorSize {
			err = ino.registry.store.ReadSector(
				sector,
				b[chunkBegin:chunkBegin+SectorSize],
			)
		} else {
			// partial sector: read the whole sector into the bounce
			// buffer and copy out the piece we want
			if bounce == nil {
				bounce = make([]byte, SectorSize)
			}
			if err = ino.registry.store.ReadSector(sector, bounce); err == nil {
				copy(
					b[chunkBegin:chunkBegin+chunkLength],
					bounce[sectorOfs:sectorOfs+chunkLength],
				)
			}
		}
		if err != nil {
			return chunkBegin, fmt.Errorf(
				"reading up to `%d` bytes from inode `%d` at offset `%d`: %w",
				len(b),
				ino.sector,
				offset,
				err,
			)
		}

		chunkBegin += chunkLength
	}

	return chunkBegin, nil
}

// WriteAt writes len(b) bytes at `offset`, growing the file first when
// the write's end lands past the current end. Growth happens even for
// an empty write, so writing zero bytes past the end extends the file.
// If writes are denied it writes nothing and reports no error,
// mirroring how an executable's pages stay immutable while it runs.
func (ino *Inode) WriteAt(offset Byte, b []byte) (Byte, error) {
	ino.mutex.Lock()
	defer ino.mutex.Unlock()

	if ino.denyWriteCount > 0 {
		return 0, nil
	}

	// cover the whole write before moving any data so the chunk loop
	// below never sees an unallocated sector
	if target := offset + Byte(len(b)); target > ino.rec.Length {
		if err := ino.registry.grow(&ino.rec, target); err != nil {
			return 0, fmt.Errorf(
				"writing up to `%d` bytes to inode `%d` at offset `%d`: %w",
				len(b),
				ino.sector,
				offset,
				err,
			)
		}
		if err := ino.registry.writeRecord(ino.sector, &ino.rec); err != nil {
			return 0, fmt.Errorf(
				"writing up to `%d` bytes to inode `%d` at offset `%d`: %w",
				len(b),
				ino.sector,
				offset,
				err,
			)
		}
	}

	var bounce []byte
	var chunkBegin Byte
	for chunkBegin < Byte(len(b)) {
		pos := offset + chunkBegin
		index := Sector(pos / SectorSize)
		sectorOfs := pos % SectorSize
		left := ino.rec.Length - pos
		sectorLeft := SectorSize - sectorOfs
		chunkLength := math.Min(
			math.Min(left, sectorLeft),
			Byte(len(b))-chunkBegin,
		)
		if chunkLength == 0 {
			break
		}

		sector, err := ino.registry.dataSector(&ino.rec, index)
		if err != nil {
			return chunkBegin, fmt.Errorf(
				"writing up to `%d` bytes to inode `%d` at offset `%d`: %w",
				len(b),
				ino.sector,
				offset,
				err,
			)
		}

		if sectorOfs == 0 && chunkLength == SectorSize {
			err = ino.registry.store.WriteSector(
				sector,
				b[chunkBegin:chunkBegin+SectorSize],
			)
		} else {
			if bounce == nil {
				bounce = make([]byte, SectorSize)
			}
			// when the chunk leaves live bytes before or after it, fetch
			// the sector first; otherwise a zeroed bounce buffer will do
			if sectorOfs > 0 || chunkLength < sectorLeft {
				err = ino.registry.store.ReadSector(sector, bounce)
			} else {
				for i := range bounce {
					bounce[i] = 0
				}
			}
			if err == nil {
				copy(
					bounce[sectorOfs:sectorOfs+chunkLength],
					b[chunkBegin:chunkBegin+chunkLength],
				)
				err = ino.registry.store.WriteSector(sector, bounce)
			}
		}
		if err != nil {
			return chunkBegin, fmt.Errorf(
				"writing up to `%d` bytes to inode `%d` at offset `%d`: %w",
				len(b),
				ino.sector,
				offset,
				err,
			)
		}

		chunkBegin += chunkLength
	}

	return chunkBegin, nil
}
