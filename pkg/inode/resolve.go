package inode

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/math"
	. "github.com/weberc2/blockfs/pkg/types"
)

func sectorsFor(length Byte) Sector {
	return Sector(math.DivRoundUp(length, SectorSize))
}

// dataSector maps the index-th data sector of a record to its physical
// sector, chasing the single- and double-indirect index sectors as
// needed. The index must fall within the record's allocated sectors;
// pointer slots past that hold garbage.
func (r *Registry) dataSector(rec *Record, index Sector) (Sector, error) {
	if index >= rec.Allocated {
		panic(fmt.Sprintf(
			"data sector `%d` out of range: `%d` sectors allocated",
			index,
			rec.Allocated,
		))
	}

	if index < DirectCount {
		return rec.Pointers[index], nil
	}

	if index < DoublyIndirectBase {
		var single [PointersPerSector]Sector
		if err := r.readIndex(
			rec.Pointers[SinglyIndirectSlot],
			&single,
		); err != nil {
			return 0, fmt.Errorf("locating data sector `%d`: %w", index, err)
		}
		return single[index-SinglyIndirectBase], nil
	}

	base := index - DoublyIndirectBase
	var top [PointersPerSector]Sector
	if err := r.readIndex(rec.Pointers[DoublyIndirectSlot], &top); err != nil {
		return 0, fmt.Errorf("locating data sector `%d`: %w", index, err)
	}
	var leaf [PointersPerSector]Sector
	if err := r.readIndex(top[base/PointersPerSector], &leaf); err != nil {
		return 0, fmt.Errorf("locating data sector `%d`: %w", index, err)
	}
	return leaf[base%PointersPerSector], nil
}
