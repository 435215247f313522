package inode

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/math"
	. "github.com/weberc2/blockfs/pkg/types"
)

const (
	OutOfSectorsErr ConstError = "out of free sectors"
	OutOfRangeErr   ConstError = "length exceeds maximum file size"
)

var zeros [SectorSize]byte

// grow extends the record to `target` bytes, allocating and zeroing
// data sectors tier by tier: direct slots, then the single-indirect
// index, then the double-indirect tree. The record is only mutated in
// memory; persisting it is the caller's job. Index sectors do get
// written here, but they're unreachable until the record lands.
//
// On any failure grow puts everything back: sectors allocated during
// this call return to the allocator and *rec is restored, so a caller
// that never persists the record leaves no trace.
func (r *Registry) grow(rec *Record, target Byte) error {
	if target > MaxFileSize {
		return fmt.Errorf("growing to `%d` bytes: %w", target, OutOfRangeErr)
	}
	if target <= rec.Length {
		return nil
	}

	needed := sectorsFor(target)
	saved := *rec
	var grown []Sector

	fail := func(err error) error {
		for _, sector := range grown {
			r.alloc.Release(sector, 1)
		}
		*rec = saved
		return fmt.Errorf("growing to `%d` bytes: %w", target, err)
	}

	// direct tier
	directNeeded := math.Min(needed, DirectCount)
	for rec.Allocated < directNeeded {
		sector, err := r.allocateZeroed(&grown)
		if err != nil {
			return fail(err)
		}
		rec.Pointers[rec.Allocated] = sector
		rec.Allocated++
	}

	// single-indirect tier
	singleNeeded := math.Min(needed, DoublyIndirectBase)
	if rec.Allocated < singleNeeded {
		var single [PointersPerSector]Sector
		singleSector := rec.Pointers[SinglyIndirectSlot]
		if rec.Allocated == SinglyIndirectBase {
			// entering the tier allocates its index sector
			sector, err := r.allocate(&grown)
			if err != nil {
				return fail(err)
			}
			singleSector = sector
			rec.Pointers[SinglyIndirectSlot] = sector
		} else if err := r.readIndex(singleSector, &single); err != nil {
			return fail(err)
		}

		for rec.Allocated < singleNeeded {
			sector, err := r.allocateZeroed(&grown)
			if err != nil {
				return fail(err)
			}
			single[rec.Allocated-SinglyIndirectBase] = sector
			rec.Allocated++
		}

		if err := r.writeIndex(singleSector, &single); err != nil {
			return fail(err)
		}
	}

	// double-indirect tier
	if rec.Allocated < needed {
		var top [PointersPerSector]Sector
		topSector := rec.Pointers[DoublyIndirectSlot]
		if rec.Allocated == DoublyIndirectBase {
			sector, err := r.allocate(&grown)
			if err != nil {
				return fail(err)
			}
			topSector = sector
			rec.Pointers[DoublyIndirectSlot] = sector
		} else if err := r.readIndex(topSector, &top); err != nil {
			return fail(err)
		}

		for rec.Allocated < needed {
			outer := (rec.Allocated - DoublyIndirectBase) / PointersPerSector
			inner := (rec.Allocated - DoublyIndirectBase) % PointersPerSector

			var leaf [PointersPerSector]Sector
			leafSector := top[outer]
			if inner == 0 {
				sector, err := r.allocate(&grown)
				if err != nil {
					return fail(err)
				}
				leafSector = sector
				top[outer] = sector
			} else if err := r.readIndex(leafSector, &leaf); err != nil {
				return fail(err)
			}

			// fill this leaf until the file is covered or the leaf is full
			for rec.Allocated < needed {
				i := rec.Allocated - DoublyIndirectBase
				if i/PointersPerSector != outer {
					break
				}
				sector, err := r.allocateZeroed(&grown)
				if err != nil {
					return fail(err)
				}
				leaf[i%PointersPerSector] = sector
				rec.Allocated++
			}

			if err := r.writeIndex(leafSector, &leaf); err != nil {
				return fail(err)
			}
		}

		if err := r.writeIndex(topSector, &top); err != nil {
			return fail(err)
		}
	}

	rec.Length = target
	return nil
}

func (r *Registry) allocate(grown *[]Sector) (Sector, error) {
	sector, ok := r.alloc.Allocate(1)
	if !ok {
		return 0, OutOfSectorsErr
	}
	*grown = append(*grown, sector)
	return sector, nil
}

// allocateZeroed zeroes the new sector on disk before anything can
// point at it, so a grown file never exposes stale data.
func (r *Registry) allocateZeroed(grown *[]Sector) (Sector, error) {
	sector, err := r.allocate(grown)
	if err != nil {
		return 0, err
	}
	if err := r.store.WriteSector(sector, zeros[:]); err != nil {
		return 0, fmt.Errorf("zeroing sector `%d`: %w", sector, err)
	}
	return sector, nil
}
