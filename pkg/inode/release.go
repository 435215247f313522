package inode

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/math"
	. "github.com/weberc2/blockfs/pkg/types"
)

// release returns every data and index sector the record holds to the
// allocator, walking the same tiers growth fills. The record sector
// itself is the caller's to free. A zero-length record releases
// nothing.
func (r *Registry) release(rec *Record) error {
	direct := math.Min(rec.Allocated, DirectCount)
	for i := Sector(0); i < direct; i++ {
		r.alloc.Release(rec.Pointers[i], 1)
	}
	if rec.Allocated <= DirectCount {
		return nil
	}

	var single [PointersPerSector]Sector
	singleSector := rec.Pointers[SinglyIndirectSlot]
	if err := r.readIndex(singleSector, &single); err != nil {
		return fmt.Errorf("releasing sectors: %w", err)
	}
	count := math.Min(rec.Allocated-SinglyIndirectBase, PointersPerSector)
	for i := Sector(0); i < count; i++ {
		r.alloc.Release(single[i], 1)
	}
	r.alloc.Release(singleSector, 1)
	if rec.Allocated <= DoublyIndirectBase {
		return nil
	}

	var top [PointersPerSector]Sector
	topSector := rec.Pointers[DoublyIndirectSlot]
	if err := r.readIndex(topSector, &top); err != nil {
		return fmt.Errorf("releasing sectors: %w", err)
	}
	remaining := rec.Allocated - DoublyIndirectBase
	outers := math.DivRoundUp(remaining, PointersPerSector)
	for outer := Sector(0); outer < outers; outer++ {
		var leaf [PointersPerSector]Sector
		if err := r.readIndex(top[outer], &leaf); err != nil {
			return fmt.Errorf("releasing sectors: %w", err)
		}
		count := math.Min(
			remaining-outer*PointersPerSector,
			PointersPerSector,
		)
		for i := Sector(0); i < count; i++ {
			r.alloc.Release(leaf[i], 1)
		}
		r.alloc.Release(top[outer], 1)
	}
	r.alloc.Release(topSector, 1)

	return nil
}
