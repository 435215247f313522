package inode

import (
	"fmt"
	"sync"

	. "github.com/weberc2/blockfs/pkg/types"
)

// Inode is an open handle to an on-disk record. The registry hands out
// exactly one Inode per record sector; opening the same sector twice
// yields the same pointer with a bumped open count.
type Inode struct {
	registry *Registry
	sector   Sector

	// guarded by the registry's mutex
	openCount int
	removed   bool

	// mutex guards the fields below it
	mutex          sync.RWMutex
	denyWriteCount int
	rec            Record
}

// Reopen returns the same handle with its open count incremented; the
// matching Close is on the caller.
func (ino *Inode) Reopen() *Inode {
	r := ino.registry
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if ino.openCount == 0 {
		panic(fmt.Sprintf("reopening inode `%d`: not open", ino.sector))
	}
	ino.openCount++
	return ino
}

// Close drops one reference. The last close persists the record, or, if
// the inode was removed, releases its data sectors and record sector
// back to the allocator.
func (ino *Inode) Close() error {
	r := ino.registry
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if ino.openCount == 0 {
		panic(fmt.Sprintf("closing inode `%d`: already closed", ino.sector))
	}
	ino.openCount--
	if ino.openCount > 0 {
		return nil
	}
	delete(r.open, ino.sector)

	if ino.removed {
		if err := r.release(&ino.rec); err != nil {
			return fmt.Errorf("closing inode `%d`: %w", ino.sector, err)
		}
		r.alloc.Release(ino.sector, 1)
		return nil
	}

	if err := r.writeRecord(ino.sector, &ino.rec); err != nil {
		return fmt.Errorf("closing inode `%d`: %w", ino.sector, err)
	}
	return nil
}

// Remove marks the inode for deletion once the last handle closes.
// Open handles keep reading and writing it until then.
func (ino *Inode) Remove() {
	r := ino.registry
	r.mutex.Lock()
	defer r.mutex.Unlock()
	ino.removed = true
}

func (ino *Inode) IsRemoved() bool {
	r := ino.registry
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return ino.removed
}

func (ino *Inode) OpenCount() int {
	r := ino.registry
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return ino.openCount
}

// DenyWrite makes subsequent writes no-ops until a matching AllowWrite.
// Each open handle may hold at most one denial.
func (ino *Inode) DenyWrite() {
	r := ino.registry
	r.mutex.Lock()
	defer r.mutex.Unlock()
	ino.mutex.Lock()
	defer ino.mutex.Unlock()
	if ino.denyWriteCount >= ino.openCount {
		panic(fmt.Sprintf(
			"denying writes to inode `%d`: `%d` denials for `%d` handles",
			ino.sector,
			ino.denyWriteCount,
			ino.openCount,
		))
	}
	ino.denyWriteCount++
}

func (ino *Inode) AllowWrite() {
	r := ino.registry
	r.mutex.Lock()
	defer r.mutex.Unlock()
	ino.mutex.Lock()
	defer ino.mutex.Unlock()
	if ino.denyWriteCount == 0 {
		panic(fmt.Sprintf(
			"allowing writes to inode `%d`: writes were not denied",
			ino.sector,
		))
	}
	ino.denyWriteCount--
}

func (ino *Inode) Inumber() Sector { return ino.sector }

// IsDir never changes after creation, so reading it takes no lock.
func (ino *Inode) IsDir() bool { return ino.rec.IsDir }

func (ino *Inode) Length() Byte {
	ino.mutex.RLock()
	defer ino.mutex.RUnlock()
	return ino.rec.Length
}
