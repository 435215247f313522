package freemap

import (
	"sync"

	. "github.com/weberc2/blockfs/pkg/types"
)

type Store interface {
	Put(Bitmap) error
}

// FreeMap is the sector allocator: a bitmap with one bit per device
// sector, flushed to a backing store on demand. All methods are safe
// for concurrent use.
type FreeMap struct {
	bitmap Bitmap
	store  Store
	mutex  sync.Mutex
	dirty  bool
}

func New(sectors Sector, store Store) *FreeMap {
	return &FreeMap{bitmap: NewBitmap(uint64(sectors)), store: store}
}

// Load replaces the in-memory bitmap with a stored image. Opening an
// existing volume builds the free map blank, reads the image through
// the free-map file's inode, and loads it here; the image already
// matches the store, so loading leaves the free map clean.
func (fm *FreeMap) Load(b []byte) {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	fm.bitmap = FromBytes(b, fm.bitmap.bits)
	fm.dirty = false
}

func (fm *FreeMap) Allocate(count int) (Sector, bool) {
	if count <= 0 {
		panic("allocating a non-positive sector count")
	}
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	fm.dirty = true
	start, ok := fm.bitmap.AllocRun(uint64(count))
	if !ok {
		return 0, false
	}
	return Sector(start), true
}

func (fm *FreeMap) Release(start Sector, count int) {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	for i := 0; i < count; i++ {
		fm.bitmap.Free(uint64(start) + uint64(i))
	}
	fm.dirty = true
}

// Reserve marks a single sector in use without going through
// allocation; formatting uses it to claim the fixed record sectors.
func (fm *FreeMap) Reserve(sector Sector) {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	fm.bitmap.Reserve(uint64(sector))
	fm.dirty = true
}

func (fm *FreeMap) FreeCount() Sector {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	return Sector(fm.bitmap.FreeCount())
}

func (fm *FreeMap) Flush() error {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	if fm.dirty {
		if err := fm.store.Put(fm.bitmap); err != nil {
			return err
		}
		fm.dirty = false
	}
	return nil
}

var _ Allocator = &FreeMap{}
