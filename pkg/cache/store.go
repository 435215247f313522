package cache

import (
	"fmt"
	"sync"

	. "github.com/weberc2/blockfs/pkg/types"
)

// DefaultCapacity is the block count a file system's cache uses unless
// configured otherwise.
const DefaultCapacity = 64

// Store is a write-back sector cache in front of a backing SectorStore.
// Reads populate the cache; writes dirty it; dirty blocks reach the
// backend only on eviction or Flush. The mutex makes it safe for the
// concurrent access it sees when different inodes do I/O in parallel.
type Store struct {
	backend SectorStore
	cache   Cache
	dirty   map[Sector]struct{}
	mutex   sync.Mutex
}

func NewStore(backend SectorStore, cacheCapacity int) *Store {
	return &Store{
		backend: backend,
		cache:   *New(cacheCapacity),
		dirty:   make(map[Sector]struct{}),
	}
}

func (store *Store) WriteSector(sector Sector, b []byte) error {
	if Byte(len(b)) != SectorSize {
		panic(fmt.Sprintf(
			"sector buffer: wanted `%d` bytes; found `%d`",
			SectorSize,
			len(b),
		))
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()

	var block Block
	block.Sector = sector
	copy(block.Data[:], b)
	if err := store.push(&block); err != nil {
		return fmt.Errorf("storing sector `%d`: %w", sector, err)
	}
	store.dirty[sector] = struct{}{}
	return nil
}

func (store *Store) ReadSector(sector Sector, b []byte) error {
	if Byte(len(b)) != SectorSize {
		panic(fmt.Sprintf(
			"sector buffer: wanted `%d` bytes; found `%d`",
			SectorSize,
			len(b),
		))
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()

	var block Block
	if store.cache.Get(sector, &block) {
		copy(b, block.Data[:])
		return nil
	}

	if err := store.backend.ReadSector(sector, b); err != nil {
		return fmt.Errorf(
			"fetching sector `%d`: cache miss; checking backend store: %w",
			sector,
			err,
		)
	}

	block.Sector = sector
	copy(block.Data[:], b)
	if err := store.push(&block); err != nil {
		return fmt.Errorf("fetching sector `%d`: %w", sector, err)
	}
	return nil
}

// push inserts the block, first writing back the dirty block the
// insert is about to evict. A failed write-back rejects the insert
// with the cache and the dirty set untouched, so a dirty block stays
// resident until the backend has taken it. Callers must hold the
// mutex.
func (store *Store) push(block *Block) error {
	var victim Block
	if store.cache.Victim(block.Sector, &victim) {
		if _, dirty := store.dirty[victim.Sector]; dirty {
			if err := store.backend.WriteSector(
				victim.Sector,
				victim.Data[:],
			); err != nil {
				return fmt.Errorf(
					"flushing evicted sector `%d` to disc: %w",
					victim.Sector,
					err,
				)
			}
			delete(store.dirty, victim.Sector)
		}
	}
	var evicted Block
	store.cache.Push(block, &evicted)
	return nil
}

// Flush writes every dirty block to the backend. Blocks stay cached;
// only their dirty status changes.
func (store *Store) Flush() error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	for sector := range store.dirty {
		var block Block
		if !store.cache.Get(sector, &block) {
			// a sector is marked dirty only once its block is resident,
			// and push writes it back before letting it go
			panic(fmt.Sprintf("dirty sector `%d` missing from cache", sector))
		}
		if err := store.backend.WriteSector(sector, block.Data[:]); err != nil {
			return fmt.Errorf("flushing sector `%d`: %w", sector, err)
		}
		delete(store.dirty, sector)
	}
	return nil
}

var _ SectorStore = &Store{}
