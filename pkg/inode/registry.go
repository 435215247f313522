package inode

import (
	"fmt"
	"sync"

	"github.com/weberc2/blockfs/pkg/encode"
	. "github.com/weberc2/blockfs/pkg/types"
)

// Registry tracks every open inode so that all paths to the same record
// sector share one handle (and one lock, one open count). Its mutex
// guards the open map and the open counts of the inodes in it.
type Registry struct {
	store SectorStore
	alloc Allocator
	mutex sync.Mutex
	open  map[Sector]*Inode
}

func New(store SectorStore, alloc Allocator) *Registry {
	return &Registry{store: store, alloc: alloc, open: map[Sector]*Inode{}}
}

// Create writes a fresh record at `sector` with `length` bytes of
// zeroed data. It acquires the data sectors but never the record sector
// itself; the caller owns that. On failure nothing is left allocated.
func (r *Registry) Create(sector Sector, length Byte, isDir bool) error {
	rec := Record{IsDir: isDir}
	if err := r.grow(&rec, length); err != nil {
		return fmt.Errorf("creating inode `%d`: %w", sector, err)
	}
	if err := r.writeRecord(sector, &rec); err != nil {
		// without a persisted record the grown sectors would leak
		if relErr := r.release(&rec); relErr != nil {
			err = fmt.Errorf(
				"%w (also failed to release grown sectors: %v)",
				err,
				relErr,
			)
		}
		return fmt.Errorf("creating inode `%d`: %w", sector, err)
	}
	return nil
}

// Open returns a handle to the record at `sector`, sharing the existing
// handle when the inode is already open.
func (r *Registry) Open(sector Sector) (*Inode, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if ino, exists := r.open[sector]; exists {
		ino.openCount++
		return ino, nil
	}

	ino := &Inode{registry: r, sector: sector, openCount: 1}
	if err := r.readRecord(sector, &ino.rec); err != nil {
		return nil, fmt.Errorf("opening inode `%d`: %w", sector, err)
	}
	r.open[sector] = ino
	return ino, nil
}

// OpenInodeCount reports how many distinct inodes are open.
func (r *Registry) OpenInodeCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.open)
}

func (r *Registry) readRecord(sector Sector, rec *Record) error {
	var buf [SectorSize]byte
	if err := r.store.ReadSector(sector, buf[:]); err != nil {
		return fmt.Errorf("reading record sector `%d`: %w", sector, err)
	}
	if err := encode.DecodeRecord(rec, &buf); err != nil {
		return fmt.Errorf("reading record sector `%d`: %w", sector, err)
	}
	return nil
}

func (r *Registry) writeRecord(sector Sector, rec *Record) error {
	var buf [SectorSize]byte
	encode.EncodeRecord(rec, &buf)
	if err := r.store.WriteSector(sector, buf[:]); err != nil {
		return fmt.Errorf("writing record sector `%d`: %w", sector, err)
	}
	return nil
}

func (r *Registry) readIndex(
	sector Sector,
	index *[PointersPerSector]Sector,
) error {
	var buf [SectorSize]byte
	if err := r.store.ReadSector(sector, buf[:]); err != nil {
		return fmt.Errorf("reading index sector `%d`: %w", sector, err)
	}
	encode.DecodeIndex(index, &buf)
	return nil
}

func (r *Registry) writeIndex(
	sector Sector,
	index *[PointersPerSector]Sector,
) error {
	var buf [SectorSize]byte
	encode.EncodeIndex(index, &buf)
	if err := r.store.WriteSector(sector, buf[:]); err != nil {
		return fmt.Errorf("writing index sector `%d`: %w", sector, err)
	}
	return nil
}
