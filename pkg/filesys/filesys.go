package filesys

import (
	"fmt"
	"io"

	"github.com/weberc2/blockfs/pkg/cache"
	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/directory"
	"github.com/weberc2/blockfs/pkg/file"
	"github.com/weberc2/blockfs/pkg/freemap"
	"github.com/weberc2/blockfs/pkg/inode"
	"github.com/weberc2/blockfs/pkg/math"
	. "github.com/weberc2/blockfs/pkg/types"
)

// FileSystem is a flat namespace of files on a sector device. Sector 0
// holds the record of the free-map file, whose data is the allocation
// bitmap; sector 1 holds the record of the root directory.
type FileSystem struct {
	store       *cache.Store
	freeMap     *freemap.FreeMap
	registry    *inode.Registry
	freeMapFile *inode.Inode
	sectors     Sector
}

// freeMapStore persists the allocation bitmap through the free-map
// file's inode. The file's length is fixed at format time, so putting
// the bitmap never grows the file (growth would re-enter the free map's
// lock).
type freeMapStore struct {
	ino *inode.Inode
}

func (store *freeMapStore) Put(bitmap freemap.Bitmap) error {
	if store.ino == nil {
		return fmt.Errorf("free map file is not open")
	}
	b := bitmap.Bytes()
	n, err := store.ino.WriteAt(0, b)
	if err != nil {
		return fmt.Errorf("writing free map file: %w", err)
	}
	if n != Byte(len(b)) {
		return fmt.Errorf(
			"writing free map file: wrote `%d` of `%d` bytes",
			n,
			len(b),
		)
	}
	return nil
}

var _ freemap.Store = &freeMapStore{}

func bitmapBytes(sectors Sector) Byte {
	return math.DivRoundUp(Byte(sectors), 8)
}

// Format writes a fresh, empty file system onto dev and returns it
// mounted. Whatever the device held before is unreachable afterward.
func Format(dev device.Device, cacheCapacity int) (*FileSystem, error) {
	fs, err := format(dev, cacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("formatting device: %w", err)
	}
	return fs, nil
}

func format(dev device.Device, cacheCapacity int) (*FileSystem, error) {
	sectors := dev.SectorCount()
	store := cache.NewStore(dev, cacheCapacity)
	fmStore := &freeMapStore{}
	freeMap := freemap.New(sectors, fmStore)
	freeMap.Reserve(FreeMapSector)
	freeMap.Reserve(RootDirSector)
	registry := inode.New(store, freeMap)

	if err := registry.Create(
		FreeMapSector,
		bitmapBytes(sectors),
		false,
	); err != nil {
		return nil, fmt.Errorf("creating free map file: %w", err)
	}
	if err := registry.Create(RootDirSector, 0, true); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}

	ino, err := registry.Open(FreeMapSector)
	if err != nil {
		return nil, fmt.Errorf("opening free map file: %w", err)
	}
	fmStore.ino = ino

	fs := &FileSystem{
		store:       store,
		freeMap:     freeMap,
		registry:    registry,
		freeMapFile: ino,
		sectors:     sectors,
	}
	if err := fs.Flush(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Open mounts the file system a previous Format left on dev.
func Open(dev device.Device, cacheCapacity int) (*FileSystem, error) {
	fs, err := open(dev, cacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("mounting device: %w", err)
	}
	return fs, nil
}

func open(dev device.Device, cacheCapacity int) (*FileSystem, error) {
	sectors := dev.SectorCount()
	store := cache.NewStore(dev, cacheCapacity)
	fmStore := &freeMapStore{}
	freeMap := freemap.New(sectors, fmStore)
	registry := inode.New(store, freeMap)

	ino, err := registry.Open(FreeMapSector)
	if err != nil {
		return nil, fmt.Errorf("opening free map file: %w", err)
	}
	fmStore.ino = ino

	b := make([]byte, bitmapBytes(sectors))
	n, err := ino.ReadAt(0, b)
	if err != nil {
		return nil, fmt.Errorf("reading free map file: %w", err)
	}
	if n != Byte(len(b)) {
		return nil, fmt.Errorf(
			"reading free map file: read `%d` of `%d` bytes",
			n,
			len(b),
		)
	}
	freeMap.Load(b)

	return &FileSystem{
		store:       store,
		freeMap:     freeMap,
		registry:    registry,
		freeMapFile: ino,
		sectors:     sectors,
	}, nil
}

// Flush persists the free map and every dirty cached sector. The device
// holds a mountable image afterward.
func (fs *FileSystem) Flush() error {
	if err := fs.freeMap.Flush(); err != nil {
		return fmt.Errorf("flushing free map: %w", err)
	}
	if err := fs.store.Flush(); err != nil {
		return fmt.Errorf("flushing cache: %w", err)
	}
	return nil
}

// Close flushes everything and releases the free-map file handle. The
// file system must not be used afterward.
func (fs *FileSystem) Close() error {
	if err := fs.freeMap.Flush(); err != nil {
		return fmt.Errorf("closing file system: flushing free map: %w", err)
	}
	if err := fs.freeMapFile.Close(); err != nil {
		return fmt.Errorf("closing file system: %w", err)
	}
	if err := fs.store.Flush(); err != nil {
		return fmt.Errorf("closing file system: flushing cache: %w", err)
	}
	return nil
}

func (fs *FileSystem) SectorCount() Sector { return fs.sectors }

func (fs *FileSystem) FreeCount() Sector { return fs.freeMap.FreeCount() }

func (fs *FileSystem) openRoot() (*directory.Directory, error) {
	ino, err := fs.registry.Open(RootDirSector)
	if err != nil {
		return nil, fmt.Errorf("opening root directory: %w", err)
	}
	dir, err := directory.Open(fs.registry, ino)
	if err != nil {
		ino.Close()
		return nil, fmt.Errorf("opening root directory: %w", err)
	}
	return dir, nil
}

// Create adds a file named name holding length bytes of zeroed data to
// the root directory.
func (fs *FileSystem) Create(name string, length Byte) error {
	if err := fs.create(name, length); err != nil {
		return fmt.Errorf("creating file `%s`: %w", name, err)
	}
	return nil
}

func (fs *FileSystem) create(name string, length Byte) error {
	root, err := fs.openRoot()
	if err != nil {
		return err
	}

	sector, ok := fs.freeMap.Allocate(1)
	if !ok {
		root.Close()
		return inode.OutOfSectorsErr
	}
	if err := fs.registry.Create(sector, length, false); err != nil {
		fs.freeMap.Release(sector, 1)
		root.Close()
		return err
	}

	if err := root.Add(name, sector); err != nil {
		// without an entry the record and its data are unreachable
		if ino, openErr := fs.registry.Open(sector); openErr == nil {
			ino.Remove()
			ino.Close()
		}
		root.Close()
		return err
	}
	return root.Close()
}

// OpenFile opens name for positioned reads and writes.
func (fs *FileSystem) OpenFile(name string) (*file.File, error) {
	f, err := fs.openFile(name)
	if err != nil {
		return nil, fmt.Errorf("opening file `%s`: %w", name, err)
	}
	return f, nil
}

func (fs *FileSystem) openFile(name string) (*file.File, error) {
	root, err := fs.openRoot()
	if err != nil {
		return nil, err
	}

	var entry DirEntry
	if err := root.Lookup(name, &entry); err != nil {
		root.Close()
		return nil, err
	}
	if err := root.Close(); err != nil {
		return nil, err
	}

	ino, err := fs.registry.Open(entry.Sector)
	if err != nil {
		return nil, err
	}
	return file.New(ino), nil
}

// Remove deletes name from the root directory. Handles already open
// keep working; the file's sectors free when the last one closes.
func (fs *FileSystem) Remove(name string) error {
	if err := fs.remove(name); err != nil {
		return fmt.Errorf("removing file `%s`: %w", name, err)
	}
	return nil
}

func (fs *FileSystem) remove(name string) error {
	root, err := fs.openRoot()
	if err != nil {
		return err
	}
	if err := root.Remove(name); err != nil {
		root.Close()
		return err
	}
	return root.Close()
}

// List returns the names in the root directory in table order.
func (fs *FileSystem) List() ([]string, error) {
	root, err := fs.openRoot()
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	var names []string
	for {
		name, err := root.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			root.Close()
			return nil, fmt.Errorf("listing files: %w", err)
		}
		names = append(names, name)
	}
	if err := root.Close(); err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return names, nil
}
