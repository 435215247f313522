package directory

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/encode"
	"github.com/weberc2/blockfs/pkg/inode"
	. "github.com/weberc2/blockfs/pkg/types"
)

const (
	NotADirErr     ConstError = "not a directory"
	NameTooLongErr ConstError = "name too long"
	EmptyNameErr   ConstError = "empty name"
	ExistsErr      ConstError = "entry exists"
	NotFoundErr    ConstError = "entry not found"
)

// Directory reads and mutates the entry table stored in a directory
// inode. Entries are fixed size; removing one marks its slot unused and
// a later add reuses the slot before the table grows.
type Directory struct {
	registry *inode.Registry
	ino      *inode.Inode
	pos      Byte
}

// Open wraps an open directory inode. On success the Directory owns the
// caller's inode reference and releases it on Close; on failure the
// reference remains the caller's.
func Open(registry *inode.Registry, ino *inode.Inode) (*Directory, error) {
	if !ino.IsDir() {
		return nil, fmt.Errorf(
			"opening inode `%d` as directory: %w",
			ino.Inumber(),
			NotADirErr,
		)
	}
	return &Directory{registry: registry, ino: ino}, nil
}

func (dir *Directory) Inode() *inode.Inode { return dir.ino }

func (dir *Directory) Close() error {
	if err := dir.ino.Close(); err != nil {
		return fmt.Errorf(
			"closing directory `%d`: %w",
			dir.ino.Inumber(),
			err,
		)
	}
	return nil
}

func (dir *Directory) entryCount() Byte {
	return dir.ino.Length() / encode.DirEntrySize
}

func (dir *Directory) readEntry(index Byte, entry *DirEntry) error {
	var buf [encode.DirEntrySize]byte
	if _, err := dir.ino.ReadAt(
		index*encode.DirEntrySize,
		buf[:],
	); err != nil {
		return fmt.Errorf(
			"reading entry `%d` of directory `%d`: %w",
			index,
			dir.ino.Inumber(),
			err,
		)
	}
	encode.DecodeDirEntry(entry, &buf)
	return nil
}

func (dir *Directory) writeEntry(index Byte, entry *DirEntry) error {
	var buf [encode.DirEntrySize]byte
	encode.EncodeDirEntry(entry, &buf)
	n, err := dir.ino.WriteAt(index*encode.DirEntrySize, buf[:])
	if err != nil {
		return fmt.Errorf(
			"writing entry `%d` of directory `%d`: %w",
			index,
			dir.ino.Inumber(),
			err,
		)
	}
	if n != encode.DirEntrySize {
		return fmt.Errorf(
			"writing entry `%d` of directory `%d`: wrote `%d` of `%d` bytes",
			index,
			dir.ino.Inumber(),
			n,
			Byte(encode.DirEntrySize),
		)
	}
	return nil
}
