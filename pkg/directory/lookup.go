package directory

import (
	"fmt"

	. "github.com/weberc2/blockfs/pkg/types"
)

// Lookup finds the in-use entry named name. The returned entry's Sector
// field is the inumber of the named file or directory.
func (dir *Directory) Lookup(name string, out *DirEntry) error {
	if _, err := dir.lookup(name, out); err != nil {
		return fmt.Errorf(
			"looking up `%s` in directory `%d`: %w",
			name,
			dir.ino.Inumber(),
			err,
		)
	}
	return nil
}

func (dir *Directory) lookup(name string, out *DirEntry) (Byte, error) {
	count := dir.entryCount()
	for i := Byte(0); i < count; i++ {
		var entry DirEntry
		if err := dir.readEntry(i, &entry); err != nil {
			return 0, err
		}
		if entry.InUse && entry.Name == name {
			*out = entry
			return i, nil
		}
	}
	return 0, NotFoundErr
}
