package directory

import (
	"fmt"

	. "github.com/weberc2/blockfs/pkg/types"
)

// Add binds name to the file or directory whose record lives at sector.
// The entry lands in the first unused slot; the table grows only when
// every slot is in use.
func (dir *Directory) Add(name string, sector Sector) error {
	if err := dir.add(name, sector); err != nil {
		return fmt.Errorf(
			"adding entry `%s` for sector `%d` to directory `%d`: %w",
			name,
			sector,
			dir.ino.Inumber(),
			err,
		)
	}
	return nil
}

func (dir *Directory) add(name string, sector Sector) error {
	if name == "" {
		return EmptyNameErr
	}
	if len(name) > NameMax {
		return NameTooLongErr
	}

	count := dir.entryCount()
	slot := count
	for i := Byte(0); i < count; i++ {
		var entry DirEntry
		if err := dir.readEntry(i, &entry); err != nil {
			return err
		}
		if !entry.InUse {
			if slot == count {
				slot = i
			}
			continue
		}
		if entry.Name == name {
			return ExistsErr
		}
	}

	return dir.writeEntry(slot, &DirEntry{
		Sector: sector,
		Name:   name,
		InUse:  true,
	})
}
