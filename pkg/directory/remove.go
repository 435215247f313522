package directory

import (
	"fmt"

	. "github.com/weberc2/blockfs/pkg/types"
)

// Remove deletes name's entry and marks the named inode for deletion.
// Open handles keep working; the inode's sectors free when the last
// handle closes.
func (dir *Directory) Remove(name string) error {
	if err := dir.remove(name); err != nil {
		return fmt.Errorf(
			"removing entry `%s` from directory `%d`: %w",
			name,
			dir.ino.Inumber(),
			err,
		)
	}
	return nil
}

func (dir *Directory) remove(name string) error {
	var entry DirEntry
	index, err := dir.lookup(name, &entry)
	if err != nil {
		return err
	}

	// open the target before clearing its entry so that a failure here
	// leaves the name visible instead of leaking the inode
	ino, err := dir.registry.Open(entry.Sector)
	if err != nil {
		return err
	}

	entry.InUse = false
	if err := dir.writeEntry(index, &entry); err != nil {
		if closeErr := ino.Close(); closeErr != nil {
			return fmt.Errorf(
				"%w (also failed to close inode `%d`: %v)",
				err,
				entry.Sector,
				closeErr,
			)
		}
		return err
	}

	ino.Remove()
	if err := ino.Close(); err != nil {
		return fmt.Errorf("closing removed inode `%d`: %w", entry.Sector, err)
	}
	return nil
}
