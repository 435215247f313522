package directory

import (
	"fmt"
	"io"

	"github.com/weberc2/blockfs/pkg/encode"
	. "github.com/weberc2/blockfs/pkg/types"
)

// ReadNext returns the name of the next in-use entry, advancing the
// cursor past unused slots. Once the table is exhausted every call
// returns io.EOF.
func (dir *Directory) ReadNext() (string, error) {
	for dir.pos < dir.ino.Length() {
		var entry DirEntry
		if err := dir.readEntry(dir.pos/encode.DirEntrySize, &entry); err != nil {
			return "", fmt.Errorf(
				"reading directory `%d` at offset `%d`: %w",
				dir.ino.Inumber(),
				dir.pos,
				err,
			)
		}
		dir.pos += encode.DirEntrySize

		if !entry.InUse {
			continue
		}
		return entry.Name, nil
	}
	return "", io.EOF
}
