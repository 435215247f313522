package device

import (
	"fmt"
	"os"

	. "github.com/weberc2/blockfs/pkg/types"
)

type fileVolume struct {
	file *os.File
}

func (v fileVolume) ReadAt(offset Byte, b []byte) error {
	if _, err := v.file.ReadAt(b, int64(offset)); err != nil {
		return fmt.Errorf(
			"reading `%d` bytes from `%s` at offset `%d`: %w",
			len(b),
			v.file.Name(),
			offset,
			err,
		)
	}
	return nil
}

func (v fileVolume) WriteAt(offset Byte, b []byte) error {
	if _, err := v.file.WriteAt(b, int64(offset)); err != nil {
		return fmt.Errorf(
			"writing `%d` bytes to `%s` at offset `%d`: %w",
			len(b),
			v.file.Name(),
			offset,
			err,
		)
	}
	return nil
}

// FileDevice is a Device backed by a regular file whose size is a whole
// number of sectors.
type FileDevice struct {
	VolumeDevice
	file *os.File
}

// CreateFileDevice creates (or truncates) the file at `path` and sizes
// it to hold `sectors` sectors of zeros.
func CreateFileDevice(path string, sectors Sector) (*FileDevice, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating device file `%s`: %w", path, err)
	}
	if err := file.Truncate(int64(Byte(sectors) * SectorSize)); err != nil {
		file.Close()
		return nil, fmt.Errorf(
			"sizing device file `%s` to `%d` sectors: %w",
			path,
			sectors,
			err,
		)
	}
	return &FileDevice{
		VolumeDevice: VolumeDevice{volume: fileVolume{file}, sectors: sectors},
		file:         file,
	}, nil
}

// OpenFileDevice opens an existing device file, deriving the sector
// count from the file's size.
func OpenFileDevice(path string) (*FileDevice, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening device file `%s`: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("statting device file `%s`: %w", path, err)
	}
	if info.Size()%int64(SectorSize) != 0 {
		file.Close()
		return nil, fmt.Errorf(
			"opening device file `%s`: size `%d` is not a whole number of "+
				"sectors",
			path,
			info.Size(),
		)
	}
	return &FileDevice{
		VolumeDevice: VolumeDevice{
			volume:  fileVolume{file},
			sectors: Sector(info.Size() / int64(SectorSize)),
		},
		file: file,
	}, nil
}

func (d *FileDevice) Close() error {
	if err := d.file.Close(); err != nil {
		return fmt.Errorf("closing device file: %w", err)
	}
	return nil
}

var _ Device = &FileDevice{}
