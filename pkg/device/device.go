package device

import (
	"fmt"

	. "github.com/weberc2/blockfs/pkg/types"
)

// Device is a fixed-size array of sectors. Callers must pass buffers of
// exactly SectorSize bytes and sector numbers below SectorCount();
// violating either is a programming error, not an I/O condition, so
// implementations panic rather than return an error.
type Device interface {
	SectorStore
	SectorCount() Sector
}

func checkSector(sector Sector, count Sector, b []byte) {
	if Byte(len(b)) != SectorSize {
		panic(fmt.Sprintf(
			"sector buffer: wanted `%d` bytes; found `%d`",
			SectorSize,
			len(b),
		))
	}
	if sector >= count {
		panic(fmt.Sprintf(
			"sector `%d` out of range for device with `%d` sectors",
			sector,
			count,
		))
	}
}

// VolumeDevice adapts a flat byte Volume into a Device by addressing it
// in SectorSize strides.
type VolumeDevice struct {
	volume  Volume
	sectors Sector
}

func NewVolumeDevice(volume Volume, sectors Sector) *VolumeDevice {
	return &VolumeDevice{volume: volume, sectors: sectors}
}

// NewMemDevice returns a zero-filled in-memory device, which is what
// most tests format their file systems onto.
func NewMemDevice(sectors Sector) *VolumeDevice {
	return NewVolumeDevice(
		NewBuffer(make([]byte, Byte(sectors)*SectorSize)),
		sectors,
	)
}

func (d *VolumeDevice) ReadSector(sector Sector, b []byte) error {
	checkSector(sector, d.sectors, b)
	if err := d.volume.ReadAt(Byte(sector)*SectorSize, b); err != nil {
		return fmt.Errorf("reading sector `%d`: %w", sector, err)
	}
	return nil
}

func (d *VolumeDevice) WriteSector(sector Sector, b []byte) error {
	checkSector(sector, d.sectors, b)
	if err := d.volume.WriteAt(Byte(sector)*SectorSize, b); err != nil {
		return fmt.Errorf("writing sector `%d`: %w", sector, err)
	}
	return nil
}

func (d *VolumeDevice) SectorCount() Sector { return d.sectors }

var _ Device = &VolumeDevice{}
