package types

// Byte is a count of bytes or a byte offset.
type Byte uint64

// Sector is the number of a 512-byte sector on the underlying device.
// Sector numbers are 4 bytes wide on disk, which is what makes an index
// sector hold exactly 128 of them.
type Sector uint32

const (
	SectorSize        Byte = 512
	SectorPointerSize Byte = 4

	PointersPerSector Sector = Sector(SectorSize / SectorPointerSize)

	// SectorNil marks a pointer slot as not-yet-allocated. Zero is safe
	// as the nil value because sector 0 always holds the free-map file's
	// record and is reserved at format time.
	SectorNil Sector = 0

	// FreeMapSector and RootDirSector are the two record sectors fixed
	// by the disk format.
	FreeMapSector Sector = 0
	RootDirSector Sector = 1
)
