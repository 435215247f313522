package types

const (
	// PointerCount is the number of pointer slots in a record: 12 direct
	// plus the single-indirect and double-indirect slots.
	PointerCount = 14

	DirectCount        Sector = 12
	SinglyIndirectSlot        = 12
	DoublyIndirectSlot        = 13

	// Tier boundaries in data-sector index space. A data sector index i
	// resolves through the direct slots for i < DirectCount, through the
	// single-indirect sector for i < DoublyIndirectBase, and through the
	// double-indirect tree up to MaxFileSectors.
	SinglyIndirectBase Sector = DirectCount
	DoublyIndirectBase Sector = DirectCount + PointersPerSector
	MaxFileSectors     Sector = DoublyIndirectBase +
		PointersPerSector*PointersPerSector

	MaxFileSize Byte = Byte(MaxFileSectors) * SectorSize
)

// Record is the on-disk inode record. It occupies exactly one sector
// (see pkg/encode); unset pointer slots hold SectorNil.
//
// Allocated counts the data sectors currently reachable through
// Pointers. It drives growth and release bookkeeping: slot contents at
// data-sector indices at or beyond Allocated are garbage and must never
// be read.
type Record struct {
	Length    Byte
	Pointers  [PointerCount]Sector
	Allocated Sector
	IsDir     bool
}
