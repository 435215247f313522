package types

// SectorStore reads and writes whole sectors. The buffer passed to
// either method must be exactly SectorSize bytes.
type SectorStore interface {
	ReadSector(sector Sector, b []byte) error
	WriteSector(sector Sector, b []byte) error
}
