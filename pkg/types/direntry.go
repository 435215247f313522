package types

// NameMax is the longest file name a directory entry can hold.
const NameMax = 14

// DirEntry is a single slot in a directory file. Slots are never removed
// from the file; deleting an entry clears InUse and leaves the slot for
// a later Add to recycle.
type DirEntry struct {
	Sector Sector
	Name   string
	InUse  bool
}
