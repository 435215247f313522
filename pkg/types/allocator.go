package types

// Allocator hands out free sectors. Allocate returns the first sector of
// a run of `count` consecutive free sectors and false if no such run
// exists; it never returns an error because exhaustion is an ordinary
// condition for callers to handle. Release returns a previously
// allocated run; releasing a free sector is a programming error and
// panics.
type Allocator interface {
	Allocate(count int) (Sector, bool)
	Release(start Sector, count int)
}
