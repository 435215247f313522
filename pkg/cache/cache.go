package cache

import (
	. "github.com/weberc2/blockfs/pkg/types"
)

// Block is one cached device sector together with its sector number.
type Block struct {
	Sector Sector
	Data   [SectorSize]byte
}

// Cache is a fixed-capacity LRU over whole sectors. It is not safe for
// concurrent use; Store serializes access to it.
type Cache struct {
	head   *entry
	tail   *entry
	lookup map[Sector]*entry
	pool   []entry
	used   int
}

func New(capacity int) *Cache {
	return &Cache{
		lookup: make(map[Sector]*entry),
		pool:   make([]entry, capacity),
	}
}

// alloc hands out entries from the fixed pool until every slot is
// linked into the list; after that it returns nil and Push recycles
// the tail instead.
func (c *Cache) alloc() *entry {
	if c.used >= len(c.pool) {
		return nil
	}
	e := &c.pool[c.used]
	c.used++
	return e
}

func (c *Cache) Get(sector Sector, out *Block) bool {
	e, exists := c.lookup[sector]
	if !exists {
		return false
	}

	if e != c.head {
		c.unlink(e)
		c.pushFront(e)
	}
	*out = e.value
	return true
}

// Push inserts or refreshes a block, promoting it to most recently
// used. If the cache was full, the least recently used block is copied
// into `evicted` and true is returned; the caller owns writing it back.
func (c *Cache) Push(block *Block, evicted *Block) (evict bool) {
	if e, exists := c.lookup[block.Sector]; exists {
		if e != c.head {
			c.unlink(e)
			c.pushFront(e)
		}
		e.value = *block
		return false
	}

	e := c.alloc()
	if e == nil {
		// If the capacity is 0, then c.tail is nil here, but that is a
		// niche programming error and it's okay to let it blow up in a
		// nil pointer exception.
		e = c.tail
		*evicted = e.value
		delete(c.lookup, e.value.Sector)
		c.unlink(e)
		evict = true
	}

	e.value = *block
	c.lookup[block.Sector] = e
	c.pushFront(e)
	return
}

// Victim copies out the block that pushing `sector` would evict,
// returning false when pushing it evicts nothing, either because the
// sector is already resident or because a pool slot is still free.
func (c *Cache) Victim(sector Sector, out *Block) bool {
	if _, exists := c.lookup[sector]; exists {
		return false
	}
	if c.used < len(c.pool) {
		return false
	}
	*out = c.tail.value
	return true
}

// unlink detaches e from the list, fixing up head and tail. e must be
// linked.
func (c *Cache) unlink(e *entry) {
	if e == c.head {
		c.head = e.next
	} else {
		e.prev.next = e.next
	}

	if e == c.tail {
		c.tail = e.prev
	} else {
		e.next.prev = e.prev
	}
}

// pushFront links e at the head of the list. e must not be linked.
func (c *Cache) pushFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

type entry struct {
	prev  *entry
	next  *entry
	value Block
}
