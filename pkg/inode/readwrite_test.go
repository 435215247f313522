package inode

import (
	"bytes"
	"sync"
	"testing"

	. "github.com/weberc2/blockfs/pkg/types"
)

func pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i%97)
	}
	return b
}

func openTestInode(t *testing.T, length Byte) *Inode {
	t.Helper()
	r, fm := testRegistry(256)
	sector := createTestInode(t, r, fm, length, false)
	ino, err := r.Open(sector)
	if err != nil {
		t.Fatalf("Open(): unexpected err: %v", err)
	}
	return ino
}

func TestReadWrite_RoundTrip(t *testing.T) {
	ino := openTestInode(t, 0)
	defer ino.Close()

	wanted := pattern(1200, 3)
	if n, err := ino.WriteAt(0, wanted); err != nil {
		t.Fatalf("WriteAt(): unexpected err: %v", err)
	} else if n != 1200 {
		t.Fatalf("WriteAt(): wanted `1200` bytes; found `%d`", n)
	}

	found := make([]byte, 1200)
	if n, err := ino.ReadAt(0, found); err != nil {
		t.Fatalf("ReadAt(): unexpected err: %v", err)
	} else if n != 1200 {
		t.Fatalf("ReadAt(): wanted `1200` bytes; found `%d`", n)
	}
	if !bytes.Equal(wanted, found) {
		t.Fatal("ReadAt(): bytes differ from what was written")
	}

	// an unaligned slice out of the middle takes the bounce-buffer path
	sub := make([]byte, 300)
	if n, err := ino.ReadAt(100, sub); err != nil || n != 300 {
		t.Fatalf("ReadAt(): wanted `300, nil`; found `%d, %v`", n, err)
	}
	if !bytes.Equal(wanted[100:400], sub) {
		t.Fatal("ReadAt(): middle slice differs from what was written")
	}
}

func TestWrite_UnalignedOverwrite(t *testing.T) {
	ino := openTestInode(t, 2*SectorSize)
	defer ino.Close()

	base := pattern(int(2*SectorSize), 1)
	if _, err := ino.WriteAt(0, base); err != nil {
		t.Fatalf("WriteAt(): unexpected err: %v", err)
	}

	// an overwrite inside one sector must splice into the existing
	// bytes, not clobber its neighbors
	patch := []byte("patched")
	if _, err := ino.WriteAt(250, patch); err != nil {
		t.Fatalf("WriteAt(): unexpected err: %v", err)
	}
	copy(base[250:], patch)

	found := make([]byte, len(base))
	if _, err := ino.ReadAt(0, found); err != nil {
		t.Fatalf("ReadAt(): unexpected err: %v", err)
	}
	if !bytes.Equal(base, found) {
		t.Fatal("ReadAt(): bytes differ from expected splice")
	}
}

func TestWrite_CrossesSectorBoundary(t *testing.T) {
	ino := openTestInode(t, 2*SectorSize)
	defer ino.Close()

	wanted := pattern(100, 9)
	if n, err := ino.WriteAt(460, wanted); err != nil || n != 100 {
		t.Fatalf("WriteAt(): wanted `100, nil`; found `%d, %v`", n, err)
	}

	found := make([]byte, 100)
	if n, err := ino.ReadAt(460, found); err != nil || n != 100 {
		t.Fatalf("ReadAt(): wanted `100, nil`; found `%d, %v`", n, err)
	}
	if !bytes.Equal(wanted, found) {
		t.Fatal("ReadAt(): bytes differ across the sector boundary")
	}
}

func TestRead_ShortAtEndOfFile(t *testing.T) {
	ino := openTestInode(t, 600)
	defer ino.Close()

	// a read crossing the end comes back short
	found := make([]byte, 200)
	if n, err := ino.ReadAt(500, found); err != nil {
		t.Fatalf("ReadAt(): unexpected err: %v", err)
	} else if n != 100 {
		t.Fatalf("ReadAt(): wanted `100` bytes; found `%d`", n)
	}

	// reads at or past the end read nothing
	if n, err := ino.ReadAt(600, found); err != nil || n != 0 {
		t.Fatalf("ReadAt(): wanted `0, nil`; found `%d, %v`", n, err)
	}
	if n, err := ino.ReadAt(9999, found); err != nil || n != 0 {
		t.Fatalf("ReadAt(): wanted `0, nil`; found `%d, %v`", n, err)
	}
}

func TestRead_SectorGranularity(t *testing.T) {
	ino := openTestInode(t, 0)
	defer ino.Close()

	// stamp each data sector with its own index so a misrouted read is
	// visible in the byte it returns
	stamped := make([]byte, 150*SectorSize)
	for i := range stamped {
		stamped[i] = byte(Byte(i) / SectorSize)
	}
	if _, err := ino.WriteAt(0, stamped); err != nil {
		t.Fatalf("WriteAt(): unexpected err: %v", err)
	}

	// every offset inside a sector must land on that sector's storage,
	// in all three tiers and on both tier transitions
	for _, k := range []Byte{0, 11, 12, 139, 140, 149} {
		for _, r := range []Byte{0, 1, 250, SectorSize - 1} {
			offset := k*SectorSize + r
			var found [1]byte
			if n, err := ino.ReadAt(offset, found[:]); err != nil || n != 1 {
				t.Fatalf(
					"ReadAt(%d): wanted `1, nil`; found `%d, %v`",
					offset,
					n,
					err,
				)
			}
			if wanted := byte(k); wanted != found[0] {
				t.Fatalf(
					"ReadAt(%d): wanted `%d`; found `%d`",
					offset,
					wanted,
					found[0],
				)
			}
		}
	}
}

func TestWrite_SparseGapReadsZero(t *testing.T) {
	ino := openTestInode(t, 0)
	defer ino.Close()

	wanted := pattern(100, 5)
	if n, err := ino.WriteAt(5000, wanted); err != nil || n != 100 {
		t.Fatalf("WriteAt(): wanted `100, nil`; found `%d, %v`", n, err)
	}
	if wantedLen, found := Byte(5100), ino.Length(); wantedLen != found {
		t.Fatalf("Length(): wanted `%d`; found `%d`", wantedLen, found)
	}

	// every byte before the write is part of the file now and must read
	// as zero
	gap := make([]byte, 5000)
	if n, err := ino.ReadAt(0, gap); err != nil || n != 5000 {
		t.Fatalf("ReadAt(): wanted `5000, nil`; found `%d, %v`", n, err)
	}
	if !bytes.Equal(gap, make([]byte, 5000)) {
		t.Fatal("ReadAt(): wanted all zeros in the gap; found nonzero bytes")
	}

	found := make([]byte, 100)
	if _, err := ino.ReadAt(5000, found); err != nil {
		t.Fatalf("ReadAt(): unexpected err: %v", err)
	}
	if !bytes.Equal(wanted, found) {
		t.Fatal("ReadAt(): bytes differ from what was written")
	}
}

func TestWrite_AlignedFullSectors(t *testing.T) {
	ino := openTestInode(t, 4*SectorSize)
	defer ino.Close()

	wanted := pattern(int(2*SectorSize), 7)
	if n, err := ino.WriteAt(SectorSize, wanted); err != nil {
		t.Fatalf("WriteAt(): unexpected err: %v", err)
	} else if n != 2*SectorSize {
		t.Fatalf("WriteAt(): wanted `%d` bytes; found `%d`", 2*SectorSize, n)
	}

	found := make([]byte, 2*SectorSize)
	if _, err := ino.ReadAt(SectorSize, found); err != nil {
		t.Fatalf("ReadAt(): unexpected err: %v", err)
	}
	if !bytes.Equal(wanted, found) {
		t.Fatal("ReadAt(): bytes differ from what was written")
	}
}

func TestWrite_ZeroLengthExtends(t *testing.T) {
	ino := openTestInode(t, 0)
	defer ino.Close()

	// an empty write moves no bytes, but aimed past the end it still
	// extends the file
	if n, err := ino.WriteAt(10000, nil); err != nil || n != 0 {
		t.Fatalf("WriteAt(): wanted `0, nil`; found `%d, %v`", n, err)
	}
	if wanted, found := Byte(10000), ino.Length(); wanted != found {
		t.Fatalf("Length(): wanted `%d`; found `%d`", wanted, found)
	}

	// the extension reads back as zeros
	found := make([]byte, 10000)
	if n, err := ino.ReadAt(0, found); err != nil || n != 10000 {
		t.Fatalf("ReadAt(): wanted `10000, nil`; found `%d, %v`", n, err)
	}
	if !bytes.Equal(found, make([]byte, 10000)) {
		t.Fatal("ReadAt(): wanted all zeros; found nonzero bytes")
	}

	// inside the file an empty write changes nothing
	if n, err := ino.WriteAt(123, nil); err != nil || n != 0 {
		t.Fatalf("WriteAt(): wanted `0, nil`; found `%d, %v`", n, err)
	}
	if wanted, found := Byte(10000), ino.Length(); wanted != found {
		t.Fatalf("Length(): wanted `%d`; found `%d`", wanted, found)
	}
}

func TestReadWrite_ConcurrentDistinctInodes(t *testing.T) {
	r, fm := testRegistry(256)
	first, err := r.Open(createTestInode(t, r, fm, 0, false))
	if err != nil {
		t.Fatalf("Open(): unexpected err: %v", err)
	}
	defer first.Close()
	second, err := r.Open(createTestInode(t, r, fm, 0, false))
	if err != nil {
		t.Fatalf("Open(): unexpected err: %v", err)
	}
	defer second.Close()

	wantedFirst := pattern(3000, 11)
	wantedSecond := pattern(3000, 13)

	var wg sync.WaitGroup
	for _, w := range []struct {
		ino *Inode
		b   []byte
	}{{first, wantedFirst}, {second, wantedSecond}} {
		wg.Add(1)
		go func(ino *Inode, b []byte) {
			defer wg.Done()
			if _, err := ino.WriteAt(0, b); err != nil {
				t.Errorf("WriteAt(): unexpected err: %v", err)
			}
		}(w.ino, w.b)
	}
	wg.Wait()

	for _, w := range []struct {
		ino    *Inode
		wanted []byte
	}{{first, wantedFirst}, {second, wantedSecond}} {
		found := make([]byte, len(w.wanted))
		if _, err := w.ino.ReadAt(0, found); err != nil {
			t.Fatalf("ReadAt(): unexpected err: %v", err)
		}
		if !bytes.Equal(w.wanted, found) {
			t.Fatalf(
				"ReadAt(): inode `%d` bytes differ from what was written",
				w.ino.Inumber(),
			)
		}
	}
}

func TestRead_ConcurrentReaders(t *testing.T) {
	ino := openTestInode(t, 0)
	defer ino.Close()

	wanted := pattern(4096, 17)
	if _, err := ino.WriteAt(0, wanted); err != nil {
		t.Fatalf("WriteAt(): unexpected err: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			found := make([]byte, len(wanted))
			if _, err := ino.ReadAt(0, found); err != nil {
				t.Errorf("ReadAt(): unexpected err: %v", err)
				return
			}
			if !bytes.Equal(wanted, found) {
				t.Error("ReadAt(): bytes differ from what was written")
			}
		}()
	}
	wg.Wait()
}
