package freemap

import (
	"testing"

	. "github.com/weberc2/blockfs/pkg/types"
)

func TestBitmap_AllocRunFirstFit(t *testing.T) {
	bm := NewBitmap(16)

	if start, ok := bm.AllocRun(3); !ok || start != 0 {
		t.Fatalf("AllocRun(3): wanted `0, true`; found `%d, %t`", start, ok)
	}
	if start, ok := bm.AllocRun(2); !ok || start != 3 {
		t.Fatalf("AllocRun(2): wanted `3, true`; found `%d, %t`", start, ok)
	}

	// freeing bits 1 and 2 opens the first two-bit run at 1
	bm.Free(1)
	bm.Free(2)
	if start, ok := bm.AllocRun(2); !ok || start != 1 {
		t.Fatalf("AllocRun(2): wanted `1, true`; found `%d, %t`", start, ok)
	}
}

func TestBitmap_AllocRunSkipsFragments(t *testing.T) {
	bm := NewBitmap(8)
	bm.Reserve(1)

	// bit 0 is free but bit 1 is not, so the first run of two starts at 2
	if start, ok := bm.AllocRun(2); !ok || start != 2 {
		t.Fatalf("AllocRun(2): wanted `2, true`; found `%d, %t`", start, ok)
	}
}

func TestBitmap_AllocRunExhausted(t *testing.T) {
	bm := NewBitmap(4)

	if _, ok := bm.AllocRun(5); ok {
		t.Fatal("AllocRun(5): wanted `false`; found `true`")
	}
	if start, ok := bm.AllocRun(4); !ok || start != 0 {
		t.Fatalf("AllocRun(4): wanted `0, true`; found `%d, %t`", start, ok)
	}
	if _, ok := bm.AllocRun(1); ok {
		t.Fatal("AllocRun(1): wanted `false`; found `true`")
	}
}

func TestBitmap_PaddingBitsNeverAllocated(t *testing.T) {
	// 10 bits span two bytes; the final six bits are padding and must
	// not be handed out
	bm := NewBitmap(10)
	for i := uint64(0); i < 10; i++ {
		if start, ok := bm.AllocRun(1); !ok || start != i {
			t.Fatalf(
				"AllocRun(1): wanted `%d, true`; found `%d, %t`",
				i,
				start,
				ok,
			)
		}
	}
	if _, ok := bm.AllocRun(1); ok {
		t.Fatal("AllocRun(1): wanted `false`; found `true`")
	}
}

func TestBitmap_DoubleFreePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Free(): wanted panic; found none")
		}
	}()
	bm := NewBitmap(8)
	bm.Free(3)
}

func TestBitmap_FreeCount(t *testing.T) {
	bm := NewBitmap(12)
	if wanted, found := uint64(12), bm.FreeCount(); wanted != found {
		t.Fatalf("FreeCount(): wanted `%d`; found `%d`", wanted, found)
	}
	bm.AllocRun(5)
	if wanted, found := uint64(7), bm.FreeCount(); wanted != found {
		t.Fatalf("FreeCount(): wanted `%d`; found `%d`", wanted, found)
	}
}

func TestBitmap_FromBytesRoundTrip(t *testing.T) {
	bm := NewBitmap(16)
	bm.AllocRun(3)
	bm.Reserve(9)

	restored := FromBytes(bm.Bytes(), 16)
	if start, ok := restored.AllocRun(1); !ok || start != 3 {
		t.Fatalf("AllocRun(1): wanted `3, true`; found `%d, %t`", start, ok)
	}
	if wanted, found := uint64(11), restored.FreeCount(); wanted != found {
		t.Fatalf("FreeCount(): wanted `%d`; found `%d`", wanted, found)
	}
}

type fakeStore struct {
	puts int
}

func (store *fakeStore) Put(Bitmap) error {
	store.puts++
	return nil
}

func TestFreeMap_FlushOnlyWhenDirty(t *testing.T) {
	store := &fakeStore{}
	fm := New(8, store)

	// clean free map: nothing to flush
	if err := fm.Flush(); err != nil {
		t.Fatalf("Flush(): unexpected err: %v", err)
	}
	if store.puts != 0 {
		t.Fatalf("store puts: wanted `0`; found `%d`", store.puts)
	}

	if _, ok := fm.Allocate(1); !ok {
		t.Fatal("Allocate(1): wanted `true`; found `false`")
	}
	if err := fm.Flush(); err != nil {
		t.Fatalf("Flush(): unexpected err: %v", err)
	}
	if store.puts != 1 {
		t.Fatalf("store puts: wanted `1`; found `%d`", store.puts)
	}

	// flushing again without modification is a no-op
	if err := fm.Flush(); err != nil {
		t.Fatalf("Flush(): unexpected err: %v", err)
	}
	if store.puts != 1 {
		t.Fatalf("store puts: wanted `1`; found `%d`", store.puts)
	}
}

func TestFreeMap_ReleaseMakesSectorsReallocatable(t *testing.T) {
	fm := New(8, &fakeStore{})

	start, ok := fm.Allocate(8)
	if !ok || start != 0 {
		t.Fatalf("Allocate(8): wanted `0, true`; found `%d, %t`", start, ok)
	}
	if _, ok := fm.Allocate(1); ok {
		t.Fatal("Allocate(1): wanted `false`; found `true`")
	}

	fm.Release(2, 3)
	if wanted, found := Sector(3), fm.FreeCount(); wanted != found {
		t.Fatalf("FreeCount(): wanted `%d`; found `%d`", wanted, found)
	}
	if start, ok := fm.Allocate(3); !ok || start != 2 {
		t.Fatalf("Allocate(3): wanted `2, true`; found `%d, %t`", start, ok)
	}
}

func TestFreeMap_ReserveClaimsSector(t *testing.T) {
	fm := New(4, &fakeStore{})
	fm.Reserve(0)
	fm.Reserve(1)

	// the first allocation must land past the reserved sectors
	if start, ok := fm.Allocate(1); !ok || start != 2 {
		t.Fatalf("Allocate(1): wanted `2, true`; found `%d, %t`", start, ok)
	}
}

func TestFreeMap_LoadRestoresStoredImage(t *testing.T) {
	saved := New(16, &fakeStore{})
	saved.Reserve(0)
	saved.Reserve(1)
	if _, ok := saved.Allocate(3); !ok {
		t.Fatal("Allocate(3): wanted `true`; found `false`")
	}

	store := &fakeStore{}
	fm := New(16, store)
	fm.Load(saved.bitmap.Bytes())

	// the loaded image already matches the store; nothing to flush
	if err := fm.Flush(); err != nil {
		t.Fatalf("Flush(): unexpected err: %v", err)
	}
	if store.puts != 0 {
		t.Fatalf("store puts: wanted `0`; found `%d`", store.puts)
	}

	if wanted, found := Sector(11), fm.FreeCount(); wanted != found {
		t.Fatalf("FreeCount(): wanted `%d`; found `%d`", wanted, found)
	}
	if start, ok := fm.Allocate(1); !ok || start != 5 {
		t.Fatalf("Allocate(1): wanted `5, true`; found `%d, %t`", start, ok)
	}
}
