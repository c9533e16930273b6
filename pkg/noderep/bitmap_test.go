package noderep

import (
	"sync"
	"testing"
)

func TestAtomicBitmap_SetClearTest(t *testing.T) {
	t.Parallel()

	var b AtomicBitmap

	if b.Test(5) {
		t.Fatalf("bit 5 should start clear")
	}

	b.Set(5)

	if !b.Test(5) {
		t.Fatalf("bit 5 should be set")
	}

	b.Clear(5)

	if b.Test(5) {
		t.Fatalf("bit 5 should be clear again")
	}
}

func TestAtomicBitmap_SpansBothWords(t *testing.T) {
	t.Parallel()

	var b AtomicBitmap

	b.Set(0)
	b.Set(63)
	b.Set(64)
	b.Set(127)

	lo, hi := b.Snapshot()

	if lo != (1<<0)|(1<<63) {
		t.Fatalf("low word = %064b, want bits 0 and 63 set", lo)
	}

	if hi != (1<<0)|(1<<63) {
		t.Fatalf("high word = %064b, want bits 0 and 63 set", hi)
	}
}

func TestAtomicBitmap_OutOfRangePanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on out-of-range bit index")
		}
	}()

	var b AtomicBitmap
	b.Set(128)
}

func TestAtomicBitmap_ConcurrentSetClearIsRaceFree(t *testing.T) {
	t.Parallel()

	var b AtomicBitmap

	var wg sync.WaitGroup

	for i := 0; i < 64; i++ {
		wg.Add(1)

		go func(bit int) {
			defer wg.Done()

			for j := 0; j < 1000; j++ {
				b.Set(bit)
				b.Clear(bit)
			}
		}(i)
	}

	wg.Wait()
}
