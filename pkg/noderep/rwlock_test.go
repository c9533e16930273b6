package noderep

import (
	"sync"
	"testing"
)

func TestRWLock_WriteThenRead(t *testing.T) {
	t.Parallel()

	l := NewRWLock(0)

	d, unlock := l.Write()
	*d = 42
	unlock()

	d2, unlock2 := l.Read(0)
	defer unlock2()

	if *d2 != 42 {
		t.Fatalf("got %d, want 42", *d2)
	}
}

func TestRWLock_ParallelReadersDoNotBlockEachOther(t *testing.T) {
	t.Parallel()

	l := NewRWLock(7)

	var wg sync.WaitGroup

	results := make([]int, 16)

	for i := 0; i < 16; i++ {
		wg.Add(1)

		go func(tid int) {
			defer wg.Done()

			d, unlock := l.Read(tid)
			defer unlock()

			results[tid] = *d
		}(i)
	}

	wg.Wait()

	for i, v := range results {
		if v != 7 {
			t.Fatalf("reader %d saw %d, want 7", i, v)
		}
	}
}

func TestRWLock_ManyWritersIncrementCorrectly(t *testing.T) {
	t.Parallel()

	l := NewRWLock(0)

	var wg sync.WaitGroup

	const writers = 50
	const perWriter = 200

	for i := 0; i < writers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < perWriter; j++ {
				d, unlock := l.Write()
				*d++
				unlock()
			}
		}()
	}

	wg.Wait()

	d, unlock := l.Read(0)
	defer unlock()

	if *d != writers*perWriter {
		t.Fatalf("got %d, want %d", *d, writers*perWriter)
	}
}

func TestRWLock_ReaderIDOutOfRangePanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on out-of-range reader id")
		}
	}()

	l := NewRWLock(0)
	l.Read(maxReaderThreads)
}
