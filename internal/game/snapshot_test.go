package game

import "testing"

func TestSnapshotPoolUnpublishedIsInvisible(t *testing.T) {
	pool := NewSnapshotPool()

	if pool.AcquireRead().Sequence != 0 {
		t.Error("Fresh pool exposes a published snapshot")
	}

	w := pool.AcquireWrite()
	w.TickNumber = 7
	// Not published yet: readers keep seeing sequence 0
	if pool.AcquireRead().Sequence != 0 {
		t.Error("Unpublished write visible to readers")
	}
}

func TestSnapshotPoolPublishAdvancesSequence(t *testing.T) {
	pool := NewSnapshotPool()

	var last uint64
	for i := 0; i < 5; i++ {
		w := pool.AcquireWrite()
		w.TickNumber = uint64(i)
		pool.PublishWrite()

		r := pool.AcquireRead()
		if r.Sequence <= last {
			t.Fatalf("Sequence not monotonic: %d after %d", r.Sequence, last)
		}
		if r.TickNumber != uint64(i) {
			t.Errorf("Read tick %d, want %d", r.TickNumber, i)
		}
		last = r.Sequence
	}
}

func TestSnapshotPoolWriterNeverClobbersReader(t *testing.T) {
	pool := NewSnapshotPool()

	w := pool.AcquireWrite()
	w.TickNumber = 1
	pool.PublishWrite()
	published := pool.AcquireRead()

	// Two writes without publishing rotate through the other buffers
	for i := 0; i < 2; i++ {
		next := pool.AcquireWrite()
		if next == published {
			t.Fatal("Writer acquired the buffer a reader holds")
		}
		next.TickNumber = uint64(10 + i)
	}

	if published.TickNumber != 1 {
		t.Errorf("Reader's snapshot mutated: tick %d", published.TickNumber)
	}
}

func TestSnapshotObstacleCapacity(t *testing.T) {
	pool := NewSnapshotPool()
	w := pool.AcquireWrite()

	max := MaxSnapshotCars + MaxSnapshotDrones + MaxSnapshotPedestrians
	if cap(w.Obstacles) < max {
		t.Errorf("Obstacle capacity %d below cap budget %d", cap(w.Obstacles), max)
	}
}
