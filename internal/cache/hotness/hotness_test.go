package hotness

import (
	"math"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Add(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTrackerForTest(hl time.Duration, maxKeys int) (*Tracker, *fakeClock) {
	fc := &fakeClock{now: time.Unix(0, 0).UTC()}
	tr := New(hl, maxKeys, WithClock(fc.Now))
	return tr, fc
}

func almostEq(t *testing.T, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf("got=%g want=%g (eps=%g)", got, want, eps)
	}
}

func TestIncAndScore_AccumulatesImmediately(t *testing.T) {
	tr, _ := newTrackerForTest(time.Minute, 0)
	key := "h3frame:aggregate:9:params=op=sum"

	for i := 1; i <= 3; i++ {
		tr.Inc(key)
		almostEq(t, tr.Score(key), float64(i), 1e-9)
	}
	if tr.Score("") != 0 || tr.Score("other") != 0 {
		t.Fatalf("unknown keys must score 0")
	}
}

func TestHalfLife_DecaysByHalf(t *testing.T) {
	hl := 2 * time.Second
	tr, fc := newTrackerForTest(hl, 0)

	tr.Inc("k")
	fc.Add(hl)
	almostEq(t, tr.Score("k"), 0.5, 1e-6)
	fc.Add(hl)
	almostEq(t, tr.Score("k"), 0.25, 1e-6)

	tr.Inc("k")
	almostEq(t, tr.Score("k"), 1.25, 1e-6)
}

func TestConcurrency_ManyIncSameKey(t *testing.T) {
	tr, _ := newTrackerForTest(time.Minute, 0)
	const N = 256

	var wg sync.WaitGroup
	wg.Add(N)
	for range N {
		go func() {
			tr.Inc("hot")
			wg.Done()
		}()
	}
	wg.Wait()
	almostEq(t, tr.Score("hot"), N, 1e-9)
}

func TestSweep_DropsColdKeysWhenFull(t *testing.T) {
	tr, fc := newTrackerForTest(time.Second, numShards)
	for i := range 4 * numShards {
		tr.Inc(string(rune('a'+i%26)) + string(rune('A'+i/26)))
	}
	before := tr.Size()
	fc.Add(time.Minute)
	for i := range 4 * numShards {
		tr.Inc(string(rune('0'+i%10)) + string(rune('a'+i/10)))
	}
	if tr.Size() >= before+4*numShards {
		t.Fatalf("cold keys were not swept: before=%d after=%d", before, tr.Size())
	}
}

func TestDecayHelper_Edges(t *testing.T) {
	if got := decay(0, 10, 60); got != 0 {
		t.Fatalf("expected 0, got %g", got)
	}
	if got := decay(5, 0, 60); got != 5 {
		t.Fatalf("expected 5, got %g", got)
	}
	if got := decay(5, 10, 0); got != 5 {
		t.Fatalf("expected 5, got %g", got)
	}
}
