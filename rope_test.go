package opentui

import (
	"math/bits"
	"strconv"
	"testing"
)

// countMetric is the simplest possible Metrics: an item count, used to
// exercise the rope's generic machinery without pulling in textbuffer's
// line metrics.
type countMetric int

func (c countMetric) Add(o Metrics) Metrics { return c + o.(countMetric) }
func (c countMetric) Weight() int           { return int(c) }

type testItem struct {
	val    int
	marker string
}

func (i testItem) Measure() Metrics      { return countMetric(1) }
func (i testItem) IsEmpty() bool         { return false }
func (i testItem) MarkerVariant() string { return i.marker }

func items(n int) []testItem {
	out := make([]testItem, n)
	for i := range out {
		out[i] = testItem{val: i}
	}
	return out
}

func TestRope(t *testing.T) {
	t.Run("EmptyRope", func(t *testing.T) {
		r := NewRope[testItem]()
		if r.Len() != 0 || !r.IsEmpty() {
			t.Fatal("expected a fresh rope to be empty")
		}
		if r.Measure() != nil {
			t.Error("expected nil Measure on an empty rope")
		}
	})

	t.Run("FromSlicePreservesOrder", func(t *testing.T) {
		r := FromSlice(items(20))
		if r.Len() != 20 {
			t.Fatalf("expected len 20, got %d", r.Len())
		}
		for i := 0; i < 20; i++ {
			got, ok := r.At(i)
			if !ok || got.val != i {
				t.Fatalf("At(%d) = %v, ok=%v", i, got, ok)
			}
		}
	})

	t.Run("HeightIsLogarithmic", func(t *testing.T) {
		r := FromSlice(items(1000))
		// height should stay within a small constant multiple of log2(n/leafMax).
		maxHeight := bits.Len(uint(1000/ropeLeafMax)) + 4
		if r.Height() > maxHeight {
			t.Errorf("expected height <= %d for 1000 items, got %d", maxHeight, r.Height())
		}
	})

	t.Run("HeightStaysLogarithmicAfterMutation", func(t *testing.T) {
		r := NewRope[testItem]()
		for i := 0; i < 1000; i++ {
			r.Insert(r.Len()/2, testItem{val: i}) // repeatedly split the tree down the middle
		}
		maxHeight := bits.Len(uint(1000/ropeLeafMax)) + 4
		if r.Height() > maxHeight {
			t.Errorf("expected height <= %d after 1000 inserts, got %d", maxHeight, r.Height())
		}
		for i := 0; i < 1000; i += 31 {
			r.Delete(i % r.Len())
		}
		if r.Height() > maxHeight {
			t.Errorf("expected height <= %d after interleaved deletes, got %d", maxHeight, r.Height())
		}
	})

	t.Run("InsertAndDelete", func(t *testing.T) {
		r := FromSlice(items(5))
		r.Insert(2, testItem{val: 99})
		if got, _ := r.At(2); got.val != 99 {
			t.Fatalf("expected inserted item at index 2, got %v", got)
		}
		if r.Len() != 6 {
			t.Fatalf("expected len 6 after insert, got %d", r.Len())
		}
		r.Delete(2)
		if got, _ := r.At(2); got.val != 2 {
			t.Fatalf("expected original item restored at index 2, got %v", got)
		}
	})

	t.Run("AppendGrowsAtEnd", func(t *testing.T) {
		r := NewRope[testItem]()
		for i := 0; i < 10; i++ {
			r.Append(testItem{val: i})
		}
		last, ok := r.At(9)
		if !ok || last.val != 9 {
			t.Fatalf("expected last item val 9, got %v ok=%v", last, ok)
		}
	})

	t.Run("AtOutOfRange", func(t *testing.T) {
		r := FromSlice(items(3))
		if _, ok := r.At(-1); ok {
			t.Error("expected At(-1) to fail")
		}
		if _, ok := r.At(3); ok {
			t.Error("expected At(len) to fail")
		}
	})

	t.Run("MarkerCountAndGetMarker", func(t *testing.T) {
		its := items(10)
		for i := range its {
			if i%3 == 0 {
				its[i].marker = "tick"
			}
		}
		r := FromSlice(its)
		if got := r.MarkerCount("tick"); got != 4 { // 0,3,6,9
			t.Fatalf("expected 4 ticks, got %d", got)
		}
		item, idx, ok := r.GetMarker("tick", 2)
		if !ok || idx != 6 || item.val != 6 {
			t.Fatalf("expected third tick at index 6, got item=%v idx=%d ok=%v", item, idx, ok)
		}
	})

	t.Run("GetMarkerOutOfRange", func(t *testing.T) {
		r := FromSlice(items(5))
		if _, _, ok := r.GetMarker("tick", 0); ok {
			t.Error("expected no markers to report not-found")
		}
	})

	t.Run("FindByMetricLocatesThreshold", func(t *testing.T) {
		r := FromSlice(items(30))
		idx := FindByMetric(r, func(cum Metrics) bool {
			return int(cum.(countMetric)) >= 15
		})
		if idx != 14 {
			t.Fatalf("expected index 14 (15th item, 0-based), got %d", idx)
		}
	})

	t.Run("FindByMetricNeverTriggersOnEmpty", func(t *testing.T) {
		r := NewRope[testItem]()
		idx := FindByMetric(r, func(Metrics) bool { return true })
		if idx != -1 {
			t.Errorf("expected -1 for an empty rope, got %d", idx)
		}
	})

	t.Run("LargeRopeRoundTrips", func(t *testing.T) {
		n := 500
		its := make([]testItem, n)
		for i := range its {
			its[i] = testItem{val: i, marker: strconv.Itoa(i % 7)}
		}
		r := FromSlice(its)
		for i := 0; i < n; i += 37 {
			got, ok := r.At(i)
			if !ok || got.val != i {
				t.Fatalf("At(%d) = %v, ok=%v", i, got, ok)
			}
		}
	})
}
