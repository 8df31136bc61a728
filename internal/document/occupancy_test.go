package document

import (
	"errors"
	"testing"

	"github.com/agentic-research/mache-xml/internal/coreerr"
)

func TestOccupancyMarkAndQuery(t *testing.T) {
	o := newOccupancyIndex([]uint64{1, 4})

	if o.Occupied(1, 2) {
		t.Fatalf("slot should start unoccupied")
	}
	if err := o.Mark(1, 2); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if !o.Occupied(1, 2) {
		t.Fatalf("slot should be occupied after Mark")
	}
}

func TestOccupancyMarkBeyondOrderOverflows(t *testing.T) {
	o := newOccupancyIndex([]uint64{1, 4})
	err := o.Mark(1, 4)
	if !errors.Is(err, coreerr.ErrOverflowingLevel) {
		t.Fatalf("Mark at capacity: got %v, want ErrOverflowingLevel", err)
	}
}

func TestOccupancyMarkLevelOutOfRangeOverflows(t *testing.T) {
	o := newOccupancyIndex([]uint64{1})
	err := o.Mark(5, 0)
	if !errors.Is(err, coreerr.ErrOverflowingLevel) {
		t.Fatalf("Mark at unknown level: got %v, want ErrOverflowingLevel", err)
	}
}

func TestOccupancyLastOccupied(t *testing.T) {
	o := newOccupancyIndex([]uint64{1, 10})
	if _, ok := o.LastOccupied(1); ok {
		t.Fatalf("empty level should report no last-occupied slot")
	}
	_ = o.Mark(1, 3)
	_ = o.Mark(1, 7)
	_ = o.Mark(1, 1)
	got, ok := o.LastOccupied(1)
	if !ok || got != 7 {
		t.Fatalf("LastOccupied = (%d, %v), want (7, true)", got, ok)
	}
}

func TestOccupancyNextAndPreviousOccupied(t *testing.T) {
	o := newOccupancyIndex([]uint64{1, 10})
	_ = o.Mark(1, 1)
	_ = o.Mark(1, 4)
	_ = o.Mark(1, 8)

	next, ok := o.NextOccupied(1, 4)
	if !ok || next != 8 {
		t.Fatalf("NextOccupied(4) = (%d, %v), want (8, true)", next, ok)
	}
	if _, ok := o.NextOccupied(1, 8); ok {
		t.Fatalf("NextOccupied past the last slot should report false")
	}

	prev, ok := o.PreviousOccupied(1, 8)
	if !ok || prev != 4 {
		t.Fatalf("PreviousOccupied(8) = (%d, %v), want (4, true)", prev, ok)
	}
	if _, ok := o.PreviousOccupied(1, 1); ok {
		t.Fatalf("PreviousOccupied before the first slot should report false")
	}
}
