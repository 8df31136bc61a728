package document

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/mache-xml/internal/coreerr"
)

// occupancyIndex tracks which sibling slots are filled at each tree level,
// keyed by sibling-index-within-level rather than raw GID so the bitmaps
// stay dense regardless of how sparse a level's GID range is (D2).
type occupancyIndex struct {
	order   []uint64
	bitmaps []*roaring.Bitmap
}

func newOccupancyIndex(order []uint64) *occupancyIndex {
	bitmaps := make([]*roaring.Bitmap, len(order))
	for i := range bitmaps {
		bitmaps[i] = roaring.New()
	}
	return &occupancyIndex{order: order, bitmaps: bitmaps}
}

// Mark records siblingIndex as occupied at level, failing with
// ErrOverflowingLevel if the index exceeds the level's frozen order.
func (o *occupancyIndex) Mark(level, siblingIndex int) error {
	if level < 0 || level >= len(o.order) {
		return fmt.Errorf("document: occupancy mark: level %d out of range: %w", level, coreerr.ErrOverflowingLevel)
	}
	if uint64(siblingIndex) >= o.order[level] {
		return fmt.Errorf("document: occupancy mark: level %d sibling index %d exceeds order %d: %w",
			level, siblingIndex, o.order[level], coreerr.ErrOverflowingLevel)
	}
	o.bitmaps[level].Add(uint32(siblingIndex))
	return nil
}

// Occupied answers whether siblingIndex is filled at level, with no page
// fetch.
func (o *occupancyIndex) Occupied(level, siblingIndex int) bool {
	if level < 0 || level >= len(o.bitmaps) {
		return false
	}
	return o.bitmaps[level].Contains(uint32(siblingIndex))
}

// LastOccupied returns the highest occupied sibling index at level, and
// false if the level has no occupied slots.
func (o *occupancyIndex) LastOccupied(level int) (int, bool) {
	if level < 0 || level >= len(o.bitmaps) {
		return 0, false
	}
	bm := o.bitmaps[level]
	if bm.IsEmpty() {
		return 0, false
	}
	return int(bm.Maximum()), true
}

// NextOccupied returns the smallest occupied sibling index strictly greater
// than siblingIndex at level, and false if none exists.
func (o *occupancyIndex) NextOccupied(level, siblingIndex int) (int, bool) {
	if level < 0 || level >= len(o.bitmaps) {
		return 0, false
	}
	it := o.bitmaps[level].Iterator()
	it.AdvanceIfNeeded(uint32(siblingIndex + 1))
	if !it.HasNext() {
		return 0, false
	}
	return int(it.Next()), true
}

// PreviousOccupied returns the largest occupied sibling index strictly less
// than siblingIndex at level, and false if none exists.
func (o *occupancyIndex) PreviousOccupied(level, siblingIndex int) (int, bool) {
	if level < 0 || level >= len(o.bitmaps) {
		return 0, false
	}
	bm := o.bitmaps[level]
	best := -1
	it := bm.Iterator()
	for it.HasNext() {
		v := int(it.Next())
		if v >= siblingIndex {
			break
		}
		best = v
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}
