package aggregates

import (
	"slices"
	"time"

	"chains/domain/core/entities"
	"chains/domain/core/valueobjects"
	"chains/domain/events"
	pkgerrors "chains/pkg/errors"
)

type identified interface {
	ID() string
}

// moveInList moves the element with the given id to position, clamped into
// [0, len-1]. It reports whether the order changed.
func moveInList[T identified](list []T, id string, position int) ([]T, bool) {
	if len(list) == 0 {
		return list, false
	}
	if position < 0 {
		position = 0
	}
	if position >= len(list) {
		position = len(list) - 1
	}

	current := slices.IndexFunc(list, func(item T) bool {
		return valueobjects.SameID(item.ID(), id)
	})
	if current < 0 || current == position {
		return list, false
	}

	item := list[current]
	list = slices.Delete(list, current, current+1)
	list = slices.Insert(list, position, item)
	return list, true
}

// MoveInBand moves an atom to a position inside its own band
func (c *Chain) MoveInBand(atomID string, position int) error {
	bandIdx, _, ok := c.locateAtom(atomID)
	if !ok {
		return pkgerrors.NewNotFoundError("atom", atomID)
	}
	band := c.bands[bandIdx]

	atoms, moved := moveInList(band.Atoms(), atomID, position)
	if !moved {
		return nil
	}

	now := c.bump()
	band.ReplaceAtoms(atoms)
	c.recordAtomMoved(atomID, band, band, now)
	return nil
}

// MoveBand moves a whole band to a position in the chain
func (c *Chain) MoveBand(bandID string, position int) error {
	if !c.HasBand(bandID) {
		return pkgerrors.NewNotFoundError("band", bandID)
	}

	bands, moved := moveInList(c.bands, bandID, position)
	if !moved {
		return nil
	}

	now := c.bump()
	c.bands = bands
	band := c.bands[c.bandIndex(bandID)]
	c.record(events.NewBandMoved(c.id.String(), band.ID(), c.indexOfBand(band), c.version, now))

	c.normalize(now)
	return nil
}

// MoveToBand moves an atom to the end of the given band.
//
// A same-typed target simply receives the atom. Otherwise the atom goes to
// the front of the band following the target when that one has the atom's
// type, and failing that into a band of its own right after the target.
func (c *Chain) MoveToBand(atomID, bandID string) error {
	srcIdx, atomIdx, ok := c.locateAtom(atomID)
	if !ok {
		return pkgerrors.NewNotFoundError("atom", atomID)
	}
	tgtIdx := c.bandIndex(bandID)
	if tgtIdx < 0 {
		return pkgerrors.NewNotFoundError("band", bandID)
	}

	src, tgt := c.bands[srcIdx], c.bands[tgtIdx]
	if src == tgt {
		return c.MoveInBand(atomID, src.Len()-1)
	}

	atom := src.AtomAt(atomIdx)

	if tgt.Accepts(src.Type()) {
		now := c.bump()
		src.RemoveAt(atomIdx)
		tgt.Append(atom)
		c.dropIfEmpty(src, now)
		c.finishMove(atom.ID(), src, tgt, now)
		return nil
	}

	if tgtIdx+1 < len(c.bands) && c.bands[tgtIdx+1].Accepts(src.Type()) {
		next := c.bands[tgtIdx+1]
		now := c.bump()
		src.RemoveAt(atomIdx)
		next.Prepend(atom)
		c.dropIfEmpty(src, now)
		c.finishMove(atom.ID(), src, next, now)
		return nil
	}

	if src.Len() == 1 {
		now := c.bump()
		c.relocateBand(src, func() int { return c.indexOfBand(tgt) + 1 }, now)
		c.finishMove(atom.ID(), src, src, now)
		return nil
	}

	newID, err := c.NewBandID()
	if err != nil {
		return err
	}
	now := c.bump()
	band := c.copyBand(src, newID)
	src.RemoveAt(atomIdx)
	band.Append(atom)
	c.insertBands(c.indexOfBand(tgt)+1, now, band)
	c.finishMove(atom.ID(), src, band, now)
	return nil
}

// MoveToBandAt moves an atom to a position inside the given band, splitting
// the band when the atom's type differs from it.
func (c *Chain) MoveToBandAt(atomID, bandID string, position int) error {
	srcIdx, atomIdx, ok := c.locateAtom(atomID)
	if !ok {
		return pkgerrors.NewNotFoundError("atom", atomID)
	}
	src := c.bands[srcIdx]

	if valueobjects.SameID(src.ID(), bandID) {
		return c.MoveInBand(atomID, position)
	}

	tgtIdx := c.bandIndex(bandID)
	if tgtIdx < 0 {
		return pkgerrors.NewNotFoundError("band", bandID)
	}
	tgt := c.bands[tgtIdx]

	if position >= tgt.Len() {
		return c.MoveToBand(atomID, bandID)
	}
	if position < 0 {
		position = 0
	}

	atom := src.AtomAt(atomIdx)

	if tgt.Accepts(src.Type()) {
		now := c.bump()
		src.RemoveAt(atomIdx)
		c.dropIfEmpty(src, now)
		tgt.Append(atom)
		atoms, _ := moveInList(tgt.Atoms(), atom.ID(), position)
		tgt.ReplaceAtoms(atoms)
		c.finishMove(atom.ID(), src, tgt, now)
		return nil
	}

	if position == 0 {
		if tgtIdx > 0 {
			// Right before the target is the end of the previous band
			return c.MoveToBand(atomID, c.bands[tgtIdx-1].ID())
		}
		return c.moveToFront(src, atomIdx)
	}

	return c.splitInto(src, atomIdx, tgt, position)
}

// moveToFront places the atom at index atomIdx of src in a band at the very
// start of the chain
func (c *Chain) moveToFront(src *entities.Band, atomIdx int) error {
	atom := src.AtomAt(atomIdx)

	if src.Len() == 1 {
		now := c.bump()
		c.relocateBand(src, func() int { return 0 }, now)
		c.finishMove(atom.ID(), src, src, now)
		return nil
	}

	newID, err := c.NewBandID()
	if err != nil {
		return err
	}
	now := c.bump()
	band := c.copyBand(src, newID)
	src.RemoveAt(atomIdx)
	band.Append(atom)
	c.insertBands(0, now, band)
	c.finishMove(atom.ID(), src, band, now)
	return nil
}

// splitInto cuts tgt at position and puts the atom between the two halves
func (c *Chain) splitInto(src *entities.Band, atomIdx int, tgt *entities.Band, position int) error {
	atom := src.AtomAt(atomIdx)

	needed := 1 // second half of the target
	if src.Len() > 1 {
		needed++
	}
	ids, err := c.newBandIDs(needed)
	if err != nil {
		return err
	}

	now := c.bump()

	var carrier *entities.Band
	relocated := src.Len() == 1
	if relocated {
		carrier = src
		c.removeBandAt(c.indexOfBand(src))
	} else {
		carrier = c.copyBand(src, ids[1])
		src.RemoveAt(atomIdx)
		carrier.Append(atom)
	}

	tail := c.copyBand(tgt, ids[0])
	tail.ReplaceAtoms(tgt.SplitAt(position))
	c.record(events.NewBandSplit(c.id.String(), tgt.ID(), tail.ID(), position, c.version, now))

	at := c.indexOfBand(tgt) + 1
	c.bands = slices.Insert(c.bands, at, carrier, tail)
	if relocated {
		c.record(events.NewBandMoved(c.id.String(), carrier.ID(), at, c.version, now))
	} else {
		c.record(events.NewBandCreated(c.id.String(), carrier.ID(), carrier.Type(), at, c.version, now))
	}
	c.record(events.NewBandCreated(c.id.String(), tail.ID(), tail.Type(), at+1, c.version, now))

	c.finishMove(atom.ID(), src, carrier, now)
	return nil
}

// MoveAtom moves an atom to an index of the flattened atom sequence.
// Positions are counted without the moving atom, so after the move the atom
// sits exactly at flatPosition (clamped to the valid range).
func (c *Chain) MoveAtom(atomID string, flatPosition int) error {
	current := c.flatIndexOf(atomID)
	if current < 0 {
		return pkgerrors.NewNotFoundError("atom", atomID)
	}
	flatPosition = min(max(flatPosition, 0), c.AtomCount()-1)
	if flatPosition == current {
		return nil
	}

	var (
		source      *entities.Band
		sourceLocal int
		target      *entities.Band
		targetLocal int
		offset      int
	)

	for _, b := range c.bands {
		size := b.Len()
		if idx := b.IndexOf(atomID); idx >= 0 {
			source, sourceLocal = b, idx
			size--
		}
		if target == nil && flatPosition >= offset && flatPosition < offset+size {
			target, targetLocal = b, flatPosition-offset
		}
		offset += size
	}

	if target == nil {
		return c.MoveToBand(atomID, c.bands[len(c.bands)-1].ID())
	}

	if target == source {
		if targetLocal == sourceLocal {
			return nil
		}
		return c.MoveInBand(atomID, targetLocal)
	}

	return c.MoveToBandAt(atomID, target.ID(), targetLocal)
}

// copyBand creates an empty band sharing type and styles with source
func (c *Chain) copyBand(source *entities.Band, id string) *entities.Band {
	band := entities.NewBand(id, source.Type())
	band.SetStyles(source.Styles())
	return band
}

func (c *Chain) insertBands(at int, now time.Time, bands ...*entities.Band) {
	c.bands = slices.Insert(c.bands, at, bands...)
	for i, b := range bands {
		c.record(events.NewBandCreated(c.id.String(), b.ID(), b.Type(), at+i, c.version, now))
	}
}

func (c *Chain) removeBandAt(i int) {
	c.bands = slices.Delete(c.bands, i, i+1)
}

// relocateBand takes band out of the chain and puts it back at the index
// returned by at, which is evaluated after the removal
func (c *Chain) relocateBand(band *entities.Band, at func() int, now time.Time) {
	c.removeBandAt(c.indexOfBand(band))
	idx := at()
	c.bands = slices.Insert(c.bands, idx, band)
	c.record(events.NewBandMoved(c.id.String(), band.ID(), idx, c.version, now))
}

func (c *Chain) dropIfEmpty(band *entities.Band, now time.Time) {
	if !band.IsEmpty() {
		return
	}
	if idx := c.indexOfBand(band); idx >= 0 {
		c.removeBandAt(idx)
		c.record(events.NewBandRemoved(c.id.String(), band.ID(), c.version, now))
	}
}

// normalize collapses every run of adjacent same-typed bands into its first
// band when the chain merges bands
func (c *Chain) normalize(now time.Time) {
	if !c.cfg.MergesBands() {
		return
	}
	for i := 0; i+1 < len(c.bands); {
		keep, next := c.bands[i], c.bands[i+1]
		if !keep.Accepts(next.Type()) {
			i++
			continue
		}
		keep.Append(next.Atoms()...)
		c.removeBandAt(i + 1)
		c.record(events.NewBandsMerged(c.id.String(), keep.ID(), next.ID(), c.version, now))
	}
}

func (c *Chain) finishMove(atomID string, from, to *entities.Band, now time.Time) {
	c.normalize(now)
	c.recordAtomMoved(atomID, from, to, now)
}

func (c *Chain) recordAtomMoved(atomID string, from, to *entities.Band, now time.Time) {
	toID := to.ID()
	// normalization may have folded the destination into a neighbour
	if band, err := c.GetAtomBand(atomID); err == nil {
		toID = band.ID()
	}
	c.record(events.NewAtomMoved(c.id.String(), atomID, from.ID(), toID, c.flatIndexOf(atomID), c.version, now))
}
