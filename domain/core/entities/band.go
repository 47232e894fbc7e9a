package entities

import (
	"strings"

	"chains/domain/core/valueobjects"
)

// Band is a contiguous run of atoms sharing one type.
// It carries free-form presentation styles.
type Band struct {
	id       string
	bandType string
	styles   map[string]string
	atoms    []*Atom
}

// NewBand creates an empty band with empty styles
func NewBand(id, bandType string) *Band {
	return &Band{
		id:       id,
		bandType: bandType,
		styles:   map[string]string{},
		atoms:    []*Atom{},
	}
}

// ID returns the band's identifier
func (b *Band) ID() string {
	return b.id
}

// Type returns the type shared by every atom of the band
func (b *Band) Type() string {
	return b.bandType
}

// Accepts reports whether an atom of the given type belongs in this band
func (b *Band) Accepts(atomType string) bool {
	return strings.EqualFold(b.bandType, atomType)
}

// Styles returns a copy of the style mapping
func (b *Band) Styles() map[string]string {
	return copyStyles(b.styles)
}

// SetStyles replaces the style mapping wholesale
func (b *Band) SetStyles(styles map[string]string) {
	b.styles = copyStyles(styles)
}

// Atoms returns a copy of the atom sequence
func (b *Band) Atoms() []*Atom {
	atoms := make([]*Atom, len(b.atoms))
	copy(atoms, b.atoms)
	return atoms
}

// ReplaceAtoms sets the atom sequence. The slice is owned by the band afterwards.
func (b *Band) ReplaceAtoms(atoms []*Atom) {
	b.atoms = atoms
}

// Len returns the number of atoms
func (b *Band) Len() int {
	return len(b.atoms)
}

// IsEmpty reports whether the band holds no atoms
func (b *Band) IsEmpty() bool {
	return len(b.atoms) == 0
}

// AtomAt returns the atom at index i
func (b *Band) AtomAt(i int) *Atom {
	return b.atoms[i]
}

// IndexOf returns the index of the atom with the given id, or -1
func (b *Band) IndexOf(atomID string) int {
	for i, a := range b.atoms {
		if valueobjects.SameID(a.ID(), atomID) {
			return i
		}
	}
	return -1
}

// Append adds atoms to the end
func (b *Band) Append(atoms ...*Atom) {
	b.atoms = append(b.atoms, atoms...)
}

// Prepend adds an atom to the front
func (b *Band) Prepend(atom *Atom) {
	b.atoms = append([]*Atom{atom}, b.atoms...)
}

// RemoveAt removes and returns the atom at index i
func (b *Band) RemoveAt(i int) *Atom {
	atom := b.atoms[i]
	b.atoms = append(b.atoms[:i:i], b.atoms[i+1:]...)
	return atom
}

// SplitAt keeps atoms [0, i) and returns the detached tail [i, len)
func (b *Band) SplitAt(i int) []*Atom {
	tail := make([]*Atom, len(b.atoms)-i)
	copy(tail, b.atoms[i:])
	b.atoms = b.atoms[:i:i]
	return tail
}

func (b *Band) String() string {
	return "Band:" + b.id
}

func copyStyles(styles map[string]string) map[string]string {
	out := make(map[string]string, len(styles))
	for k, v := range styles {
		out[k] = v
	}
	return out
}
