package aggregates

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"chains/domain/config"
	"chains/domain/core/entities"
	"chains/domain/core/valueobjects"
	"chains/domain/events"
	pkgerrors "chains/pkg/errors"
)

// ChainID represents a unique chain identifier
type ChainID string

// NewChainID creates a new random ChainID
func NewChainID() ChainID {
	return ChainID(uuid.New().String())
}

// String returns the string representation
func (id ChainID) String() string {
	return string(id)
}

// Chain is the aggregate root of a document: an ordered list of bands,
// each an ordered run of same-typed atoms.
// It holds no locks; callers serialize edits to the same chain.
type Chain struct {
	id        ChainID
	bands     []*entities.Band
	cfg       *config.DomainConfig
	ids       *valueobjects.IDAllocator
	createdAt time.Time
	updatedAt time.Time
	version   int
	events    []events.DomainEvent
}

// NewChain creates a new empty chain
func NewChain(cfg *config.DomainConfig) *Chain {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	now := time.Now()
	chain := &Chain{
		id:        NewChainID(),
		bands:     []*entities.Band{},
		cfg:       cfg,
		ids:       valueobjects.NewIDAllocator(cfg),
		createdAt: now,
		updatedAt: now,
		version:   1,
		events:    []events.DomainEvent{},
	}

	chain.record(events.NewChainCreated(chain.id.String(), chain.version, now))

	return chain
}

// ReconstructChain recreates a chain from stored bands.
// The bands are taken as they are; no normalization is applied.
func ReconstructChain(id ChainID, bands []*entities.Band, cfg *config.DomainConfig) (*Chain, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("chain id required for reconstruction")
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	now := time.Now()
	chain := &Chain{
		id:        id,
		bands:     append([]*entities.Band{}, bands...),
		cfg:       cfg,
		ids:       valueobjects.NewIDAllocator(cfg),
		createdAt: now,
		updatedAt: now,
		version:   1,
		events:    []events.DomainEvent{},
	}

	if err := chain.Validate(); err != nil {
		return nil, err
	}

	return chain, nil
}

// WithAllocator replaces the id allocator
func (c *Chain) WithAllocator(ids *valueobjects.IDAllocator) *Chain {
	c.ids = ids
	return c
}

// ID returns the chain's unique identifier
func (c *Chain) ID() ChainID {
	return c.id
}

// Config returns the domain configuration the chain was built with
func (c *Chain) Config() *config.DomainConfig {
	return c.cfg
}

// Version is incremented on every structural mutation
func (c *Chain) Version() int {
	return c.version
}

// CreatedAt returns when the chain was created
func (c *Chain) CreatedAt() time.Time {
	return c.createdAt
}

// UpdatedAt returns when the chain was last mutated
func (c *Chain) UpdatedAt() time.Time {
	return c.updatedAt
}

// Bands returns the bands in order
func (c *Chain) Bands() []*entities.Band {
	bands := make([]*entities.Band, len(c.bands))
	copy(bands, c.bands)
	return bands
}

// BandCount returns the number of bands
func (c *Chain) BandCount() int {
	return len(c.bands)
}

// Atoms returns the flattened atom sequence
func (c *Chain) Atoms() []*entities.Atom {
	atoms := make([]*entities.Atom, 0, c.AtomCount())
	for _, b := range c.bands {
		atoms = append(atoms, b.Atoms()...)
	}
	return atoms
}

// AtomCount returns the total number of atoms across bands
func (c *Chain) AtomCount() int {
	n := 0
	for _, b := range c.bands {
		n += b.Len()
	}
	return n
}

// Layout renders the band structure as [id:type(atom,atom)]...
func (c *Chain) Layout() string {
	var sb strings.Builder
	for _, b := range c.bands {
		ids := make([]string, 0, b.Len())
		for _, a := range b.Atoms() {
			ids = append(ids, a.ID())
		}
		fmt.Fprintf(&sb, "[%s:%s(%s)]", b.ID(), b.Type(), strings.Join(ids, ","))
	}
	return sb.String()
}

// Lookups

// GetAtom retrieves an atom by id
func (c *Chain) GetAtom(atomID string) (*entities.Atom, error) {
	bandIdx, atomIdx, ok := c.locateAtom(atomID)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("atom", atomID)
	}
	return c.bands[bandIdx].AtomAt(atomIdx), nil
}

// GetBand retrieves a band by id
func (c *Chain) GetBand(bandID string) (*entities.Band, error) {
	idx := c.bandIndex(bandID)
	if idx < 0 {
		return nil, pkgerrors.NewNotFoundError("band", bandID)
	}
	return c.bands[idx], nil
}

// GetAtomBand returns the band an atom belongs to
func (c *Chain) GetAtomBand(atomID string) (*entities.Band, error) {
	bandIdx, _, ok := c.locateAtom(atomID)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("atom", atomID)
	}
	return c.bands[bandIdx], nil
}

// HasAtom checks if an atom id is used anywhere in the chain
func (c *Chain) HasAtom(atomID string) bool {
	_, _, ok := c.locateAtom(atomID)
	return ok
}

// HasBand checks if a band id is used in the chain
func (c *Chain) HasBand(bandID string) bool {
	return c.bandIndex(bandID) >= 0
}

// Identifier allocation

// NewAtomID returns a random id not used by any atom of the chain
func (c *Chain) NewAtomID() (string, error) {
	return c.ids.Next("atom", c.HasAtom)
}

// NewBandID returns a random id not used by any band of the chain
func (c *Chain) NewBandID() (string, error) {
	ids, err := c.newBandIDs(1)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// newBandIDs reserves n distinct band ids before any of them is inserted
func (c *Chain) newBandIDs(n int) ([]string, error) {
	ids := make([]string, 0, n)
	for len(ids) < n {
		id, err := c.ids.Next("band", func(candidate string) bool {
			if c.HasBand(candidate) {
				return true
			}
			for _, reserved := range ids {
				if valueobjects.SameID(reserved, candidate) {
					return true
				}
			}
			return false
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Atom membership

// AddAtom appends an atom to the last band when the types match,
// otherwise to a new band at the end of the chain
func (c *Chain) AddAtom(atom *entities.Atom) error {
	if err := c.checkInsertable(atom); err != nil {
		return err
	}

	var band *entities.Band
	if n := len(c.bands); n > 0 && c.bands[n-1].Accepts(atom.Type()) {
		band = c.bands[n-1]
	}

	var newBandID string
	if band == nil {
		id, err := c.NewBandID()
		if err != nil {
			return err
		}
		newBandID = id
	}

	now := c.bump()
	if band == nil {
		band = entities.NewBand(newBandID, atom.Type())
		c.bands = append(c.bands, band)
		c.record(events.NewBandCreated(c.id.String(), band.ID(), band.Type(), len(c.bands)-1, c.version, now))
	}
	band.Append(atom)
	c.record(events.NewAtomAdded(c.id.String(), atom.ID(), atom.Type(), band.ID(), c.version, now))

	c.normalize(now)
	return nil
}

// AppendToBand puts an atom at the end of a specific band. When the band's
// type differs, the atom goes to the front of the band after it if that one
// accepts the type, otherwise into a new band right after it.
func (c *Chain) AppendToBand(atom *entities.Atom, bandID string) error {
	if err := c.checkInsertable(atom); err != nil {
		return err
	}
	tgtIdx := c.bandIndex(bandID)
	if tgtIdx < 0 {
		return pkgerrors.NewNotFoundError("band", bandID)
	}

	band := c.bands[tgtIdx]
	var newBandID string
	switch {
	case band.Accepts(atom.Type()):
	case tgtIdx+1 < len(c.bands) && c.bands[tgtIdx+1].Accepts(atom.Type()):
		band = c.bands[tgtIdx+1]
	default:
		id, err := c.NewBandID()
		if err != nil {
			return err
		}
		newBandID = id
	}

	now := c.bump()
	switch {
	case newBandID != "":
		band = entities.NewBand(newBandID, atom.Type())
		band.Append(atom)
		c.insertBands(tgtIdx+1, now, band)
	case band == c.bands[tgtIdx]:
		band.Append(atom)
	default:
		band.Prepend(atom)
	}
	c.record(events.NewAtomAdded(c.id.String(), atom.ID(), atom.Type(), band.ID(), c.version, now))

	c.normalize(now)
	return nil
}

// RemoveAtom unlinks an atom; a band left empty is removed from the chain
func (c *Chain) RemoveAtom(atomID string) (*entities.Atom, error) {
	bandIdx, atomIdx, ok := c.locateAtom(atomID)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("atom", atomID)
	}

	now := c.bump()
	band := c.bands[bandIdx]
	atom := band.RemoveAt(atomIdx)
	c.record(events.NewAtomRemoved(c.id.String(), atom.ID(), band.ID(), c.version, now))
	c.dropIfEmpty(band, now)

	c.normalize(now)
	return atom, nil
}

// SetBandStyle replaces a band's styles wholesale
func (c *Chain) SetBandStyle(bandID string, styles map[string]string) error {
	band, err := c.GetBand(bandID)
	if err != nil {
		return err
	}

	now := c.bump()
	band.SetStyles(styles)
	c.record(events.NewBandStyled(c.id.String(), band.ID(), band.Styles(), c.version, now))
	return nil
}

// Validate ensures chain invariants
func (c *Chain) Validate() error {
	atomIDs := make(map[string]string)
	bandIDs := make(map[string]bool)

	for i, b := range c.bands {
		if b == nil {
			return pkgerrors.NewValidationError(fmt.Sprintf("band at position %d is nil", i))
		}
		key := strings.ToLower(b.ID())
		if bandIDs[key] {
			return pkgerrors.NewValidationError("duplicate band id " + b.ID())
		}
		bandIDs[key] = true

		if b.IsEmpty() {
			return pkgerrors.NewValidationError("band " + b.ID() + " is empty")
		}

		for _, a := range b.Atoms() {
			akey := strings.ToLower(a.ID())
			if other, dup := atomIDs[akey]; dup {
				return pkgerrors.NewValidationError(
					fmt.Sprintf("duplicate atom id %s in bands %s and %s", a.ID(), other, b.ID()))
			}
			atomIDs[akey] = b.ID()

			if !b.Accepts(a.Type()) {
				return pkgerrors.NewValidationError(
					fmt.Sprintf("atom %s of type %s in band %s of type %s", a.ID(), a.Type(), b.ID(), b.Type()))
			}
		}
	}

	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (c *Chain) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(c.events))
	copy(out, c.events)
	return out
}

// MarkEventsAsCommitted clears all uncommitted events
func (c *Chain) MarkEventsAsCommitted() {
	c.events = []events.DomainEvent{}
}

// Private helper methods

func (c *Chain) checkInsertable(atom *entities.Atom) error {
	if atom == nil {
		return pkgerrors.NewValidationError("atom cannot be nil")
	}
	if atom.ID() == "" {
		return pkgerrors.NewValidationError("atom id cannot be empty")
	}
	if c.HasAtom(atom.ID()) {
		return pkgerrors.NewNotUniqueIDError(atom.ID())
	}
	if limit := c.cfg.MaxAtomsPerChain; limit > 0 && c.AtomCount() >= limit {
		return pkgerrors.NewValidationError(fmt.Sprintf("maximum atoms reached: %d", limit))
	}
	return nil
}

func (c *Chain) locateAtom(atomID string) (bandIdx, atomIdx int, ok bool) {
	for i, b := range c.bands {
		if j := b.IndexOf(atomID); j >= 0 {
			return i, j, true
		}
	}
	return -1, -1, false
}

func (c *Chain) bandIndex(bandID string) int {
	for i, b := range c.bands {
		if valueobjects.SameID(b.ID(), bandID) {
			return i
		}
	}
	return -1
}

func (c *Chain) indexOfBand(band *entities.Band) int {
	for i, b := range c.bands {
		if b == band {
			return i
		}
	}
	return -1
}

func (c *Chain) flatIndexOf(atomID string) int {
	offset := 0
	for _, b := range c.bands {
		if j := b.IndexOf(atomID); j >= 0 {
			return offset + j
		}
		offset += b.Len()
	}
	return -1
}

func (c *Chain) bump() time.Time {
	now := time.Now()
	c.updatedAt = now
	c.version++
	return now
}

func (c *Chain) record(event events.DomainEvent) {
	c.events = append(c.events, event)
}
