package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	TypeChainCreated = "chain.created"
	TypeAtomAdded    = "atom.added"
	TypeAtomRemoved  = "atom.removed"
	TypeAtomMoved    = "atom.moved"
	TypeBandCreated  = "band.created"
	TypeBandRemoved  = "band.removed"
	TypeBandMoved    = "band.moved"
	TypeBandStyled   = "band.styled"
	TypeBandSplit    = "band.split"
	TypeBandsMerged  = "bands.merged"
)

func newBase(chainID, eventType string, version int, at time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: chainID,
		EventType:   eventType,
		Timestamp:   at,
		Version:     version,
	}
}

// Chain Events

// ChainCreated is raised when a new chain is built
type ChainCreated struct {
	BaseEvent
	ChainID string `json:"chain_id"`
}

// NewChainCreated creates a ChainCreated event
func NewChainCreated(chainID string, version int, at time.Time) ChainCreated {
	return ChainCreated{
		BaseEvent: newBase(chainID, TypeChainCreated, version, at),
		ChainID:   chainID,
	}
}

// Atom Events

// AtomAdded is raised when an atom enters the chain
type AtomAdded struct {
	BaseEvent
	AtomID   string `json:"atom_id"`
	AtomType string `json:"atom_type"`
	BandID   string `json:"band_id"`
}

// NewAtomAdded creates an AtomAdded event
func NewAtomAdded(chainID, atomID, atomType, bandID string, version int, at time.Time) AtomAdded {
	return AtomAdded{
		BaseEvent: newBase(chainID, TypeAtomAdded, version, at),
		AtomID:    atomID,
		AtomType:  atomType,
		BandID:    bandID,
	}
}

// AtomRemoved is raised when an atom leaves the chain
type AtomRemoved struct {
	BaseEvent
	AtomID string `json:"atom_id"`
	BandID string `json:"band_id"`
}

// NewAtomRemoved creates an AtomRemoved event
func NewAtomRemoved(chainID, atomID, bandID string, version int, at time.Time) AtomRemoved {
	return AtomRemoved{
		BaseEvent: newBase(chainID, TypeAtomRemoved, version, at),
		AtomID:    atomID,
		BandID:    bandID,
	}
}

// AtomMoved is raised when an atom changes position or band
type AtomMoved struct {
	BaseEvent
	AtomID       string `json:"atom_id"`
	FromBandID   string `json:"from_band_id"`
	ToBandID     string `json:"to_band_id"`
	FlatPosition int    `json:"flat_position"`
}

// NewAtomMoved creates an AtomMoved event
func NewAtomMoved(chainID, atomID, fromBandID, toBandID string, flatPosition, version int, at time.Time) AtomMoved {
	return AtomMoved{
		BaseEvent:    newBase(chainID, TypeAtomMoved, version, at),
		AtomID:       atomID,
		FromBandID:   fromBandID,
		ToBandID:     toBandID,
		FlatPosition: flatPosition,
	}
}

// Band Events

// BandCreated is raised when a band is inserted into the chain
type BandCreated struct {
	BaseEvent
	BandID   string `json:"band_id"`
	BandType string `json:"band_type"`
	Position int    `json:"position"`
}

// NewBandCreated creates a BandCreated event
func NewBandCreated(chainID, bandID, bandType string, position, version int, at time.Time) BandCreated {
	return BandCreated{
		BaseEvent: newBase(chainID, TypeBandCreated, version, at),
		BandID:    bandID,
		BandType:  bandType,
		Position:  position,
	}
}

// BandRemoved is raised when a band is dropped from the chain
type BandRemoved struct {
	BaseEvent
	BandID string `json:"band_id"`
}

// NewBandRemoved creates a BandRemoved event
func NewBandRemoved(chainID, bandID string, version int, at time.Time) BandRemoved {
	return BandRemoved{
		BaseEvent: newBase(chainID, TypeBandRemoved, version, at),
		BandID:    bandID,
	}
}

// BandMoved is raised when a whole band changes position
type BandMoved struct {
	BaseEvent
	BandID   string `json:"band_id"`
	Position int    `json:"position"`
}

// NewBandMoved creates a BandMoved event
func NewBandMoved(chainID, bandID string, position, version int, at time.Time) BandMoved {
	return BandMoved{
		BaseEvent: newBase(chainID, TypeBandMoved, version, at),
		BandID:    bandID,
		Position:  position,
	}
}

// BandStyled is raised when a band's styles are replaced
type BandStyled struct {
	BaseEvent
	BandID string            `json:"band_id"`
	Styles map[string]string `json:"styles"`
}

// NewBandStyled creates a BandStyled event
func NewBandStyled(chainID, bandID string, styles map[string]string, version int, at time.Time) BandStyled {
	return BandStyled{
		BaseEvent: newBase(chainID, TypeBandStyled, version, at),
		BandID:    bandID,
		Styles:    styles,
	}
}

// BandSplit is raised when a band is cut in two
type BandSplit struct {
	BaseEvent
	BandID     string `json:"band_id"`
	TailBandID string `json:"tail_band_id"`
	At         int    `json:"at"`
}

// NewBandSplit creates a BandSplit event
func NewBandSplit(chainID, bandID, tailBandID string, at, version int, ts time.Time) BandSplit {
	return BandSplit{
		BaseEvent:  newBase(chainID, TypeBandSplit, version, ts),
		BandID:     bandID,
		TailBandID: tailBandID,
		At:         at,
	}
}

// BandsMerged is raised when an adjacent band of the same type is absorbed
type BandsMerged struct {
	BaseEvent
	BandID         string `json:"band_id"`
	AbsorbedBandID string `json:"absorbed_band_id"`
}

// NewBandsMerged creates a BandsMerged event
func NewBandsMerged(chainID, bandID, absorbedBandID string, version int, at time.Time) BandsMerged {
	return BandsMerged{
		BaseEvent:      newBase(chainID, TypeBandsMerged, version, at),
		BandID:         bandID,
		AbsorbedBandID: absorbedBandID,
	}
}
