package commands

import (
	"chains/application/ports"
	"chains/pkg/utils"
)

// CreateChainCommand builds a new empty chain and stores it
type CreateChainCommand struct {
	// ChainID is optional and is filled in by the handler
	ChainID string `json:"chain_id,omitempty"`
}

func (c *CreateChainCommand) Validate() error { return nil }

// PushAtomCommand builds an atom and appends it to a chain, or to a
// specific band when BandID is set
type PushAtomCommand struct {
	ChainID string         `json:"chain_id" validate:"required"`
	BandID  string         `json:"band_id,omitempty"`
	Data    ports.PushData `json:"data"`
}

func (c PushAtomCommand) Validate() error  { return utils.ValidateStruct(c) }
func (c PushAtomCommand) ChainKey() string { return c.ChainID }

// DeleteAtomCommand destroys an atom's content and unlinks it
type DeleteAtomCommand struct {
	ChainID string `json:"chain_id" validate:"required"`
	AtomID  string `json:"atom_id" validate:"required"`
}

func (c DeleteAtomCommand) Validate() error  { return utils.ValidateStruct(c) }
func (c DeleteAtomCommand) ChainKey() string { return c.ChainID }

// MoveInBandCommand reorders an atom inside its band
type MoveInBandCommand struct {
	ChainID  string `json:"chain_id" validate:"required"`
	AtomID   string `json:"atom_id" validate:"required"`
	Position int    `json:"position"`
}

func (c MoveInBandCommand) Validate() error  { return utils.ValidateStruct(c) }
func (c MoveInBandCommand) ChainKey() string { return c.ChainID }

// MoveBandCommand reorders a band inside the chain
type MoveBandCommand struct {
	ChainID  string `json:"chain_id" validate:"required"`
	BandID   string `json:"band_id" validate:"required"`
	Position int    `json:"position"`
}

func (c MoveBandCommand) Validate() error  { return utils.ValidateStruct(c) }
func (c MoveBandCommand) ChainKey() string { return c.ChainID }

// MoveToBandCommand moves an atom into another band. Without a position the
// atom goes to the end of the band.
type MoveToBandCommand struct {
	ChainID  string `json:"chain_id" validate:"required"`
	AtomID   string `json:"atom_id" validate:"required"`
	BandID   string `json:"band_id" validate:"required"`
	Position *int   `json:"position,omitempty"`
}

func (c MoveToBandCommand) Validate() error  { return utils.ValidateStruct(c) }
func (c MoveToBandCommand) ChainKey() string { return c.ChainID }

// MoveAtomCommand moves an atom to a flat position
type MoveAtomCommand struct {
	ChainID  string `json:"chain_id" validate:"required"`
	AtomID   string `json:"atom_id" validate:"required"`
	Position int    `json:"position"`
}

func (c MoveAtomCommand) Validate() error  { return utils.ValidateStruct(c) }
func (c MoveAtomCommand) ChainKey() string { return c.ChainID }

// SetBandStyleCommand replaces a band's styles
type SetBandStyleCommand struct {
	ChainID string            `json:"chain_id" validate:"required"`
	BandID  string            `json:"band_id" validate:"required"`
	Styles  map[string]string `json:"styles" validate:"dive,keys,required,endkeys"`
}

func (c SetBandStyleCommand) Validate() error  { return utils.ValidateStruct(c) }
func (c SetBandStyleCommand) ChainKey() string { return c.ChainID }

// SweepOp names a lifecycle sweep over all atoms of a chain
type SweepOp string

const (
	SweepForUpdate SweepOp = "update"
	SweepForRender SweepOp = "render"
	SweepDelete    SweepOp = "delete"
)

// SweepChainCommand runs a lifecycle sweep. A delete sweep also forgets the chain.
type SweepChainCommand struct {
	ChainID string  `json:"chain_id" validate:"required"`
	Op      SweepOp `json:"op" validate:"required,oneof=update render delete"`
}

func (c SweepChainCommand) Validate() error  { return utils.ValidateStruct(c) }
func (c SweepChainCommand) ChainKey() string { return c.ChainID }
