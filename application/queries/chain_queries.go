package queries

import (
	"time"

	"chains/pkg/common"
	"chains/pkg/utils"
)

// GetChainQuery represents a query to read one chain's structure
type GetChainQuery struct {
	ChainID string `json:"chain_id" validate:"required"`
}

// Validate validates the query
func (q GetChainQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// ChainView is a read model of a chain
type ChainView struct {
	ID        string     `json:"id" yaml:"id"`
	Version   int        `json:"version" yaml:"version"`
	Layout    string     `json:"layout" yaml:"layout"`
	AtomCount int        `json:"atom_count" yaml:"atom_count"`
	Bands     []BandView `json:"bands" yaml:"bands"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"updated_at"`
}

// BandView is a read model of one band
type BandView struct {
	ID     string            `json:"id" yaml:"id"`
	Type   string            `json:"type" yaml:"type"`
	Styles map[string]string `json:"styles,omitempty" yaml:"styles,omitempty"`
	Atoms  []string          `json:"atoms" yaml:"atoms"`
}

// ListChainsQuery represents a query to page through stored chains
type ListChainsQuery struct {
	common.PaginationParams
}

// Validate validates the query
func (q ListChainsQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// ListChainsResult represents one page of chain summaries
type ListChainsResult struct {
	Chains     []ChainSummary         `json:"chains"`
	Pagination *common.PaginationInfo `json:"pagination"`
}

// ChainSummary represents a summary of a chain
type ChainSummary struct {
	ID        string `json:"id"`
	Version   int    `json:"version"`
	AtomCount int    `json:"atom_count"`
	BandCount int    `json:"band_count"`
}
