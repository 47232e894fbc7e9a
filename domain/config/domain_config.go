package config

import (
	"chains/pkg/utils"
)

// BandPolicy decides how adjacent bands of the same type are treated
type BandPolicy string

const (
	// BandPolicyMerge collapses every run of adjacent same-type bands after each mutation
	BandPolicyMerge BandPolicy = "merge"
	// BandPolicyPreserve leaves adjacent same-type bands alone
	BandPolicyPreserve BandPolicy = "preserve"
)

const (
	DefaultIDLength   = 8
	DefaultIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// DomainConfig holds all configurable rules of the chain engine
type DomainConfig struct {
	// Identifier allocation
	IDLength      int    `yaml:"id_length" validate:"gte=1,max=64"`
	IDAlphabet    string `yaml:"id_alphabet" validate:"required,min=2"`
	MaxIDAttempts int    `yaml:"max_id_attempts" validate:"gte=1"`

	// Structure
	BandPolicy       BandPolicy `yaml:"band_policy" validate:"required,oneof=merge preserve"`
	MaxAtomsPerChain int        `yaml:"max_atoms_per_chain" validate:"gte=0"`

	// Number of atoms handed to the content collaborator at once during
	// forUpdate/forRender/delete sweeps
	SweepConcurrency int `yaml:"sweep_concurrency" validate:"gte=1,max=256"`
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		IDLength:      DefaultIDLength,
		IDAlphabet:    DefaultIDAlphabet,
		MaxIDAttempts: 64,

		BandPolicy:       BandPolicyMerge,
		MaxAtomsPerChain: 0, // unlimited

		SweepConcurrency: 1,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxAtomsPerChain = 10000
	config.SweepConcurrency = 8

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Fail fast on allocator trouble while developing
	config.MaxIDAttempts = 8

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Clone returns an independent copy
func (c *DomainConfig) Clone() *DomainConfig {
	clone := *c
	return &clone
}

// MergesBands reports whether adjacent same-type bands are collapsed
func (c *DomainConfig) MergesBands() bool {
	return c.BandPolicy == BandPolicyMerge
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	return utils.ValidateStruct(c)
}
