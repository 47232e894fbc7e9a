package memory

import (
	"context"
	"sort"
	"sync"

	"chains/domain/core/aggregates"
	pkgerrors "chains/pkg/errors"
)

// ChainRepository keeps live chains in process memory
type ChainRepository struct {
	mu     sync.RWMutex
	chains map[aggregates.ChainID]*aggregates.Chain
}

// NewChainRepository creates an empty repository
func NewChainRepository() *ChainRepository {
	return &ChainRepository{
		chains: make(map[aggregates.ChainID]*aggregates.Chain),
	}
}

// Save stores the chain, replacing any chain with the same id
func (r *ChainRepository) Save(ctx context.Context, chain *aggregates.Chain) error {
	if chain == nil {
		return pkgerrors.NewValidationError("chain cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.chains[chain.ID()] = chain
	return nil
}

// GetByID retrieves a chain by its ID
func (r *ChainRepository) GetByID(ctx context.Context, id aggregates.ChainID) (*aggregates.Chain, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	chain, exists := r.chains[id]
	if !exists {
		return nil, pkgerrors.NewNotFoundError("chain", id.String())
	}
	return chain, nil
}

// Delete forgets a chain. Deleting an unknown chain is not an error.
func (r *ChainRepository) Delete(ctx context.Context, id aggregates.ChainID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.chains, id)
	return nil
}

// List returns the ids of all stored chains in lexical order
func (r *ChainRepository) List(ctx context.Context) ([]aggregates.ChainID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]aggregates.ChainID, 0, len(r.chains))
	for id := range r.chains {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
