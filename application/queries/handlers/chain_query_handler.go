package handlers

import (
	"context"

	"go.uber.org/zap"

	"chains/application/ports"
	"chains/application/queries"
	"chains/application/queries/bus"
	"chains/domain/core/aggregates"
	"chains/pkg/common"
	pkgerrors "chains/pkg/errors"
)

// ChainLocker serializes access to one chain. The command bus holds the same
// lock while an edit runs, so views are never built from a half-applied edit.
type ChainLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// ChainQueryHandler serves read models of stored chains
type ChainQueryHandler struct {
	chains ports.ChainRepository
	locks  ChainLocker
	logger *zap.Logger
}

// NewChainQueryHandler creates a new chain query handler. A nil locker
// leaves serialization against edits to the caller.
func NewChainQueryHandler(chains ports.ChainRepository, locks ChainLocker, logger *zap.Logger) *ChainQueryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainQueryHandler{
		chains: chains,
		locks:  locks,
		logger: logger,
	}
}

// Register registers every chain query on the bus
func (h *ChainQueryHandler) Register(b *bus.QueryBus) error {
	if err := b.Register(queries.GetChainQuery{}, bus.HandlerFor(h.GetChain)); err != nil {
		return err
	}
	return b.Register(queries.ListChainsQuery{}, bus.HandlerFor(h.ListChains))
}

// GetChain builds the read model of one chain
func (h *ChainQueryHandler) GetChain(ctx context.Context, query queries.GetChainQuery) (*queries.ChainView, error) {
	var view *queries.ChainView
	err := h.withChain(ctx, aggregates.ChainID(query.ChainID), func(chain *aggregates.Chain) {
		view = viewOf(chain)
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListChains returns one page of chain summaries ordered by id
func (h *ChainQueryHandler) ListChains(ctx context.Context, query queries.ListChainsQuery) (*queries.ListChainsResult, error) {
	ids, err := h.chains.List(ctx)
	if err != nil {
		return nil, err
	}

	page := query.PaginationParams.Normalize()
	start, end := page.Window(len(ids))

	summaries := make([]queries.ChainSummary, 0, end-start)
	for _, id := range ids[start:end] {
		err := h.withChain(ctx, id, func(chain *aggregates.Chain) {
			summaries = append(summaries, queries.ChainSummary{
				ID:        chain.ID().String(),
				Version:   chain.Version(),
				AtomCount: chain.AtomCount(),
				BandCount: chain.BandCount(),
			})
		})
		if pkgerrors.IsNotFound(err) {
			// removed between List and GetByID
			h.logger.Debug("Skipping vanished chain", zap.String("chainID", id.String()))
			continue
		}
		if err != nil {
			return nil, err
		}
	}

	return &queries.ListChainsResult{
		Chains:     summaries,
		Pagination: common.BuildPaginationMeta(page.Page, page.PageSize, len(ids)),
	}, nil
}

// withChain runs read under the chain's lock
func (h *ChainQueryHandler) withChain(ctx context.Context, id aggregates.ChainID, read func(*aggregates.Chain)) error {
	if h.locks != nil {
		unlock, err := h.locks.Lock(ctx, id.String())
		if err != nil {
			return err
		}
		defer unlock()
	}

	chain, err := h.chains.GetByID(ctx, id)
	if err != nil {
		return err
	}
	read(chain)
	return nil
}

func viewOf(chain *aggregates.Chain) *queries.ChainView {
	view := &queries.ChainView{
		ID:        chain.ID().String(),
		Version:   chain.Version(),
		Layout:    chain.Layout(),
		AtomCount: chain.AtomCount(),
		Bands:     make([]queries.BandView, 0, chain.BandCount()),
		CreatedAt: chain.CreatedAt(),
		UpdatedAt: chain.UpdatedAt(),
	}
	for _, band := range chain.Bands() {
		atoms := make([]string, 0, band.Len())
		for _, atom := range band.Atoms() {
			atoms = append(atoms, atom.ID())
		}
		view.Bands = append(view.Bands, queries.BandView{
			ID:     band.ID(),
			Type:   band.Type(),
			Styles: band.Styles(),
			Atoms:  atoms,
		})
	}
	return view
}
