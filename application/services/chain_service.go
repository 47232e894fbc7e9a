package services

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chains/application/ports"
	"chains/domain/config"
	"chains/domain/core/aggregates"
	"chains/domain/core/entities"
	pkgerrors "chains/pkg/errors"
	"chains/pkg/utils"
)

// ChainService composes the chain engine with the atom content collaborator.
// Content lifecycle goes to the AtomManager, structure goes to the Chain.
//
// Like the Chain itself the service holds no per-chain locks; callers
// serialize edits to one chain (the command bus does this for them).
type ChainService struct {
	atoms     ports.AtomManager
	publisher ports.EventPublisher
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

// NewChainService creates a new chain service
func NewChainService(
	atoms ports.AtomManager,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *ChainService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainService{
		atoms:     atoms,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// BuildChain produces a new, empty chain
func (s *ChainService) BuildChain(ctx context.Context) *aggregates.Chain {
	chain := aggregates.NewChain(s.cfg)

	s.logger.Debug("Built chain", zap.String("chainID", chain.ID().String()))
	s.publish(ctx, chain)

	return chain
}

// PushAtom builds an atom from data and appends it to the chain
func (s *ChainService) PushAtom(ctx context.Context, chain *aggregates.Chain, data *ports.PushData) (*entities.Atom, error) {
	return s.push(ctx, chain, data, func(atom *entities.Atom) error {
		return chain.AddAtom(atom)
	})
}

// PushAtomToBand builds an atom from data and puts it at the end of a band.
// When the band's type differs, the atom lands right after that band.
func (s *ChainService) PushAtomToBand(ctx context.Context, chain *aggregates.Chain, data *ports.PushData, bandID string) (*entities.Atom, error) {
	// Resolve the band before any content is built
	if _, err := chain.GetBand(bandID); err != nil {
		return nil, err
	}

	return s.push(ctx, chain, data, func(atom *entities.Atom) error {
		return chain.AppendToBand(atom, bandID)
	})
}

func (s *ChainService) push(
	ctx context.Context,
	chain *aggregates.Chain,
	data *ports.PushData,
	insert func(atom *entities.Atom) error,
) (*entities.Atom, error) {
	if data == nil {
		return nil, pkgerrors.NewValidationError("push data is required")
	}
	if err := utils.ValidateStruct(data); err != nil {
		return nil, err
	}
	if data.ID != "" && chain.HasAtom(data.ID) {
		return nil, pkgerrors.NewNotUniqueIDError(data.ID)
	}

	atom, err := s.atoms.Build(ctx, data)
	if err != nil {
		s.logger.Warn("Atom build failed",
			zap.String("chainID", chain.ID().String()),
			zap.String("type", data.Type),
			zap.Error(err),
		)
		return nil, pkgerrors.NewContentError("build", err)
	}

	if atom.ID() == "" {
		id, err := chain.NewAtomID()
		if err != nil {
			s.discard(ctx, chain, atom)
			return nil, err
		}
		atom.SetID(id)
	}

	if err := insert(atom); err != nil {
		s.discard(ctx, chain, atom)
		return nil, err
	}

	s.logger.Debug("Pushed atom",
		zap.String("chainID", chain.ID().String()),
		zap.String("atomID", atom.ID()),
		zap.String("type", atom.Type()),
	)
	s.publish(ctx, chain)

	return atom, nil
}

// discard drops the content of an atom that never made it into the chain
func (s *ChainService) discard(ctx context.Context, chain *aggregates.Chain, atom *entities.Atom) {
	if err := s.atoms.Delete(ctx, atom); err != nil {
		s.logger.Warn("Failed to discard atom content",
			zap.String("chainID", chain.ID().String()),
			zap.String("atomID", atom.ID()),
			zap.Error(err),
		)
	}
}

// DeleteAtom destroys an atom's content, then unlinks it from the chain.
// When the collaborator fails the chain is left as it was.
func (s *ChainService) DeleteAtom(ctx context.Context, chain *aggregates.Chain, atomID string) error {
	atom, err := chain.GetAtom(atomID)
	if err != nil {
		return err
	}

	if err := s.atoms.Delete(ctx, atom); err != nil {
		s.logger.Warn("Atom delete failed",
			zap.String("chainID", chain.ID().String()),
			zap.String("atomID", atom.ID()),
			zap.Error(err),
		)
		return pkgerrors.NewContentError("delete", err)
	}

	if _, err := chain.RemoveAtom(atom.ID()); err != nil {
		return err
	}

	s.logger.Debug("Deleted atom",
		zap.String("chainID", chain.ID().String()),
		zap.String("atomID", atom.ID()),
	)
	s.publish(ctx, chain)
	return nil
}

// Structural edits

// MoveInBand moves an atom inside its own band
func (s *ChainService) MoveInBand(ctx context.Context, chain *aggregates.Chain, atomID string, position int) error {
	return s.edit(ctx, chain, "moveInBand", func() error {
		return chain.MoveInBand(atomID, position)
	}, zap.String("atomID", atomID), zap.Int("position", position))
}

// MoveBand moves a band to a position in the chain
func (s *ChainService) MoveBand(ctx context.Context, chain *aggregates.Chain, bandID string, position int) error {
	return s.edit(ctx, chain, "moveBand", func() error {
		return chain.MoveBand(bandID, position)
	}, zap.String("bandID", bandID), zap.Int("position", position))
}

// MoveToBand moves an atom to the end of a band
func (s *ChainService) MoveToBand(ctx context.Context, chain *aggregates.Chain, atomID, bandID string) error {
	return s.edit(ctx, chain, "moveToBand", func() error {
		return chain.MoveToBand(atomID, bandID)
	}, zap.String("atomID", atomID), zap.String("bandID", bandID))
}

// MoveToBandAt moves an atom to a position inside a band
func (s *ChainService) MoveToBandAt(ctx context.Context, chain *aggregates.Chain, atomID, bandID string, position int) error {
	return s.edit(ctx, chain, "moveToBandAt", func() error {
		return chain.MoveToBandAt(atomID, bandID, position)
	}, zap.String("atomID", atomID), zap.String("bandID", bandID), zap.Int("position", position))
}

// MoveAtom moves an atom to a flat position
func (s *ChainService) MoveAtom(ctx context.Context, chain *aggregates.Chain, atomID string, position int) error {
	return s.edit(ctx, chain, "moveAtom", func() error {
		return chain.MoveAtom(atomID, position)
	}, zap.String("atomID", atomID), zap.Int("position", position))
}

// SetBandStyle replaces a band's styles
func (s *ChainService) SetBandStyle(ctx context.Context, chain *aggregates.Chain, bandID string, styles map[string]string) error {
	return s.edit(ctx, chain, "setBandStyle", func() error {
		return chain.SetBandStyle(bandID, styles)
	}, zap.String("bandID", bandID), zap.Int("styles", len(styles)))
}

func (s *ChainService) edit(ctx context.Context, chain *aggregates.Chain, op string, fn func() error, fields ...zap.Field) error {
	fields = append(fields, zap.String("chainID", chain.ID().String()), zap.String("op", op))

	if err := fn(); err != nil {
		s.logger.Debug("Chain edit rejected", append(fields, zap.Error(err))...)
		return err
	}

	s.logger.Debug("Chain edited", append(fields, zap.String("layout", chain.Layout()))...)
	s.publish(ctx, chain)
	return nil
}

// Lifecycle sweeps

// ForUpdate prepares every atom of the chain for an editing flow
func (s *ChainService) ForUpdate(ctx context.Context, chain *aggregates.Chain) error {
	return s.sweep(ctx, chain, "forUpdate", s.atoms.ForUpdate)
}

// ForRender prepares every atom of the chain for a read flow
func (s *ChainService) ForRender(ctx context.Context, chain *aggregates.Chain) error {
	return s.sweep(ctx, chain, "forRender", s.atoms.ForRender)
}

// Delete destroys the content of every atom. The chain's structure is not
// touched; dropping the chain itself is up to the caller.
func (s *ChainService) Delete(ctx context.Context, chain *aggregates.Chain) error {
	return s.sweep(ctx, chain, "delete", s.atoms.Delete)
}

func (s *ChainService) sweep(
	ctx context.Context,
	chain *aggregates.Chain,
	op string,
	call func(context.Context, *entities.Atom) error,
) error {
	atoms := chain.Atoms()
	workers := s.sweepWorkers()

	s.logger.Info("Sweeping chain",
		zap.String("chainID", chain.ID().String()),
		zap.String("op", op),
		zap.Int("atoms", len(atoms)),
		zap.Int("workers", workers),
	)

	if workers <= 1 {
		for _, atom := range atoms {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := call(ctx, atom); err != nil {
				return s.sweepFailed(chain, op, atom, err)
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, atom := range atoms {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := call(gctx, atom); err != nil {
				return s.sweepFailed(chain, op, atom, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *ChainService) sweepFailed(chain *aggregates.Chain, op string, atom *entities.Atom, err error) error {
	s.logger.Error("Atom sweep failed",
		zap.String("chainID", chain.ID().String()),
		zap.String("op", op),
		zap.String("atomID", atom.ID()),
		zap.Error(err),
	)
	return pkgerrors.NewContentError(op, err)
}

// sweepWorkers is 1 unless the collaborator declares itself safe for
// concurrent calls
func (s *ChainService) sweepWorkers() int {
	concurrent, ok := s.atoms.(ports.ConcurrentAtomManager)
	if !ok || !concurrent.ConcurrentSafe() {
		return 1
	}
	return max(s.cfg.SweepConcurrency, 1)
}

// publish hands uncommitted events to the publisher. Publishing is best
// effort: the edit already happened and is not undone.
func (s *ChainService) publish(ctx context.Context, chain *aggregates.Chain) {
	pending := chain.GetUncommittedEvents()
	if len(pending) == 0 {
		return
	}
	chain.MarkEventsAsCommitted()

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBatch(ctx, pending); err != nil {
		s.logger.Warn("Failed to publish chain events",
			zap.String("chainID", chain.ID().String()),
			zap.Int("events", len(pending)),
			zap.Error(err),
		)
	}
}
