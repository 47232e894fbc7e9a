package handlers

import (
	"context"

	"go.uber.org/zap"

	"chains/application/commands"
	"chains/application/commands/bus"
	"chains/application/ports"
	"chains/application/services"
	"chains/domain/core/aggregates"
)

// ChainHandler executes chain commands against stored chains
type ChainHandler struct {
	service *services.ChainService
	chains  ports.ChainRepository
	logger  *zap.Logger
}

// NewChainHandler creates a new chain command handler
func NewChainHandler(
	service *services.ChainService,
	chains ports.ChainRepository,
	logger *zap.Logger,
) *ChainHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainHandler{
		service: service,
		chains:  chains,
		logger:  logger,
	}
}

// Register wires every chain command into the bus
func (h *ChainHandler) Register(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{&commands.CreateChainCommand{}, bus.HandlerFor(h.CreateChain)},
		{commands.PushAtomCommand{}, bus.HandlerFor(h.PushAtom)},
		{commands.DeleteAtomCommand{}, bus.HandlerFor(h.DeleteAtom)},
		{commands.MoveInBandCommand{}, bus.HandlerFor(h.MoveInBand)},
		{commands.MoveBandCommand{}, bus.HandlerFor(h.MoveBand)},
		{commands.MoveToBandCommand{}, bus.HandlerFor(h.MoveToBand)},
		{commands.MoveAtomCommand{}, bus.HandlerFor(h.MoveAtom)},
		{commands.SetBandStyleCommand{}, bus.HandlerFor(h.SetBandStyle)},
		{commands.SweepChainCommand{}, bus.HandlerFor(h.SweepChain)},
	}

	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

// CreateChain builds a chain and reports its id back through the command
func (h *ChainHandler) CreateChain(ctx context.Context, cmd *commands.CreateChainCommand) error {
	chain := h.service.BuildChain(ctx)
	if err := h.chains.Save(ctx, chain); err != nil {
		return err
	}

	cmd.ChainID = chain.ID().String()
	h.logger.Info("Chain created", zap.String("chainID", cmd.ChainID))
	return nil
}

// PushAtom handles PushAtomCommand
func (h *ChainHandler) PushAtom(ctx context.Context, cmd commands.PushAtomCommand) error {
	return h.withChain(ctx, cmd.ChainID, func(chain *aggregates.Chain) error {
		var err error
		if cmd.BandID != "" {
			_, err = h.service.PushAtomToBand(ctx, chain, &cmd.Data, cmd.BandID)
		} else {
			_, err = h.service.PushAtom(ctx, chain, &cmd.Data)
		}
		return err
	})
}

// DeleteAtom handles DeleteAtomCommand
func (h *ChainHandler) DeleteAtom(ctx context.Context, cmd commands.DeleteAtomCommand) error {
	return h.withChain(ctx, cmd.ChainID, func(chain *aggregates.Chain) error {
		return h.service.DeleteAtom(ctx, chain, cmd.AtomID)
	})
}

// MoveInBand handles MoveInBandCommand
func (h *ChainHandler) MoveInBand(ctx context.Context, cmd commands.MoveInBandCommand) error {
	return h.withChain(ctx, cmd.ChainID, func(chain *aggregates.Chain) error {
		return h.service.MoveInBand(ctx, chain, cmd.AtomID, cmd.Position)
	})
}

// MoveBand handles MoveBandCommand
func (h *ChainHandler) MoveBand(ctx context.Context, cmd commands.MoveBandCommand) error {
	return h.withChain(ctx, cmd.ChainID, func(chain *aggregates.Chain) error {
		return h.service.MoveBand(ctx, chain, cmd.BandID, cmd.Position)
	})
}

// MoveToBand handles MoveToBandCommand
func (h *ChainHandler) MoveToBand(ctx context.Context, cmd commands.MoveToBandCommand) error {
	return h.withChain(ctx, cmd.ChainID, func(chain *aggregates.Chain) error {
		if cmd.Position != nil {
			return h.service.MoveToBandAt(ctx, chain, cmd.AtomID, cmd.BandID, *cmd.Position)
		}
		return h.service.MoveToBand(ctx, chain, cmd.AtomID, cmd.BandID)
	})
}

// MoveAtom handles MoveAtomCommand
func (h *ChainHandler) MoveAtom(ctx context.Context, cmd commands.MoveAtomCommand) error {
	return h.withChain(ctx, cmd.ChainID, func(chain *aggregates.Chain) error {
		return h.service.MoveAtom(ctx, chain, cmd.AtomID, cmd.Position)
	})
}

// SetBandStyle handles SetBandStyleCommand
func (h *ChainHandler) SetBandStyle(ctx context.Context, cmd commands.SetBandStyleCommand) error {
	return h.withChain(ctx, cmd.ChainID, func(chain *aggregates.Chain) error {
		return h.service.SetBandStyle(ctx, chain, cmd.BandID, cmd.Styles)
	})
}

// SweepChain handles SweepChainCommand
func (h *ChainHandler) SweepChain(ctx context.Context, cmd commands.SweepChainCommand) error {
	chain, err := h.chains.GetByID(ctx, aggregates.ChainID(cmd.ChainID))
	if err != nil {
		return err
	}

	switch cmd.Op {
	case commands.SweepForUpdate:
		return h.service.ForUpdate(ctx, chain)
	case commands.SweepForRender:
		return h.service.ForRender(ctx, chain)
	default:
		if err := h.service.Delete(ctx, chain); err != nil {
			return err
		}
		return h.chains.Delete(ctx, chain.ID())
	}
}

// withChain loads a chain, applies fn and stores the result
func (h *ChainHandler) withChain(ctx context.Context, chainID string, fn func(*aggregates.Chain) error) error {
	chain, err := h.chains.GetByID(ctx, aggregates.ChainID(chainID))
	if err != nil {
		return err
	}

	if err := fn(chain); err != nil {
		return err
	}

	return h.chains.Save(ctx, chain)
}
