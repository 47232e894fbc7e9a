package di

import (
	"go.uber.org/zap"

	"chains/application/commands/bus"
	"chains/application/ports"
	querybus "chains/application/queries/bus"
	"chains/application/services"
	"chains/infrastructure/config"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Chains     ports.ChainRepository
	Atoms      ports.AtomManager
	Service    *services.ChainService
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
}

// Shutdown flushes buffered log entries
func (c *Container) Shutdown() {
	_ = c.Logger.Sync()
}
