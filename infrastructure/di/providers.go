package di

import (
	"go.uber.org/zap"

	"chains/application/commands/bus"
	"chains/application/commands/handlers"
	"chains/application/ports"
	querybus "chains/application/queries/bus"
	queryhandlers "chains/application/queries/handlers"
	"chains/application/services"
	domainconfig "chains/domain/config"
	"chains/infrastructure/atoms"
	"chains/infrastructure/config"
	"chains/infrastructure/events"
	"chains/infrastructure/persistence/memory"
)

// ProvideLogger creates a new logger instance at the configured level
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideDomainConfig extracts the chain engine rules
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.Domain
}

// ProvideChainRepository creates the chain store
func ProvideChainRepository() ports.ChainRepository {
	return memory.NewChainRepository()
}

// ProvideAtomManager creates the atom content collaborator
func ProvideAtomManager() ports.AtomManager {
	return atoms.NewMemoryManager()
}

// ProvideEventPublisher creates the domain event publisher
func ProvideEventPublisher(logger *zap.Logger) ports.EventPublisher {
	return events.NewLogPublisher(logger)
}

// ProvideChainService creates the chain orchestrator
func ProvideChainService(
	atomManager ports.AtomManager,
	publisher ports.EventPublisher,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.ChainService {
	return services.NewChainService(atomManager, publisher, domainCfg, logger.Named("chains"))
}

// ProvideChainHandler creates the chain command handler
func ProvideChainHandler(
	service *services.ChainService,
	chains ports.ChainRepository,
	logger *zap.Logger,
) *handlers.ChainHandler {
	return handlers.NewChainHandler(service, chains, logger.Named("commands"))
}

// ProvideChainLocks creates the per-chain lock table shared by commands and queries
func ProvideChainLocks() *bus.ChainLocks {
	return bus.NewChainLocks()
}

// ProvideCommandBus creates the command bus with every chain command registered
func ProvideCommandBus(handler *handlers.ChainHandler, locks *bus.ChainLocks, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger.Named("bus")),
		bus.ValidationMiddleware(),
		bus.SerializeMiddleware(locks),
	)

	if err := handler.Register(commandBus); err != nil {
		return nil, err
	}

	return commandBus, nil
}

// ProvideChainQueryHandler creates the chain read model handler
func ProvideChainQueryHandler(chains ports.ChainRepository, locks *bus.ChainLocks, logger *zap.Logger) *queryhandlers.ChainQueryHandler {
	return queryhandlers.NewChainQueryHandler(chains, locks, logger.Named("queries"))
}

// ProvideQueryBus creates the query bus with every chain query registered
func ProvideQueryBus(handler *queryhandlers.ChainQueryHandler, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(logger.Named("queries"))

	if err := handler.Register(queryBus); err != nil {
		return nil, err
	}

	return queryBus, nil
}
