package ports

import (
	"context"

	"chains/domain/core/aggregates"
	"chains/domain/core/entities"
	"chains/domain/events"
)

// PushData is what a caller hands over to create an atom
type PushData struct {
	// ID is optional; one is allocated when empty
	ID      string                 `json:"id,omitempty" yaml:"id,omitempty" validate:"omitempty,max=64"`
	Type    string                 `json:"type" yaml:"type" validate:"required"`
	Payload map[string]interface{} `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// AtomManager owns atom content. The chain engine only sees ids and types;
// everything else about an atom is this collaborator's business.
// This is a port in hexagonal architecture.
type AtomManager interface {
	// Build materializes an atom from push data. It may leave the id empty.
	Build(ctx context.Context, data *PushData) (*entities.Atom, error)

	// Delete destroys the atom's stored content
	Delete(ctx context.Context, atom *entities.Atom) error

	// ForUpdate prepares the atom's content for an editing flow
	ForUpdate(ctx context.Context, atom *entities.Atom) error

	// ForRender prepares the atom's content for a read flow
	ForRender(ctx context.Context, atom *entities.Atom) error
}

// ConcurrentAtomManager is implemented by managers whose lifecycle calls may
// be issued in parallel during sweeps
type ConcurrentAtomManager interface {
	AtomManager
	ConcurrentSafe() bool
}

// ChainRepository keeps live chains addressable by id
type ChainRepository interface {
	// Save stores the chain (create or replace)
	Save(ctx context.Context, chain *aggregates.Chain) error

	// GetByID retrieves a chain by its ID
	GetByID(ctx context.Context, id aggregates.ChainID) (*aggregates.Chain, error)

	// Delete forgets a chain
	Delete(ctx context.Context, id aggregates.ChainID) error

	// List returns the ids of all stored chains
	List(ctx context.Context) ([]aggregates.ChainID, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
