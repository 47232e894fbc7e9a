package atoms

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"chains/application/ports"
	"chains/domain/core/entities"
)

// Stage is where an atom's content is in its lifecycle
type Stage string

const (
	StageBuilt     Stage = "built"
	StageForUpdate Stage = "for_update"
	StageForRender Stage = "for_render"
)

// ErrUnknownAtom is returned for atoms this manager did not build or has
// already deleted
var ErrUnknownAtom = errors.New("atom content not found")

// PayloadValidator checks the payload of one atom type
type PayloadValidator func(payload map[string]interface{}) error

// MemoryManager keeps atom content in process memory.
// It is safe for concurrent use.
type MemoryManager struct {
	mu         sync.RWMutex
	items      map[*entities.Atom]Stage
	validators map[string]PayloadValidator
}

var _ ports.ConcurrentAtomManager = (*MemoryManager)(nil)

// NewMemoryManager creates a new in-memory content manager
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		items:      make(map[*entities.Atom]Stage),
		validators: make(map[string]PayloadValidator),
	}
}

// WithValidator registers a payload check for an atom type
func (m *MemoryManager) WithValidator(atomType string, validate PayloadValidator) *MemoryManager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.validators[atomType] = validate
	return m
}

// Build materializes an atom whose content is a copy of the payload
func (m *MemoryManager) Build(ctx context.Context, data *ports.PushData) (*entities.Atom, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	validate := m.validators[data.Type]
	m.mu.RUnlock()

	if validate != nil {
		if err := validate(data.Payload); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", data.Type, err)
		}
	}

	atom, err := entities.NewAtom(data.ID, data.Type, maps.Clone(data.Payload))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[atom] = StageBuilt
	return atom, nil
}

// Delete drops the atom's content
func (m *MemoryManager) Delete(ctx context.Context, atom *entities.Atom) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[atom]; !exists {
		return fmt.Errorf("%w: %s", ErrUnknownAtom, atom.ID())
	}
	delete(m.items, atom)
	return nil
}

// ForUpdate marks the atom's content as prepared for editing
func (m *MemoryManager) ForUpdate(ctx context.Context, atom *entities.Atom) error {
	return m.advance(ctx, atom, StageForUpdate)
}

// ForRender marks the atom's content as prepared for reading
func (m *MemoryManager) ForRender(ctx context.Context, atom *entities.Atom) error {
	return m.advance(ctx, atom, StageForRender)
}

func (m *MemoryManager) advance(ctx context.Context, atom *entities.Atom, stage Stage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[atom]; !exists {
		return fmt.Errorf("%w: %s", ErrUnknownAtom, atom.ID())
	}
	m.items[atom] = stage
	return nil
}

// ConcurrentSafe reports that lifecycle calls may run in parallel
func (m *MemoryManager) ConcurrentSafe() bool {
	return true
}

// Stage returns the lifecycle stage of an atom's content
func (m *MemoryManager) Stage(atom *entities.Atom) (Stage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stage, exists := m.items[atom]
	return stage, exists
}

// Len returns how many atoms have live content
func (m *MemoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
