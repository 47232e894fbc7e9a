package entities

import (
	pkgerrors "chains/pkg/errors"
)

// Atom is an individual content item of a chain.
// Beyond its id and type the content is owned by the atom content manager.
type Atom struct {
	id       string
	atomType string
	content  interface{}
}

// NewAtom creates an atom. The id may be empty; the chain assigns one on push.
func NewAtom(id, atomType string, content interface{}) (*Atom, error) {
	if atomType == "" {
		return nil, pkgerrors.NewValidationError("atom type cannot be empty")
	}
	return &Atom{
		id:       id,
		atomType: atomType,
		content:  content,
	}, nil
}

// ID returns the atom's identifier
func (a *Atom) ID() string {
	return a.id
}

// SetID sets the atom's identifier
func (a *Atom) SetID(id string) {
	a.id = id
}

// Type returns the atom's content category
func (a *Atom) Type() string {
	return a.atomType
}

// Content returns the opaque payload
func (a *Atom) Content() interface{} {
	return a.content
}

// SetContent replaces the opaque payload
func (a *Atom) SetContent(content interface{}) {
	a.content = content
}

func (a *Atom) String() string {
	return "Atom:" + a.id
}
