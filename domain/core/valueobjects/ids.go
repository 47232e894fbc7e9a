package valueobjects

import (
	"math/rand/v2"
	"strings"

	"chains/domain/config"
	pkgerrors "chains/pkg/errors"
)

// SameID compares two chain identifiers. Identifiers are case-insensitive.
func SameID(a, b string) bool {
	return strings.EqualFold(a, b)
}

// IDAllocator generates short random identifiers that are unique within a scope
type IDAllocator struct {
	length      int
	alphabet    string
	maxAttempts int
	intn        func(n int) int
}

// NewIDAllocator creates an allocator from the domain configuration
func NewIDAllocator(cfg *config.DomainConfig) *IDAllocator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &IDAllocator{
		length:      cfg.IDLength,
		alphabet:    strings.ToLower(cfg.IDAlphabet),
		maxAttempts: cfg.MaxIDAttempts,
		intn:        rand.IntN,
	}
}

// WithSource replaces the random source. Used to make allocation reproducible.
func (a *IDAllocator) WithSource(src rand.Source) *IDAllocator {
	r := rand.New(src)
	a.intn = r.IntN
	return a
}

// Length returns the length of generated identifiers
func (a *IDAllocator) Length() int {
	return a.length
}

// Random returns a random identifier without any uniqueness check
func (a *IDAllocator) Random() string {
	var sb strings.Builder
	sb.Grow(a.length)
	for i := 0; i < a.length; i++ {
		sb.WriteByte(a.alphabet[a.intn(len(a.alphabet))])
	}
	return sb.String()
}

// Next returns an identifier for which taken reports false.
// scope names what is being allocated and only appears in errors.
func (a *IDAllocator) Next(scope string, taken func(id string) bool) (string, error) {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		id := a.Random()
		if !taken(id) {
			return id, nil
		}
	}
	return "", pkgerrors.NewIDExhaustedError(scope, a.maxAttempts)
}
