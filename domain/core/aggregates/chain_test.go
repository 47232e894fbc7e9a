package aggregates

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chains/domain/config"
	"chains/domain/core/entities"
	"chains/domain/events"
	pkgerrors "chains/pkg/errors"
)

func policyConfig(policy config.BandPolicy) *config.DomainConfig {
	cfg := config.DefaultDomainConfig()
	cfg.BandPolicy = policy
	return cfg
}

// buildChain reconstructs a chain from layouts such as "A:text(a1,a2)"
func buildChain(t *testing.T, cfg *config.DomainConfig, layouts ...string) *Chain {
	t.Helper()

	bands := make([]*entities.Band, 0, len(layouts))
	for _, layout := range layouts {
		head, rest, ok := strings.Cut(layout, "(")
		require.True(t, ok, "malformed layout %q", layout)
		bandID, bandType, ok := strings.Cut(head, ":")
		require.True(t, ok, "malformed layout %q", layout)

		band := entities.NewBand(bandID, bandType)
		for _, id := range strings.Split(strings.TrimSuffix(rest, ")"), ",") {
			atom, err := entities.NewAtom(id, bandType, nil)
			require.NoError(t, err)
			band.Append(atom)
		}
		bands = append(bands, band)
	}

	chain, err := ReconstructChain(NewChainID(), bands, cfg)
	require.NoError(t, err)
	return chain
}

func newAtom(t *testing.T, id, atomType string) *entities.Atom {
	t.Helper()
	atom, err := entities.NewAtom(id, atomType, nil)
	require.NoError(t, err)
	return atom
}

// shape renders bands as type(atoms), leaving out generated band ids
func shape(c *Chain) []string {
	out := make([]string, 0, c.BandCount())
	for _, b := range c.Bands() {
		ids := make([]string, 0, b.Len())
		for _, a := range b.Atoms() {
			ids = append(ids, a.ID())
		}
		out = append(out, fmt.Sprintf("%s(%s)", b.Type(), strings.Join(ids, ",")))
	}
	return out
}

func bandIDs(c *Chain) []string {
	out := make([]string, 0, c.BandCount())
	for _, b := range c.Bands() {
		out = append(out, b.ID())
	}
	return out
}

func flatIDs(c *Chain) []string {
	out := make([]string, 0, c.AtomCount())
	for _, a := range c.Atoms() {
		out = append(out, a.ID())
	}
	return out
}

func eventTypes(c *Chain) []string {
	out := []string{}
	for _, e := range c.GetUncommittedEvents() {
		out = append(out, e.GetEventType())
	}
	return out
}

func assertShape(t *testing.T, c *Chain, want ...string) {
	t.Helper()
	if diff := cmp.Diff(want, shape(c)); diff != "" {
		t.Errorf("chain shape mismatch (-want +got):\n%s\nlayout: %s", diff, c.Layout())
	}
}

func TestNewChain(t *testing.T) {
	chain := NewChain(nil)

	assert.NotEmpty(t, chain.ID())
	assert.Equal(t, 0, chain.BandCount())
	assert.Equal(t, 0, chain.AtomCount())
	assert.Equal(t, 1, chain.Version())
	assert.Equal(t, config.BandPolicyMerge, chain.Config().BandPolicy)
	assert.Equal(t, []string{events.TypeChainCreated}, eventTypes(chain))
	assert.Empty(t, chain.Layout())

	chain.MarkEventsAsCommitted()
	assert.Empty(t, chain.GetUncommittedEvents())
}

func TestReconstructChain(t *testing.T) {
	tests := []struct {
		name    string
		bands   func() []*entities.Band
		wantErr string
	}{
		{
			name: "valid bands",
			bands: func() []*entities.Band {
				b := entities.NewBand("A", "text")
				b.Append(newAtom(t, "a1", "text"))
				return []*entities.Band{b}
			},
		},
		{
			name: "empty band",
			bands: func() []*entities.Band {
				return []*entities.Band{entities.NewBand("A", "text")}
			},
			wantErr: "is empty",
		},
		{
			name: "duplicate band id",
			bands: func() []*entities.Band {
				a := entities.NewBand("A", "text")
				a.Append(newAtom(t, "a1", "text"))
				b := entities.NewBand("a", "image")
				b.Append(newAtom(t, "b1", "image"))
				return []*entities.Band{a, b}
			},
			wantErr: "duplicate band id",
		},
		{
			name: "duplicate atom id across bands",
			bands: func() []*entities.Band {
				a := entities.NewBand("A", "text")
				a.Append(newAtom(t, "x1", "text"))
				b := entities.NewBand("B", "image")
				b.Append(newAtom(t, "X1", "image"))
				return []*entities.Band{a, b}
			},
			wantErr: "duplicate atom id",
		},
		{
			name: "type mismatch",
			bands: func() []*entities.Band {
				a := entities.NewBand("A", "text")
				a.Append(newAtom(t, "a1", "image"))
				return []*entities.Band{a}
			},
			wantErr: "of type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := ReconstructChain(NewChainID(), tt.bands(), nil)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, chain)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, chain.GetUncommittedEvents())
		})
	}

	_, err := ReconstructChain("", nil, nil)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestChain_AddAtom(t *testing.T) {
	t.Run("appends to a band of a new type", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)")

		require.NoError(t, chain.AddAtom(newAtom(t, "new", "type2")))

		assertShape(t, chain, "type1(a1)", "type2(new)")
		assert.Equal(t, "A", chain.Bands()[0].ID())
		assert.Regexp(t, `^[a-z0-9]{8}$`, chain.Bands()[1].ID())
		assert.Equal(t, []string{events.TypeBandCreated, events.TypeAtomAdded}, eventTypes(chain))
	})

	t.Run("joins the last band of the same type", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)")

		require.NoError(t, chain.AddAtom(newAtom(t, "b2", "type2")))

		assertShape(t, chain, "type1(a1)", "type2(b1,b2)")
		assert.Equal(t, []string{"A", "B"}, bandIDs(chain))
	})

	t.Run("does not look past the last band", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)")

		require.NoError(t, chain.AddAtom(newAtom(t, "a2", "type1")))

		assertShape(t, chain, "type1(a1)", "type2(b1)", "type1(a2)")
	})

	t.Run("rejects duplicate ids case-insensitively", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)")

		err := chain.AddAtom(newAtom(t, "A1", "type1"))

		assert.True(t, pkgerrors.IsNotUniqueID(err))
		assertShape(t, chain, "type1(a1)")
	})

	t.Run("rejects nil and anonymous atoms", func(t *testing.T) {
		chain := NewChain(nil)

		assert.True(t, pkgerrors.IsValidation(chain.AddAtom(nil)))
		assert.True(t, pkgerrors.IsValidation(chain.AddAtom(newAtom(t, "", "type1"))))
		assert.Equal(t, 0, chain.BandCount())
	})

	t.Run("enforces the atom limit", func(t *testing.T) {
		cfg := config.DefaultDomainConfig()
		cfg.MaxAtomsPerChain = 2
		chain := NewChain(cfg)

		require.NoError(t, chain.AddAtom(newAtom(t, "a1", "type1")))
		require.NoError(t, chain.AddAtom(newAtom(t, "a2", "type1")))
		err := chain.AddAtom(newAtom(t, "a3", "type1"))

		assert.True(t, pkgerrors.IsValidation(err))
		assert.Equal(t, 2, chain.AtomCount())
	})
}

func TestChain_AppendToBand(t *testing.T) {
	t.Run("same type appends at the end", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)")

		require.NoError(t, chain.AppendToBand(newAtom(t, "a2", "type1"), "A"))

		assertShape(t, chain, "type1(a1,a2)", "type2(b1)")
	})

	t.Run("different type lands right after the band", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)")

		require.NoError(t, chain.AppendToBand(newAtom(t, "x", "type2"), "A"))

		assertShape(t, chain, "type1(a1)", "type2(x,b1)")
	})

	t.Run("different type before a foreign band", func(t *testing.T) {
		chain := buildChain(t, policyConfig(config.BandPolicyPreserve), "A:type1(a1)", "B:type2(b1)")

		require.NoError(t, chain.AppendToBand(newAtom(t, "x", "type3"), "A"))

		assertShape(t, chain, "type1(a1)", "type3(x)", "type2(b1)")
	})

	t.Run("merge policy never loses the target band", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type1(b1)", "C:type2(c1)")

		require.NoError(t, chain.AppendToBand(newAtom(t, "x", "type2"), "B"))

		assertShape(t, chain, "type1(a1,b1)", "type2(x,c1)")
		require.NoError(t, chain.Validate())
	})

	t.Run("new band after an unmerged run", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type1(b1)", "C:type3(c1)")

		require.NoError(t, chain.AppendToBand(newAtom(t, "x", "type2"), "B"))

		assertShape(t, chain, "type1(a1,b1)", "type2(x)", "type3(c1)")
		assert.Equal(t, []string{"a1", "b1", "x", "c1"}, flatIDs(chain))
	})

	t.Run("preserve policy keeps the run split", func(t *testing.T) {
		chain := buildChain(t, policyConfig(config.BandPolicyPreserve), "A:type1(a1)", "B:type1(b1)", "C:type2(c1)")

		require.NoError(t, chain.AppendToBand(newAtom(t, "x", "type2"), "B"))

		assertShape(t, chain, "type1(a1)", "type1(b1)", "type2(x,c1)")
	})

	t.Run("unknown band leaves the chain untouched", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)")

		err := chain.AppendToBand(newAtom(t, "x", "type1"), "nope")

		assert.True(t, pkgerrors.IsNotFound(err))
		assertShape(t, chain, "type1(a1)")
		assert.Equal(t, 1, chain.Version())
	})
}

func TestChain_Lookups(t *testing.T) {
	chain := buildChain(t, nil, "A:type1(a1,a2)", "B:type2(b1)")

	atom, err := chain.GetAtom("A2")
	require.NoError(t, err)
	assert.Equal(t, "a2", atom.ID())

	band, err := chain.GetBand("b")
	require.NoError(t, err)
	assert.Equal(t, "B", band.ID())

	band, err = chain.GetAtomBand("B1")
	require.NoError(t, err)
	assert.Equal(t, "B", band.ID())

	_, err = chain.GetAtom("zz")
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = chain.GetBand("zz")
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = chain.GetAtomBand("zz")
	assert.True(t, pkgerrors.IsNotFound(err))

	assert.Equal(t, []string{"a1", "a2", "b1"}, flatIDs(chain))
	assert.Equal(t, "[A:type1(a1,a2)][B:type2(b1)]", chain.Layout())
}

func TestChain_RemoveAtom(t *testing.T) {
	t.Run("only atom removes the band", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1,a2)", "B:type2(b1)")

		atom, err := chain.RemoveAtom("b1")

		require.NoError(t, err)
		assert.Equal(t, "b1", atom.ID())
		assert.Equal(t, "[A:type1(a1,a2)]", chain.Layout())
		assert.Equal(t, []string{events.TypeAtomRemoved, events.TypeBandRemoved}, eventTypes(chain))
	})

	t.Run("band keeps remaining atoms", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1,a2)")

		_, err := chain.RemoveAtom("A1")

		require.NoError(t, err)
		assert.Equal(t, "[A:type1(a2)]", chain.Layout())
	})

	t.Run("merges the neighbours it brings together", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)", "C:type1(c1)")

		_, err := chain.RemoveAtom("b1")

		require.NoError(t, err)
		assert.Equal(t, "[A:type1(a1,c1)]", chain.Layout())
	})

	t.Run("preserve policy keeps neighbours apart", func(t *testing.T) {
		chain := buildChain(t, policyConfig(config.BandPolicyPreserve), "A:type1(a1)", "B:type2(b1)", "C:type1(c1)")

		_, err := chain.RemoveAtom("b1")

		require.NoError(t, err)
		assert.Equal(t, "[A:type1(a1)][C:type1(c1)]", chain.Layout())
	})

	t.Run("unknown atom", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)")

		_, err := chain.RemoveAtom("zz")

		assert.True(t, pkgerrors.IsNotFound(err))
		assert.Equal(t, 1, chain.Version())
	})
}

func TestChain_SetBandStyle(t *testing.T) {
	chain := buildChain(t, nil, "A:type1(a1)")

	require.NoError(t, chain.SetBandStyle("A", map[string]string{"align": "left", "bg": "red"}))
	require.NoError(t, chain.SetBandStyle("a", map[string]string{"align": "right"}))

	band, err := chain.GetBand("A")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"align": "right"}, band.Styles())

	err = chain.SetBandStyle("zz", nil)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestChain_NewIDs(t *testing.T) {
	chain := buildChain(t, nil, "A:type1(a1)")

	atomID, err := chain.NewAtomID()
	require.NoError(t, err)
	assert.Regexp(t, `^[a-z0-9]{8}$`, atomID)
	assert.False(t, chain.HasAtom(atomID))

	ids, err := chain.newBandIDs(5)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id])
		assert.False(t, chain.HasBand(id))
		seen[id] = true
	}
}

func TestChain_NewIDsExhausted(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.IDLength = 1
	cfg.IDAlphabet = "ab"
	cfg.MaxIDAttempts = 16
	chain := buildChain(t, cfg, "a:type1(x)", "b:type2(y)")

	_, err := chain.NewBandID()
	assert.True(t, pkgerrors.IsIDExhausted(err))

	err = chain.AddAtom(newAtom(t, "z", "type3"))
	assert.True(t, pkgerrors.IsIDExhausted(err))
	assert.Equal(t, "[a:type1(x)][b:type2(y)]", chain.Layout())
}
