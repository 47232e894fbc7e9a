package aggregates

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chains/domain/config"
	"chains/domain/core/entities"
	"chains/domain/core/valueobjects"
	"chains/domain/events"
	pkgerrors "chains/pkg/errors"
)

type item string

func (i item) ID() string { return string(i) }

func TestMoveInList(t *testing.T) {
	tests := []struct {
		name      string
		list      []item
		id        string
		position  int
		want      []item
		wantMoved bool
	}{
		{"forward", []item{"a", "b", "c"}, "a", 2, []item{"b", "c", "a"}, true},
		{"backward", []item{"a", "b", "c"}, "c", 0, []item{"c", "a", "b"}, true},
		{"middle", []item{"a", "b", "c", "d"}, "a", 2, []item{"b", "c", "a", "d"}, true},
		{"clamped high", []item{"a", "b", "c"}, "a", 10, []item{"b", "c", "a"}, true},
		{"clamped low", []item{"a", "b", "c"}, "c", -4, []item{"c", "a", "b"}, true},
		{"case-insensitive", []item{"a", "b", "c"}, "B", 0, []item{"b", "a", "c"}, true},
		{"already there", []item{"a", "b", "c"}, "b", 1, []item{"a", "b", "c"}, false},
		{"unknown", []item{"a", "b"}, "z", 0, []item{"a", "b"}, false},
		{"empty", []item{}, "a", 0, []item{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, moved := moveInList(slices.Clone(tt.list), tt.id, tt.position)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantMoved, moved)
		})
	}
}

func TestChain_MoveInBand(t *testing.T) {
	tests := []struct {
		name     string
		atomID   string
		position int
		want     string
		changed  bool
	}{
		{"to front", "a3", 0, "[A:type1(a3,a1,a2)][B:type2(b1)]", true},
		{"to end", "a1", 2, "[A:type1(a2,a3,a1)][B:type2(b1)]", true},
		{"past the end", "a1", 9, "[A:type1(a2,a3,a1)][B:type2(b1)]", true},
		{"negative", "a2", -1, "[A:type1(a2,a1,a3)][B:type2(b1)]", true},
		{"current position", "a2", 1, "[A:type1(a1,a2,a3)][B:type2(b1)]", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := buildChain(t, nil, "A:type1(a1,a2,a3)", "B:type2(b1)")

			require.NoError(t, chain.MoveInBand(tt.atomID, tt.position))

			assert.Equal(t, tt.want, chain.Layout())
			if tt.changed {
				assert.Equal(t, 2, chain.Version())
				assert.Equal(t, []string{events.TypeAtomMoved}, eventTypes(chain))
			} else {
				assert.Equal(t, 1, chain.Version())
				assert.Empty(t, chain.GetUncommittedEvents())
			}
		})
	}

	chain := buildChain(t, nil, "A:type1(a1)")
	assert.True(t, pkgerrors.IsNotFound(chain.MoveInBand("zz", 0)))
}

func TestChain_MoveBand(t *testing.T) {
	t.Run("reorders bands", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)", "C:type3(c1)")

		require.NoError(t, chain.MoveBand("c", 0))

		assert.Equal(t, "[C:type3(c1)][A:type1(a1)][B:type2(b1)]", chain.Layout())
		assert.Equal(t, []string{events.TypeBandMoved}, eventTypes(chain))
	})

	t.Run("current position is a no-op", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)")

		require.NoError(t, chain.MoveBand("B", 1))
		require.NoError(t, chain.MoveBand("B", 7))

		assert.Equal(t, "[A:type1(a1)][B:type2(b1)]", chain.Layout())
		assert.Equal(t, 1, chain.Version())
	})

	t.Run("merges bands it makes adjacent", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)", "C:type1(c1)")

		require.NoError(t, chain.MoveBand("C", 1))

		assert.Equal(t, "[A:type1(a1,c1)][B:type2(b1)]", chain.Layout())
		assert.Contains(t, eventTypes(chain), events.TypeBandsMerged)
	})

	t.Run("preserve policy keeps them apart", func(t *testing.T) {
		chain := buildChain(t, policyConfig(config.BandPolicyPreserve), "A:type1(a1)", "B:type2(b1)", "C:type1(c1)")

		require.NoError(t, chain.MoveBand("C", 1))

		assert.Equal(t, "[A:type1(a1)][C:type1(c1)][B:type2(b1)]", chain.Layout())
	})

	t.Run("unknown band", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)")
		assert.True(t, pkgerrors.IsNotFound(chain.MoveBand("zz", 0)))
	})
}

func TestChain_MoveToBand(t *testing.T) {
	t.Run("different type without neighbour splits off a new band", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1,a2)", "B:type2(b1)")

		require.NoError(t, chain.MoveToBand("a2", "B"))

		assertShape(t, chain, "type1(a1)", "type2(b1)", "type1(a2)")
		ids := bandIDs(chain)
		assert.Equal(t, []string{"A", "B"}, ids[:2])
		assert.NotContains(t, []string{"A", "B"}, ids[2])
	})

	t.Run("same type appends", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1,a2)", "B:type2(b1)", "C:type1(c1)")

		require.NoError(t, chain.MoveToBand("a1", "C"))

		assert.Equal(t, "[A:type1(a2)][B:type2(b1)][C:type1(c1,a1)]", chain.Layout())
	})

	t.Run("same type drops the emptied source", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)", "C:type1(c1)")

		require.NoError(t, chain.MoveToBand("a1", "C"))

		assert.Equal(t, "[B:type2(b1)][C:type1(c1,a1)]", chain.Layout())
		assert.Contains(t, eventTypes(chain), events.TypeBandRemoved)
	})

	t.Run("next band of the atom's type receives it at the front", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1,a2)", "B:type2(b1)", "C:type1(c1)")

		require.NoError(t, chain.MoveToBand("a1", "B"))

		assert.Equal(t, "[A:type1(a2)][B:type2(b1)][C:type1(a1,c1)]", chain.Layout())
	})

	t.Run("next band may be the source itself", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type2(b1)", "B:type1(a1,a2)")

		require.NoError(t, chain.MoveToBand("a2", "A"))

		assert.Equal(t, "[A:type2(b1)][B:type1(a2,a1)]", chain.Layout())
	})

	t.Run("singleton source band is relocated", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)", "C:type3(c1)")

		require.NoError(t, chain.MoveToBand("a1", "B"))

		assert.Equal(t, "[B:type2(b1)][A:type1(a1)][C:type3(c1)]", chain.Layout())
		assert.Equal(t, []string{events.TypeBandMoved, events.TypeAtomMoved}, eventTypes(chain))
	})

	t.Run("copied band keeps the source styles", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1,a2)", "B:type2(b1)", "C:type3(c1)")
		require.NoError(t, chain.SetBandStyle("A", map[string]string{"color": "blue"}))

		require.NoError(t, chain.MoveToBand("a1", "B"))

		assertShape(t, chain, "type1(a2)", "type2(b1)", "type1(a1)", "type3(c1)")
		band, err := chain.GetAtomBand("a1")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"color": "blue"}, band.Styles())
	})

	t.Run("same band moves to the end", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1,a2,a3)")

		require.NoError(t, chain.MoveToBand("a1", "a"))

		assert.Equal(t, "[A:type1(a2,a3,a1)]", chain.Layout())
	})

	t.Run("merges after relocation", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)", "C:type1(c1)")

		require.NoError(t, chain.MoveToBand("b1", "C"))

		assert.Equal(t, "[A:type1(a1,c1)][B:type2(b1)]", chain.Layout())
	})

	t.Run("preserve policy leaves runs unmerged", func(t *testing.T) {
		chain := buildChain(t, policyConfig(config.BandPolicyPreserve), "A:type1(a1)", "B:type2(b1)", "C:type1(c1)")

		require.NoError(t, chain.MoveToBand("b1", "C"))

		assert.Equal(t, "[A:type1(a1)][C:type1(c1)][B:type2(b1)]", chain.Layout())
	})

	t.Run("not found", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)")

		assert.True(t, pkgerrors.IsNotFound(chain.MoveToBand("zz", "B")))
		assert.True(t, pkgerrors.IsNotFound(chain.MoveToBand("a1", "zz")))
		assert.Equal(t, 1, chain.Version())
	})
}

func TestChain_MoveToBandAt(t *testing.T) {
	t.Run("same band degrades to a reorder", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1,a2,a3)")

		require.NoError(t, chain.MoveToBandAt("a2", "A", 1))

		assert.Equal(t, "[A:type1(a1,a2,a3)]", chain.Layout())
		assert.Equal(t, 1, chain.Version())
	})

	t.Run("interior position splits the target", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1,b2,b3)")

		require.NoError(t, chain.MoveToBandAt("a1", "B", 2))

		assertShape(t, chain, "type2(b1,b2)", "type1(a1)", "type2(b3)")
		ids := bandIDs(chain)
		assert.Equal(t, "B", ids[0])
		assert.Equal(t, "A", ids[1])
		assert.NotContains(t, []string{"A", "B"}, ids[2])
		assert.Contains(t, eventTypes(chain), events.TypeBandSplit)
	})

	t.Run("interior position with a copied carrier", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1,a2)", "B:type2(b1,b2)")

		require.NoError(t, chain.MoveToBandAt("a2", "B", 1))

		assertShape(t, chain, "type1(a1)", "type2(b1)", "type1(a2)", "type2(b2)")
		require.NoError(t, chain.Validate())
	})

	t.Run("split keeps target styles on both halves", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1,b2)")
		require.NoError(t, chain.SetBandStyle("B", map[string]string{"width": "full"}))

		require.NoError(t, chain.MoveToBandAt("a1", "B", 1))

		tail := chain.Bands()[2]
		assert.Equal(t, map[string]string{"width": "full"}, tail.Styles())
	})

	t.Run("position past the end appends", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1,b2)")

		require.NoError(t, chain.MoveToBandAt("a1", "B", 5))

		assert.Equal(t, "[B:type2(b1,b2)][A:type1(a1)]", chain.Layout())
	})

	t.Run("same type lands at the exact position", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1,a2)", "B:type2(b1)", "C:type1(c1,c2)")

		require.NoError(t, chain.MoveToBandAt("a1", "C", 1))

		assert.Equal(t, "[A:type1(a2)][B:type2(b1)][C:type1(c1,a1,c2)]", chain.Layout())
	})

	t.Run("front of the first band relocates a singleton source", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)")

		require.NoError(t, chain.MoveToBandAt("b1", "A", 0))

		assert.Equal(t, "[B:type2(b1)][A:type1(a1)]", chain.Layout())
	})

	t.Run("front of the first band copies a larger source", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1,b2)")

		require.NoError(t, chain.MoveToBandAt("b2", "A", 0))

		assertShape(t, chain, "type2(b2)", "type1(a1)", "type2(b1)")
	})

	t.Run("front of a later band appends to the previous one", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)", "C:type3(c1)")

		require.NoError(t, chain.MoveToBandAt("c1", "B", 0))

		assert.Equal(t, "[A:type1(a1)][C:type3(c1)][B:type2(b1)]", chain.Layout())
	})

	t.Run("negative position is treated as zero", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1,b2)")

		require.NoError(t, chain.MoveToBandAt("a1", "B", -3))

		assert.Equal(t, "[A:type1(a1)][B:type2(b1,b2)]", chain.Layout())
	})

	t.Run("not found", func(t *testing.T) {
		chain := buildChain(t, nil, "A:type1(a1)", "B:type2(b1)")

		assert.True(t, pkgerrors.IsNotFound(chain.MoveToBandAt("zz", "B", 0)))
		assert.True(t, pkgerrors.IsNotFound(chain.MoveToBandAt("a1", "zz", 0)))
	})
}

func TestChain_MoveAtom(t *testing.T) {
	layout := []string{"A:type1(a1,a2)", "B:type2(b1,b2)", "C:type1(c1)"}

	tests := []struct {
		name     string
		atomID   string
		position int
		want     []string
	}{
		{"to the end of its own band", "a1", 1, []string{"a2", "a1", "b1", "b2", "c1"}},
		{"into a foreign band", "a1", 2, []string{"a2", "b1", "a1", "b2", "c1"}},
		{"front of a same-typed band", "a1", 3, []string{"a2", "b1", "b2", "a1", "c1"}},
		{"to the front", "c1", 0, []string{"c1", "a1", "a2", "b1", "b2"}},
		{"backwards into a foreign band", "b2", 1, []string{"a1", "b2", "a2", "b1", "c1"}},
		{"past the end", "a1", 99, []string{"a2", "b1", "b2", "c1", "a1"}},
		{"negative", "b1", -2, []string{"b1", "a1", "a2", "b2", "c1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := buildChain(t, nil, layout...)

			require.NoError(t, chain.MoveAtom(tt.atomID, tt.position))

			if diff := cmp.Diff(tt.want, flatIDs(chain)); diff != "" {
				t.Errorf("flat order mismatch (-want +got):\n%s", diff)
			}
			require.NoError(t, chain.Validate())
		})
	}

	t.Run("current position is a no-op", func(t *testing.T) {
		chain := buildChain(t, policyConfig(config.BandPolicyPreserve), "A:type1(a1)", "B:type1(b1)", "C:type2(c1)")

		for i, id := range []string{"a1", "b1", "c1"} {
			require.NoError(t, chain.MoveAtom(id, i))
		}

		assert.Equal(t, "[A:type1(a1)][B:type1(b1)][C:type2(c1)]", chain.Layout())
		assert.Equal(t, 1, chain.Version())
	})

	t.Run("not found", func(t *testing.T) {
		chain := buildChain(t, nil, layout...)
		assert.True(t, pkgerrors.IsNotFound(chain.MoveAtom("zz", 0)))
		assert.True(t, pkgerrors.IsNotFound(NewChain(nil).MoveAtom("zz", 0)))
	})
}

// Random edit sequences must keep every structural invariant
func TestChain_RandomEdits(t *testing.T) {
	types := []string{"text", "image", "quote"}

	for _, policy := range []config.BandPolicy{config.BandPolicyMerge, config.BandPolicyPreserve} {
		for seed := uint64(1); seed <= 20; seed++ {
			t.Run(fmt.Sprintf("%s/seed=%d", policy, seed), func(t *testing.T) {
				cfg := policyConfig(policy)
				rng := rand.New(rand.NewPCG(seed, 42))
				chain := NewChain(cfg).WithAllocator(valueobjects.NewIDAllocator(cfg).WithSource(rand.NewPCG(seed, 7)))

				randomAtom := func() string {
					atoms := chain.Atoms()
					return atoms[rng.IntN(len(atoms))].ID()
				}
				randomBand := func() *entities.Band {
					bands := chain.Bands()
					return bands[rng.IntN(len(bands))]
				}
				position := func(n int) int {
					return rng.IntN(n+4) - 2
				}

				for step := 0; step < 200; step++ {
					if chain.AtomCount() < 3 || rng.IntN(6) == 0 {
						id, err := chain.NewAtomID()
						require.NoError(t, err)
						require.NoError(t, chain.AddAtom(newAtom(t, id, types[rng.IntN(len(types))])))
						continue
					}

					before := flatIDs(chain)
					var op string
					var err error

					switch rng.IntN(7) {
					case 0:
						op = "remove"
						_, err = chain.RemoveAtom(randomAtom())
					case 1:
						op = "moveInBand"
						err = chain.MoveInBand(randomAtom(), position(4))
					case 2:
						op = "moveBand"
						err = chain.MoveBand(randomBand().ID(), position(chain.BandCount()))
					case 3:
						op = "moveToBand"
						err = chain.MoveToBand(randomAtom(), randomBand().ID())
					case 4:
						op = "moveToBandAt"
						band := randomBand()
						err = chain.MoveToBandAt(randomAtom(), band.ID(), position(band.Len()))
					case 5:
						op = "moveAtom"
						id := randomAtom()
						k := position(chain.AtomCount())
						err = chain.MoveAtom(id, k)
						require.NoError(t, err)

						want := min(max(k, 0), len(before)-1)
						assert.Equal(t, want, chain.flatIndexOf(id), "step %d: %s to %d", step, id, k)
					case 6:
						op = "no-op"
						layoutBefore := chain.Layout()
						id := randomAtom()
						band, _ := chain.GetAtomBand(id)
						require.NoError(t, chain.MoveAtom(id, chain.flatIndexOf(id)))
						require.NoError(t, chain.MoveInBand(id, band.IndexOf(id)))
						require.NoError(t, chain.MoveBand(band.ID(), chain.indexOfBand(band)))
						assert.Equal(t, layoutBefore, chain.Layout(), "step %d", step)
					}
					require.NoError(t, err, "step %d: %s", step, op)

					require.NoError(t, chain.Validate(), "step %d: %s\n%s", step, op, chain.Layout())
					if op != "remove" {
						assert.ElementsMatch(t, before, flatIDs(chain), "step %d: %s", step, op)
					}
					if cfg.MergesBands() {
						bands := chain.Bands()
						for i := 1; i < len(bands); i++ {
							assert.False(t, bands[i].Accepts(bands[i-1].Type()),
								"step %d: %s left adjacent runs %s", step, op, chain.Layout())
						}
					}
				}
			})
		}
	}
}
