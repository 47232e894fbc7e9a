package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"chains/application/commands"
	"chains/application/commands/bus"
	"chains/application/ports"
	"chains/domain/core/aggregates"
	"chains/infrastructure/di"
	pkgerrors "chains/pkg/errors"
)

// Script is a sequence of edits applied to one fresh chain
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one edit. Bands are addressed either by id (band) or by one of
// their atoms (band_of), since band ids are allocated while the script runs.
type Step struct {
	Op       string                 `yaml:"op"`
	ID       string                 `yaml:"id,omitempty"`
	Type     string                 `yaml:"type,omitempty"`
	Payload  map[string]interface{} `yaml:"payload,omitempty"`
	Atom     string                 `yaml:"atom,omitempty"`
	Band     string                 `yaml:"band,omitempty"`
	BandOf   string                 `yaml:"band_of,omitempty"`
	Position *int                   `yaml:"position,omitempty"`
	Styles   map[string]string      `yaml:"styles,omitempty"`
	Mode     string                 `yaml:"mode,omitempty"`

	// Expect, when set, is the flattened atom order required after the step
	Expect []string `yaml:"expect,omitempty"`
}

// ParseScript decodes a YAML edit script
func ParseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("invalid script: %v", err)).WithCause(err)
	}
	if len(script.Steps) == 0 {
		return nil, pkgerrors.NewValidationError("script has no steps")
	}
	return &script, nil
}

// Replayer applies scripts through the command bus of a wired container
type Replayer struct {
	container *di.Container
	trace     io.Writer
	chainID   string
}

// NewReplayer creates a replayer. A non-nil trace receives the layout after every step.
func NewReplayer(container *di.Container, trace io.Writer) *Replayer {
	return &Replayer{container: container, trace: trace}
}

// Run creates a new chain and applies every step in order, stopping at the first failure
func (r *Replayer) Run(ctx context.Context, script *Script) (*aggregates.Chain, error) {
	create := &commands.CreateChainCommand{}
	if err := r.container.CommandBus.Send(ctx, create); err != nil {
		return nil, err
	}
	r.chainID = create.ChainID

	for i, step := range script.Steps {
		if err := r.apply(ctx, step); err != nil {
			return nil, pkgerrors.Wrapf(err, "step %d (%s)", i+1, step.Op)
		}

		// a delete sweep also forgets the chain
		if step.Op == "sweep" && commands.SweepOp(step.Mode) == commands.SweepDelete {
			if i != len(script.Steps)-1 {
				return nil, pkgerrors.NewValidationError(fmt.Sprintf("step %d (sweep): delete must be the last step", i+1))
			}
			return nil, nil
		}

		chain, err := r.chain(ctx)
		if err != nil {
			return nil, err
		}
		if r.trace != nil {
			fmt.Fprintf(r.trace, "%3d %-12s %s\n", i+1, step.Op, chain.Layout())
		}
		if step.Expect != nil {
			if got := atomOrder(chain); !slices.Equal(got, step.Expect) {
				return nil, pkgerrors.NewValidationError(fmt.Sprintf(
					"step %d (%s): expected order [%s], got [%s]",
					i+1, step.Op, strings.Join(step.Expect, " "), strings.Join(got, " ")))
			}
		}
	}

	return r.chain(ctx)
}

func (r *Replayer) apply(ctx context.Context, step Step) error {
	cmd, err := r.command(ctx, step)
	if err != nil || cmd == nil {
		return err
	}
	return r.container.CommandBus.Send(ctx, cmd)
}

// command translates a step into the command it stands for. A nil command
// with a nil error means the step only checks expectations.
func (r *Replayer) command(ctx context.Context, step Step) (bus.Command, error) {
	switch step.Op {
	case "push":
		cmd := commands.PushAtomCommand{
			ChainID: r.chainID,
			Data:    ports.PushData{ID: step.ID, Type: step.Type, Payload: step.Payload},
		}
		if step.Band != "" || step.BandOf != "" {
			bandID, err := r.band(ctx, step)
			if err != nil {
				return nil, err
			}
			cmd.BandID = bandID
		}
		return cmd, nil

	case "delete":
		return commands.DeleteAtomCommand{ChainID: r.chainID, AtomID: step.Atom}, nil

	case "move_in_band":
		pos, err := position(step)
		if err != nil {
			return nil, err
		}
		return commands.MoveInBandCommand{ChainID: r.chainID, AtomID: step.Atom, Position: pos}, nil

	case "move_band":
		pos, err := position(step)
		if err != nil {
			return nil, err
		}
		bandID, err := r.band(ctx, step)
		if err != nil {
			return nil, err
		}
		return commands.MoveBandCommand{ChainID: r.chainID, BandID: bandID, Position: pos}, nil

	case "move_to_band":
		bandID, err := r.band(ctx, step)
		if err != nil {
			return nil, err
		}
		return commands.MoveToBandCommand{
			ChainID:  r.chainID,
			AtomID:   step.Atom,
			BandID:   bandID,
			Position: step.Position,
		}, nil

	case "move_atom":
		pos, err := position(step)
		if err != nil {
			return nil, err
		}
		return commands.MoveAtomCommand{ChainID: r.chainID, AtomID: step.Atom, Position: pos}, nil

	case "style":
		bandID, err := r.band(ctx, step)
		if err != nil {
			return nil, err
		}
		return commands.SetBandStyleCommand{ChainID: r.chainID, BandID: bandID, Styles: step.Styles}, nil

	case "sweep":
		return commands.SweepChainCommand{ChainID: r.chainID, Op: commands.SweepOp(step.Mode)}, nil

	case "check":
		return nil, nil

	default:
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unknown op %q", step.Op))
	}
}

// band resolves the band a step addresses
func (r *Replayer) band(ctx context.Context, step Step) (string, error) {
	if step.Band != "" {
		return step.Band, nil
	}
	if step.BandOf == "" {
		return "", pkgerrors.NewValidationError("band or band_of is required")
	}
	chain, err := r.chain(ctx)
	if err != nil {
		return "", err
	}
	band, err := chain.GetAtomBand(step.BandOf)
	if err != nil {
		return "", err
	}
	return band.ID(), nil
}

func (r *Replayer) chain(ctx context.Context) (*aggregates.Chain, error) {
	return r.container.Chains.GetByID(ctx, aggregates.ChainID(r.chainID))
}

func position(step Step) (int, error) {
	if step.Position == nil {
		return 0, pkgerrors.NewValidationError("position is required")
	}
	return *step.Position, nil
}

func atomOrder(chain *aggregates.Chain) []string {
	ids := make([]string, 0, chain.AtomCount())
	for _, atom := range chain.Atoms() {
		ids = append(ids, atom.ID())
	}
	return ids
}
