package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"chains/application/queries"
	querybus "chains/application/queries/bus"
	"chains/infrastructure/di"
	pkgerrors "chains/pkg/errors"
)

var (
	traceSteps   bool
	outputFormat string
)

var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>",
	Short: "Apply an edit script to a new chain",
	Long: `Reads a YAML edit script, applies each step to a fresh chain and prints
the final layout. Steps may carry an "expect" list of atom ids which must
match the flattened order after the step.

Example:

  steps:
    - {op: push, id: a1, type: text}
    - {op: push, id: b1, type: image}
    - {op: move_atom, atom: b1, position: 0, expect: [b1, a1]}`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVarP(&traceSteps, "trace", "t", false, "Print the layout after every step")
	replayCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text, json, yaml)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read script %s", args[0])
	}
	script, err := ParseScript(data)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	container, err := di.InitializeContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Shutdown()

	var trace io.Writer
	if traceSteps {
		trace = cmd.OutOrStdout()
	}

	chain, err := NewReplayer(container, trace).Run(cmd.Context(), script)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if chain == nil {
		fmt.Fprintln(out, "chain deleted")
		return nil
	}

	view, err := querybus.Ask[*queries.ChainView](cmd.Context(), container.QueryBus, queries.GetChainQuery{ChainID: chain.ID().String()})
	if err != nil {
		return err
	}
	return printView(out, view, string(cfg.Domain.BandPolicy))
}

func printView(out io.Writer, view *queries.ChainView, policy string) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(view)
	case "text", "":
		atomIDs := []string{}
		for _, band := range view.Bands {
			atomIDs = append(atomIDs, band.Atoms...)
		}
		fmt.Fprintf(out, "layout: %s\n", view.Layout)
		fmt.Fprintf(out, "atoms:  %s\n", strings.Join(atomIDs, " "))
		fmt.Fprintf(out, "bands:  %d (policy %s)\n", len(view.Bands), policy)
		return nil
	default:
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown output format %q", outputFormat))
	}
}
