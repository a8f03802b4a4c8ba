package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapsurvey/internal/cli/output"
	"github.com/leapstack-labs/leapsurvey/internal/state"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command and its show subcommand.
func NewHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded builds and plans",
		Long: `List the simulation builds and column plans stored in the run history,
newest first. Only metadata is recorded: column decisions, entity sizes
and inflations, never survey values.`,
		Example: `  # Show the last 20 entries
  leapsurvey history

  # Show everything as JSON
  leapsurvey history --limit 0 -o json

  # Show one entry by id prefix
  leapsurvey history show 3f2a9c`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries (0 for all)")

	cmd.AddCommand(newHistoryShowCommand())
	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded build or plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, args[0])
		},
	}
}

func runHistoryList(cmd *cobra.Command, limit int) error {
	cmdCtx := NewCommandContext(cmd)
	store, cleanup, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer cleanup()

	builds, err := store.ListBuilds(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if builds == nil {
		builds = []*state.Build{}
	}

	r := cmdCtx.Renderer
	return r.Emit(builds, func() error {
		rows := make([][]any, 0, len(builds))
		for _, b := range builds {
			rows = append(rows, []any{shortID(b.ID), b.Kind, b.RuleSystem, b.Period, r.Number(b.Rows), b.CreatedAt.Local().Format(time.DateTime)})
		}
		r.Table(fmt.Sprintf("History (%s entries)", r.Number(len(builds))),
			[]string{"id", "kind", "rule system", "period", "rows", "created"}, rows)
		return nil
	})
}

func runHistoryShow(cmd *cobra.Command, id string) error {
	cmdCtx := NewCommandContext(cmd)
	store, cleanup, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer cleanup()

	b, err := store.GetBuild(cmd.Context(), id)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	return r.Emit(b, func() error {
		renderBuildRecordText(r, b)
		return nil
	})
}

func renderBuildRecordText(r *output.Renderer, b *state.Build) {
	r.Printf("%s %s\n", b.Kind, b.ID)
	r.Printf("Rule system: %s\n", b.RuleSystem)
	r.Printf("Period:      %s\n", b.Period)
	r.Printf("Rows:        %s\n", r.Number(b.Rows))
	r.Printf("Created:     %s\n\n", b.CreatedAt.Local().Format(time.DateTime))

	if len(b.Entities) > 0 {
		rows := make([][]any, 0, len(b.Entities))
		for _, e := range b.Entities {
			rows = append(rows, []any{e.Key, r.Number(e.Count), r.Number(e.RolesCount)})
		}
		r.Table("Entities", []string{"key", "count", "roles"}, rows)
		r.Printf("\n")
	}

	rows := make([][]any, 0, len(b.Columns))
	for _, d := range b.Columns {
		rows = append(rows, []any{d.Column, yesNo(d.Keep), d.Reason, d.Entity, d.DType})
	}
	r.Table("Columns", []string{"column", "kept", "reason", "entity", "dtype"}, rows)

	if len(b.Inflations) > 0 {
		r.Printf("\n")
		rows := make([][]any, 0, len(b.Inflations))
		for _, inf := range b.Inflations {
			rows = append(rows, []any{inf.Variable, inf.Factor})
		}
		r.Table("Inflations", []string{"variable", "factor"}, rows)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
