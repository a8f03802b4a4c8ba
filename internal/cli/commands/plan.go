package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapsurvey/internal/cli/output"
	"github.com/leapstack-labs/leapsurvey/internal/scenario"
	"github.com/leapstack-labs/leapsurvey/internal/state"
	"github.com/leapstack-labs/leapsurvey/pkg/core"
	"github.com/spf13/cobra"
)

// PlanOptions holds options for the plan command.
type PlanOptions struct {
	Columns []string
	Inputs  []string
	Record  bool
}

// PlanOutput is the JSON/YAML output of the plan command.
type PlanOutput struct {
	ID         string                    `json:"id,omitempty" yaml:"id,omitempty"`
	RuleSystem string                    `json:"rule_system" yaml:"rule_system"`
	Period     string                    `json:"period" yaml:"period"`
	Columns    []scenario.ColumnDecision `json:"columns" yaml:"columns"`
	Kept       []string                  `json:"kept" yaml:"kept"`
	Dropped    []string                  `json:"dropped" yaml:"dropped"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	opts := &PlanOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which survey columns would become simulation inputs",
		Long: `Compute the column plan of a survey without loading it.

Given the column names of a survey dataset, plan reports for each column
whether it would be injected into the simulation and why: linkage columns
and plain inputs are kept, columns unknown to the rule system or computed by
it are dropped, unless listed with --inputs.

The configured inflators and weights are checked against the rule system.
Use --record to store the plan in the run history.`,
		Example: `  # Plan a survey with five columns
  leapsurvey plan --columns idmen,quimen,salary,income_tax,zone

  # Keep a computed column as input
  leapsurvey plan --columns idmen,quimen,income_tax --inputs income_tax

  # Record the plan
  leapsurvey plan --columns idmen,quimen,salary --record`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "Survey column names, comma separated")
	cmd.Flags().StringSliceVar(&opts.Inputs, "inputs", nil, "Computed variables to keep as inputs (default: input_variables from config)")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "Store the plan in the run history")
	_ = cmd.MarkFlagRequired("columns")

	return cmd
}

func runPlan(cmd *cobra.Command, opts *PlanOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	if cfg.Year == 0 {
		return fmt.Errorf("%w: set year in config or pass --year", scenario.ErrMissingYear)
	}

	loaded, err := cmdCtx.LoadRules()
	if err != nil {
		return err
	}
	var sys core.RuleSystem = loaded
	if cfg.UseReference {
		sys = core.ResolveReference(sys)
	}

	inputs := opts.Inputs
	if !cmd.Flags().Changed("inputs") {
		inputs = cfg.InputVariables
	}

	plan, err := scenario.PlanColumns(opts.Columns, sys, inputs)
	if err != nil {
		return err
	}
	if err := scenario.CheckInflators(loaded, cfg.Inflators); err != nil {
		return fmt.Errorf("invalid inflators: %w", err)
	}
	if err := scenario.CheckWeights(sys, cfg.Weights); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}

	report := &scenario.Report{
		RuleSystem: sys.Name(),
		Period:     core.PeriodFromYear(cfg.Year),
		Columns:    plan.Decisions,
	}
	out := PlanOutput{
		RuleSystem: report.RuleSystem,
		Period:     report.Period.String(),
		Columns:    plan.Decisions,
		Kept:       plan.Kept(),
		Dropped:    plan.Dropped(),
	}

	if opts.Record {
		store, cleanup, err := cmdCtx.OpenStore()
		if err != nil {
			return err
		}
		defer cleanup()
		id, err := store.RecordBuild(cmd.Context(), state.KindPlan, report)
		if err != nil {
			return err
		}
		out.ID = id
	}

	r := cmdCtx.Renderer
	return r.Emit(out, func() error {
		renderPlanText(r, out)
		return nil
	})
}

func renderPlanText(r *output.Renderer, out PlanOutput) {
	rows := make([][]any, 0, len(out.Columns))
	for _, d := range out.Columns {
		action := "drop"
		if d.Keep {
			action = "keep"
		}
		rows = append(rows, []any{d.Column, action, d.Reason, d.Entity, d.DType})
	}
	r.Table(fmt.Sprintf("Column plan for %s, period %s", out.RuleSystem, out.Period),
		[]string{"column", "action", "reason", "entity", "dtype"}, rows)
	r.Printf("\n%s of %s columns kept\n", r.Number(len(out.Kept)), r.Number(len(out.Columns)))
	if out.ID != "" {
		r.Printf("Recorded plan %s\n", out.ID)
	}
}
