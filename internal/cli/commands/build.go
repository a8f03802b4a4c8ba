package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapsurvey/internal/cli/output"
	"github.com/leapstack-labs/leapsurvey/internal/frame"
	"github.com/leapstack-labs/leapsurvey/internal/scenario"
	"github.com/leapstack-labs/leapsurvey/internal/state"
	"github.com/leapstack-labs/leapsurvey/pkg/core"
	"github.com/spf13/cobra"
)

// BuildOptions holds options for the build command.
type BuildOptions struct {
	Columns      []string
	Inputs       []string
	DType        string
	UseReference bool
	Debug        bool
	Trace        bool
	Record       bool
}

// BuildOutput is the JSON/YAML output of the build command.
type BuildOutput struct {
	ID          string                    `json:"id,omitempty" yaml:"id,omitempty"`
	RuleSystem  string                    `json:"rule_system" yaml:"rule_system"`
	Period      string                    `json:"period" yaml:"period"`
	Entities    []scenario.EntityReport   `json:"entities" yaml:"entities"`
	Columns     []scenario.ColumnDecision `json:"columns" yaml:"columns"`
	Conversions []scenario.Conversion     `json:"conversions,omitempty" yaml:"conversions,omitempty"`
	Inflations  []scenario.Inflator       `json:"inflations,omitempty" yaml:"inflations,omitempty"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	opts := &BuildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a simulation from survey column headers",
		Long: `Build a simulation over an empty survey with the given columns.

Every step of a real build runs: linkage columns are checked, unknown and
computed columns are dropped, columns are cast to their variable dtype,
configured weights are initialized and configured inflators applied. No
survey values are read, so every entity has zero members.

Use --record to store the build and its inflations in the run history.`,
		Example: `  # Build against the configured rule system
  leapsurvey build --columns idmen,quimen,salary,rent

  # Build on the reference rule system with int64 columns
  leapsurvey build --columns idmen,quimen,salary --use-reference --dtype int64

  # Record the build
  leapsurvey build --columns idmen,quimen,salary --record`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "Survey column names, comma separated")
	cmd.Flags().StringSliceVar(&opts.Inputs, "inputs", nil, "Computed variables to keep as inputs (default: input_variables from config)")
	cmd.Flags().StringVar(&opts.DType, "dtype", string(core.DTypeFloat64), "Storage type of the survey columns")
	cmd.Flags().BoolVar(&opts.UseReference, "use-reference", false, "Build on the root of the reference chain (default: use_reference from config)")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Enable simulation debug logging (default: debug from config)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "Enable simulation tracing (default: trace from config)")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "Store the build in the run history")
	_ = cmd.MarkFlagRequired("columns")

	_ = cmd.RegisterFlagCompletionFunc("dtype", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(core.AllDTypes))
		for i, d := range core.AllDTypes {
			names[i] = d.String()
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runBuild(cmd *cobra.Command, opts *BuildOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	flags := cmd.Flags()

	if cfg.Year == 0 {
		return fmt.Errorf("%w: set year in config or pass --year", scenario.ErrMissingYear)
	}
	dtype, err := core.ParseDType(opts.DType)
	if err != nil {
		return err
	}

	simOpts := cfg.ScenarioOptions()
	if flags.Changed("use-reference") {
		simOpts.UseReference = opts.UseReference
	}
	if flags.Changed("debug") {
		simOpts.Debug = opts.Debug
	}
	if flags.Changed("trace") {
		simOpts.Trace = opts.Trace
	}
	inputs := opts.Inputs
	if !flags.Changed("inputs") {
		inputs = cfg.InputVariables
	}

	sys, err := cmdCtx.LoadRules()
	if err != nil {
		return err
	}
	if err := scenario.CheckInflators(sys, cfg.Inflators); err != nil {
		return fmt.Errorf("invalid inflators: %w", err)
	}

	ds := frame.New()
	for _, name := range opts.Columns {
		if err := ds.AddColumn(name, core.NewArray(dtype, nil)); err != nil {
			return err
		}
	}

	sc, err := scenario.New(scenario.Config{
		Logger: cmdCtx.Logger,
		Hooks:  scenario.Hooks{InitializeWeights: scenario.WeightsHook(cfg.Weights)},
	}).InitFromDataFrame(ds, sys, inputs, cfg.Year)
	if err != nil {
		return err
	}
	if _, err := sc.NewSimulation(simOpts); err != nil {
		return err
	}

	var store state.Store
	var id string
	if opts.Record {
		sqlite, cleanup, err := cmdCtx.OpenStore()
		if err != nil {
			return err
		}
		defer cleanup()
		store = sqlite
		if id, err = store.RecordBuild(cmd.Context(), state.KindBuild, sc.Report()); err != nil {
			return err
		}
	}

	if len(cfg.Inflators) > 0 {
		if err := sc.Inflate(cfg.Inflators); err != nil {
			return fmt.Errorf("invalid inflators: %w", err)
		}
		if store != nil {
			if err := store.RecordInflations(cmd.Context(), id, cfg.Inflators); err != nil {
				return err
			}
		}
	}

	report := sc.Report()
	out := BuildOutput{
		ID:          id,
		RuleSystem:  report.RuleSystem,
		Period:      report.Period.String(),
		Entities:    report.Entities,
		Columns:     report.Columns,
		Conversions: report.Conversions,
		Inflations:  report.Inflations,
	}

	r := cmdCtx.Renderer
	return r.Emit(out, func() error {
		renderBuildText(r, out)
		return nil
	})
}

func renderBuildText(r *output.Renderer, out BuildOutput) {
	rows := make([][]any, 0, len(out.Entities))
	for _, e := range out.Entities {
		rows = append(rows, []any{e.Key, e.Count, e.RolesCount})
	}
	r.Table(fmt.Sprintf("Simulation for %s, period %s", out.RuleSystem, out.Period),
		[]string{"entity", "count", "roles"}, rows)

	injected := scenario.ColumnPlan{Decisions: out.Columns}.Kept()
	r.Printf("\n%s of %s columns injected, %s converted\n",
		r.Number(len(injected)), r.Number(len(out.Columns)), r.Number(len(out.Conversions)))

	if len(out.Inflations) > 0 {
		rows = make([][]any, 0, len(out.Inflations))
		for _, inf := range out.Inflations {
			rows = append(rows, []any{inf.Variable, inf.Factor})
		}
		r.Println("")
		r.Table("Inflations", []string{"variable", "factor"}, rows)
	}
	if out.ID != "" {
		r.Printf("Recorded build %s\n", out.ID)
	}
}
