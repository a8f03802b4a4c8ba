package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapsurvey/internal/cli/output"
	"github.com/leapstack-labs/leapsurvey/pkg/core"
	"github.com/spf13/cobra"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Reference bool // Show the root of the reference chain
}

// RulesOutput is the JSON/YAML output of the rules command.
type RulesOutput struct {
	Name      string           `json:"name" yaml:"name"`
	Reference string           `json:"reference,omitempty" yaml:"reference,omitempty"`
	Entities  []core.EntityDef `json:"entities" yaml:"entities"`
	Variables []core.Variable  `json:"variables" yaml:"variables"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the entities and variables of the rule system",
		Long: `Show the entities and variables of the configured rule system.

Variables with a formula are computed by the rule system; survey columns
carrying them are dropped when a simulation is built unless they are
declared as input variables.

Use --reference to inspect the baseline the rule system derives from.`,
		Example: `  # Show the configured rule system
  leapsurvey rules

  # Show its baseline
  leapsurvey rules --reference

  # Output as YAML
  leapsurvey rules -o yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRules(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Reference, "reference", false, "Show the root reference rule system")

	return cmd
}

func runRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd)
	loaded, err := cmdCtx.LoadRules()
	if err != nil {
		return err
	}

	var sys core.RuleSystem = loaded
	if opts.Reference {
		sys = core.ResolveReference(sys)
	}

	out := RulesOutput{
		Name:      sys.Name(),
		Entities:  sys.Entities(),
		Variables: sys.Variables(),
	}
	if ref := sys.Reference(); ref != nil {
		out.Reference = ref.Name()
	}

	r := cmdCtx.Renderer
	return r.Emit(out, func() error {
		renderRulesText(r, out)
		return nil
	})
}

func renderRulesText(r *output.Renderer, out RulesOutput) {
	if out.Reference != "" {
		r.Printf("Rule system %s (reform of %s)\n\n", out.Name, out.Reference)
	} else {
		r.Printf("Rule system %s\n\n", out.Name)
	}

	entityRows := make([][]any, 0, len(out.Entities))
	for _, e := range out.Entities {
		entityRows = append(entityRows, []any{e.Key, e.Plural, yesNo(e.IsPersons), e.IndexColumn, e.RoleColumn})
	}
	r.Table("Entities", []string{"key", "plural", "persons", "index", "role"}, entityRows)
	r.Printf("\n")

	varRows := make([][]any, 0, len(out.Variables))
	computed := 0
	for _, v := range out.Variables {
		if v.IsComputed() {
			computed++
		}
		varRows = append(varRows, []any{v.Name, v.Entity, v.DType, v.Formula, v.Label})
	}
	r.Table(fmt.Sprintf("Variables (%s total, %s computed)", r.Number(len(out.Variables)), r.Number(computed)),
		[]string{"name", "entity", "dtype", "formula", "label"}, varRows)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
