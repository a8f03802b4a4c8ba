package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapsurvey/internal/cli/config"
	"github.com/leapstack-labs/leapsurvey/internal/cli/output"
	"github.com/leapstack-labs/leapsurvey/internal/rules"
	"github.com/leapstack-labs/leapsurvey/internal/scenario"
	"github.com/leapstack-labs/leapsurvey/pkg/core"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Check statuses.
const (
	StatusPass  = "pass"
	StatusWarn  = "warn"
	StatusError = "error"
)

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	ConfigFile string        `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	Checks     []HealthCheck `json:"checks" yaml:"checks"`
	Errors     int           `json:"errors" yaml:"errors"`
	Warnings   int           `json:"warnings" yaml:"warnings"`
}

// HealthCheck represents a single check result.
type HealthCheck struct {
	Name    string   `json:"name" yaml:"name"`
	Group   string   `json:"group" yaml:"group"`
	Status  string   `json:"status" yaml:"status"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
}

func (o *DoctorOutput) add(c HealthCheck) {
	switch c.Status {
	case StatusError:
		o.Errors++
	case StatusWarn:
		o.Warnings++
	}
	o.Checks = append(o.Checks, c)
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the project configuration and rule system",
		Long: `Check that the project is ready to build simulations:

- the rule system loads, with its reference chain and formulas
- input variables, inflators and weights name known variables
- the run-history database opens and is migrated

Exits with an error when any check fails.`,
		Example: `  # Run all checks
  leapsurvey doctor

  # Output as JSON
  leapsurvey doctor -o json`,
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	out := &DoctorOutput{ConfigFile: config.GetConfigFileUsed()}

	if out.ConfigFile == "" {
		out.add(HealthCheck{Name: "config file", Group: "project", Status: StatusWarn,
			Details: []string{"no leapsurvey.yaml found, using defaults"}})
	} else {
		out.add(HealthCheck{Name: "config file", Group: "project", Status: StatusPass,
			Details: []string{out.ConfigFile}})
	}
	if cfg.Year == 0 {
		out.add(HealthCheck{Name: "year", Group: "project", Status: StatusWarn,
			Details: []string{"year is not set; plan and builds need one"}})
	}

	if sys, err := cmdCtx.LoadRules(); err != nil {
		out.add(HealthCheck{Name: "rule system", Group: "rules", Status: StatusError, Details: []string{err.Error()}})
	} else {
		checkRuleSystem(out, sys, cfg)
	}

	if store, cleanup, err := cmdCtx.OpenStore(); err != nil {
		out.add(HealthCheck{Name: "run history", Group: "storage", Status: StatusError, Details: []string{err.Error()}})
	} else {
		version, err := store.GetMigrationVersion()
		cleanup()
		if err != nil {
			out.add(HealthCheck{Name: "run history", Group: "storage", Status: StatusError, Details: []string{err.Error()}})
		} else {
			out.add(HealthCheck{Name: "run history", Group: "storage", Status: StatusPass,
				Details: []string{fmt.Sprintf("%s (schema version %d)", cfg.StatePath, version)}})
		}
	}

	r := cmdCtx.Renderer
	if err := r.Emit(out, func() error {
		renderDoctorText(r, out)
		return nil
	}); err != nil {
		return err
	}
	if out.Errors > 0 {
		return fmt.Errorf("%d check(s) failed", out.Errors)
	}
	return nil
}

func checkRuleSystem(out *DoctorOutput, sys *rules.System, cfg *config.Config) {
	chain := []string{sys.Name()}
	for ref := sys.Reference(); ref != nil; ref = ref.Reference() {
		chain = append(chain, ref.Name())
	}
	computed := 0
	for _, v := range sys.Variables() {
		if v.IsComputed() {
			computed++
		}
	}
	out.add(HealthCheck{Name: "rule system", Group: "rules", Status: StatusPass, Details: []string{
		strings.Join(chain, " -> "),
		fmt.Sprintf("%d entities, %d variables, %d computed", len(sys.Entities()), len(sys.Variables()), computed),
	}})

	var inputIssues []string
	for _, name := range cfg.InputVariables {
		v, ok := sys.Variable(name)
		switch {
		case !ok:
			inputIssues = append(inputIssues, fmt.Sprintf("%s is not a variable", name))
		case !v.IsComputed():
			inputIssues = append(inputIssues, fmt.Sprintf("%s has no formula; listing it is unnecessary", name))
		}
	}
	out.add(statusFor("input variables", inputIssues, StatusWarn))

	var inflatorIssues []string
	if err := scenario.CheckInflators(sys, cfg.Inflators); err != nil {
		inflatorIssues = append(inflatorIssues, err.Error())
	}
	out.add(statusFor("inflators", inflatorIssues, StatusError))

	var weightSys core.RuleSystem = sys
	if cfg.UseReference {
		weightSys = core.ResolveReference(sys)
	}
	var weightIssues []string
	if err := scenario.CheckWeights(weightSys, cfg.Weights); err != nil {
		weightIssues = append(weightIssues, err.Error())
	}
	out.add(statusFor("weights", weightIssues, StatusError))
}

func statusFor(name string, issues []string, failStatus string) HealthCheck {
	c := HealthCheck{Name: name, Group: "configuration", Status: StatusPass, Details: issues}
	if len(issues) > 0 {
		c.Status = failStatus
	}
	return c
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()

	r.Println(styles.Header.Render("leapsurvey project health report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 40)))

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("")
			r.Println(styles.Bold.Render("  " + titleCaser.String(currentGroup)))
		}

		icon := styles.Success.Render("ok")
		switch check.Status {
		case StatusWarn:
			icon = styles.Warning.Render("!!")
		case StatusError:
			icon = styles.Error.Render("xx")
		}
		r.Printf("  %s %s\n", icon, check.Name)
		for _, detail := range check.Details {
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}

	r.Println("")
	r.Printf("%d error(s), %d warning(s)\n", out.Errors, out.Warnings)
}
