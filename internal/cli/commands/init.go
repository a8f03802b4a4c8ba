package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapsurvey/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leapsurvey project",
		Long: `Initialize a new leapsurvey project with a sample rule system and configuration.

This creates:
  - leapsurvey.yaml configuration file
  - rules/system.yaml with a persons entity and a household entity
  - rules/formulas/ with a Starlark formula file`,
		Example: `  # Initialize in current directory
  leapsurvey init

  # Initialize in a new directory
  leapsurvey init my-survey

  # Force overwrite existing files
  leapsurvey init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "leapsurvey.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("leapsurvey.yaml already exists. Use --force to overwrite")
	}

	if err := copyTemplate("minimal", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, _ := listTemplateFiles("minimal")
	for _, f := range files {
		r.Printf("  created %s\n", f)
	}

	r.Printf("\nleapsurvey project initialized!\n\n")
	r.Printf("Next steps:\n")
	r.Printf("  1. Describe your rule system in rules/system.yaml\n")
	r.Printf("  2. Run 'leapsurvey rules' to inspect it\n")
	r.Printf("  3. Run 'leapsurvey plan --columns ...' to check a survey's columns\n")
	r.Printf("  4. Run 'leapsurvey doctor' to validate the project\n")

	return nil
}
