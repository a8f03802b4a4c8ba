// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/leapstack-labs/leapsurvey/internal/cli/output"
)

const systemYAML = `name: households
entities:
  - key: individu
    plural: individus
    is_persons: true
  - key: menage
    plural: menages
    index_column: idmen
    role_column: quimen
variables:
  - name: idmen
    entity: individu
    dtype: int32
  - name: quimen
    entity: individu
    dtype: int16
  - name: salary
    entity: individu
    dtype: float32
    label: Gross salary
  - name: income_tax
    entity: individu
    dtype: float32
  - name: rent
    entity: menage
    dtype: float32
  - name: wprm
    entity: menage
    dtype: float32
`

const taxesStar = `def income_tax(salary):
    return salary * 0.2
`

const reformYAML = `name: flat-rent
reference: ../rules
variables:
  - name: housing_benefit
    entity: menage
    dtype: float32
`

const reformStar = `def housing_benefit(rent):
    return rent * 0.1
`

// SetupTestProject creates a temporary project with a rule system, a reform
// of it and a leapsurvey.yaml pointing at the reform.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	files := map[string]string{
		filepath.Join("rules", "system.yaml"):            systemYAML,
		filepath.Join("rules", "formulas", "taxes.star"): taxesStar,
		filepath.Join("reform", "system.yaml"):           reformYAML,
		filepath.Join("reform", "formulas", "rent.star"): reformStar,
		"leapsurvey.yaml":                                "rules_dir: reform\nstate_path: history.db\nyear: 2015\n",
	}
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
