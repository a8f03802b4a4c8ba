package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/leapsurvey/pkg/core"
)

// Catalog file and directory names inside a rule-system directory.
const (
	SystemFileName  = "system.yaml"
	FormulasDirName = "formulas"
)

// systemFile is the on-disk shape of system.yaml.
type systemFile struct {
	Name      string           `koanf:"name"`
	Reference string           `koanf:"reference"`
	Entities  []core.EntityDef `koanf:"entities"`
	Variables []variableFile   `koanf:"variables"`
}

type variableFile struct {
	Name   string `koanf:"name"`
	Entity string `koanf:"entity"`
	DType  string `koanf:"dtype"`
	Label  string `koanf:"label"`
}

// Load reads the rule system stored in dir. When system.yaml names a
// reference directory, that catalog is loaded first and dir is applied on
// top of it as a reform; chains are followed and cycles rejected.
func Load(dir string) (*System, error) {
	return load(dir, make(map[string]bool))
}

func load(dir string, visiting map[string]bool) (*System, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if visiting[abs] {
		return nil, fmt.Errorf("%w: reference cycle through %s", ErrInvalidSystem, abs)
	}
	visiting[abs] = true

	path := filepath.Join(abs, SystemFileName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("rule system not found: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	var sf systemFile
	if err := k.Unmarshal("", &sf); err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", path, err)
	}
	if sf.Name == "" {
		sf.Name = filepath.Base(abs)
	}

	vars := make([]core.Variable, 0, len(sf.Variables))
	for _, vf := range sf.Variables {
		dtype, err := core.ParseDType(vf.DType)
		if err != nil {
			return nil, fmt.Errorf("%w: variable %q: %v", ErrInvalidSystem, vf.Name, err)
		}
		vars = append(vars, core.Variable{Name: vf.Name, Entity: vf.Entity, DType: dtype, Label: vf.Label})
	}

	var sys *System
	if sf.Reference != "" {
		refDir := sf.Reference
		if !filepath.IsAbs(refDir) {
			refDir = filepath.Join(abs, refDir)
		}
		base, err := load(refDir, visiting)
		if err != nil {
			return nil, fmt.Errorf("loading reference of %s: %w", sf.Name, err)
		}
		if len(sf.Entities) > 0 {
			return nil, fmt.Errorf("%w: %s redefines entities of its reference", ErrInvalidSystem, sf.Name)
		}
		sys, err = NewReform(sf.Name, base, vars...)
		if err != nil {
			return nil, err
		}
	} else {
		sys, err = NewSystem(sf.Name, sf.Entities, vars...)
		if err != nil {
			return nil, err
		}
	}

	formulas, err := ParseFormulaDir(filepath.Join(abs, FormulasDirName))
	if err != nil {
		return nil, err
	}
	for _, f := range formulas {
		if err := sys.setFormula(f.Variable, f.Location()); err != nil {
			return nil, err
		}
	}
	return sys, nil
}
