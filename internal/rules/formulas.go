package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/syntax"
)

// FormulaDef is a derivation function found in a formula file.
type FormulaDef struct {
	Variable  string   // Variable the formula computes
	Params    []string // Parameter names, defaults rendered as "x=1"
	Docstring string
	File      string
	Line      int
}

// Location returns "file.star:line".
func (f FormulaDef) Location() string {
	return fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
}

// ParseError reports a formula file that is not valid Starlark.
type ParseError struct {
	File    string
	Message string
}

func (e *ParseError) Error() string {
	return "parse " + filepath.Base(e.File) + ": " + e.Message
}

// ParseFormulas statically parses a .star file and returns its public
// top-level functions. The file is never executed.
func ParseFormulas(filename string, content []byte) ([]FormulaDef, error) {
	f, err := syntax.Parse(filename, content, 0)
	if err != nil {
		return nil, &ParseError{File: filename, Message: err.Error()}
	}

	var defs []FormulaDef
	for _, stmt := range f.Stmts {
		def, ok := stmt.(*syntax.DefStmt)
		if !ok {
			continue
		}
		// Helpers start with _
		if strings.HasPrefix(def.Name.Name, "_") {
			continue
		}
		defs = append(defs, FormulaDef{
			Variable:  def.Name.Name,
			Params:    paramNames(def.Params),
			Docstring: docstring(def.Body),
			File:      filename,
			Line:      int(def.Name.NamePos.Line),
		})
	}
	return defs, nil
}

// ParseFormulaDir parses every .star file of dir, sorted by file name.
// A missing directory yields no formulas.
func ParseFormulaDir(dir string) ([]FormulaDef, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.star"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan formulas directory: %w", err)
	}
	sort.Strings(files)

	var all []FormulaDef
	for _, file := range files {
		content, err := os.ReadFile(file) //nolint:gosec // G304: file comes from a glob inside the formulas directory
		if err != nil {
			return nil, fmt.Errorf("failed to read formula file: %w", err)
		}
		defs, err := ParseFormulas(file, content)
		if err != nil {
			return nil, err
		}
		all = append(all, defs...)
	}
	return all, nil
}

func paramNames(params []syntax.Expr) []string {
	var names []string
	for _, param := range params {
		switch p := param.(type) {
		case *syntax.Ident:
			names = append(names, p.Name)
		case *syntax.BinaryExpr:
			if p.Op != syntax.EQ {
				continue
			}
			if ident, ok := p.X.(*syntax.Ident); ok {
				if lit, ok := p.Y.(*syntax.Literal); ok {
					names = append(names, ident.Name+"="+lit.Raw)
				} else {
					names = append(names, ident.Name+"=...")
				}
			}
		case *syntax.UnaryExpr:
			if ident, ok := p.X.(*syntax.Ident); ok {
				prefix := "*"
				if p.Op == syntax.STARSTAR {
					prefix = "**"
				}
				names = append(names, prefix+ident.Name)
			}
		}
	}
	return names
}

func docstring(body []syntax.Stmt) string {
	if len(body) == 0 {
		return ""
	}
	exprStmt, ok := body[0].(*syntax.ExprStmt)
	if !ok {
		return ""
	}
	lit, ok := exprStmt.X.(*syntax.Literal)
	if !ok || lit.Token != syntax.STRING {
		return ""
	}
	s, ok := lit.Value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
