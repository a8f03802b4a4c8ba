// Package state records the history of scenario builds and column plans in
// SQLite. Only metadata is stored: decisions, entity sizes and inflations,
// never survey values.
package state

import (
	"context"
	"time"

	"github.com/leapstack-labs/leapsurvey/internal/scenario"
)

// Kind distinguishes recorded entries.
type Kind string

// Entry kinds.
const (
	KindBuild Kind = "build" // a NewSimulation call
	KindPlan  Kind = "plan"  // a column plan computed without data
)

// Build is a recorded entry with its details.
type Build struct {
	ID         string                    `json:"id" yaml:"id"`
	Kind       Kind                      `json:"kind" yaml:"kind"`
	RuleSystem string                    `json:"rule_system" yaml:"rule_system"`
	Period     string                    `json:"period" yaml:"period"`
	Rows       int                       `json:"rows" yaml:"rows"`
	CreatedAt  time.Time                 `json:"created_at" yaml:"created_at"`
	Entities   []scenario.EntityReport   `json:"entities,omitempty" yaml:"entities,omitempty"`
	Columns    []scenario.ColumnDecision `json:"columns,omitempty" yaml:"columns,omitempty"`
	Inflations []scenario.Inflator       `json:"inflations,omitempty" yaml:"inflations,omitempty"`
}

// Store defines the run-history operations.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	RecordBuild(ctx context.Context, kind Kind, report *scenario.Report) (string, error)
	RecordInflations(ctx context.Context, buildID string, inflators []scenario.Inflator) error
	GetBuild(ctx context.Context, id string) (*Build, error)
	ListBuilds(ctx context.Context, limit int) ([]*Build, error)
}

var _ Store = (*SQLiteStore)(nil)
