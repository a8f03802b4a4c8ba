package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapsurvey/internal/scenario"
	"github.com/leapstack-labs/leapsurvey/pkg/core"
)

// timeFormat has a fixed width so created_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// --- Build operations ---

// RecordBuild stores a report with its entity sizes and column decisions.
// Inflations already present in the report are stored too.
func (s *SQLiteStore) RecordBuild(ctx context.Context, kind Kind, report *scenario.Report) (string, error) {
	if report == nil {
		return "", fmt.Errorf("record build: nil report")
	}
	tx, err := s.begin(ctx)
	if err != nil {
		return "", err
	}
	defer rollback(tx)

	id := generateID()
	now := time.Now().UTC().Format(timeFormat)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO builds (id, kind, rule_system, period, rows, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(kind), report.RuleSystem, report.Period.String(), report.Rows, now,
	); err != nil {
		return "", fmt.Errorf("failed to insert build: %w", err)
	}

	for _, e := range report.Entities {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO build_entities (build_id, entity_key, count, roles_count) VALUES (?, ?, ?, ?)`,
			id, e.Key, e.Count, e.RolesCount,
		); err != nil {
			return "", fmt.Errorf("failed to insert entity %s: %w", e.Key, err)
		}
	}

	for i, c := range report.Columns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO build_columns (build_id, position, column_name, keep, reason, entity, dtype) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, c.Column, c.Keep, string(c.Reason), nullString(c.Entity), nullString(string(c.DType)),
		); err != nil {
			return "", fmt.Errorf("failed to insert column %s: %w", c.Column, err)
		}
	}

	if err := insertInflations(ctx, tx, id, 0, report.Inflations); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit build: %w", err)
	}
	s.logger.Debug("recorded build",
		slog.String("id", id),
		slog.String("kind", string(kind)),
		slog.Int("columns", len(report.Columns)))
	return id, nil
}

// RecordInflations appends inflations to an existing build.
func (s *SQLiteStore) RecordInflations(ctx context.Context, buildID string, inflators []scenario.Inflator) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(tx)

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM builds WHERE id = ?`, buildID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up build: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrBuildNotFound, buildID)
	}

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM build_inflations WHERE build_id = ?`, buildID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to read inflation position: %w", err)
	}

	if err := insertInflations(ctx, tx, buildID, next, inflators); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inflations: %w", err)
	}
	return nil
}

func insertInflations(ctx context.Context, tx *sql.Tx, buildID string, start int, inflators []scenario.Inflator) error {
	now := time.Now().UTC().Format(timeFormat)
	for i, inf := range inflators {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO build_inflations (build_id, position, variable, factor, applied_at) VALUES (?, ?, ?, ?, ?)`,
			buildID, start+i, inf.Variable, inf.Factor, now,
		); err != nil {
			return fmt.Errorf("failed to insert inflation %s: %w", inf.Variable, err)
		}
	}
	return nil
}

// GetBuild retrieves a build by id or unique id prefix.
func (s *SQLiteStore) GetBuild(ctx context.Context, id string) (*Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrBuildNotFound)
	}

	// Prefix match without LIKE, so '%' and '_' in id stay literal.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, rule_system, period, rows, created_at FROM builds WHERE substr(id, 1, length(?)) = ? ORDER BY id LIMIT 2`, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query build: %w", err)
	}
	builds, err := scanBuilds(rows)
	if err != nil {
		return nil, err
	}
	switch len(builds) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrBuildNotFound, id)
	case 1:
	default:
		if builds[0].ID != id {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
		}
	}

	b := builds[0]
	if err := s.loadDetails(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBuilds returns the most recent builds, newest first, without details.
func (s *SQLiteStore) ListBuilds(ctx context.Context, limit int) ([]*Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, rule_system, period, rows, created_at FROM builds ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	return scanBuilds(rows)
}

func scanBuilds(rows *sql.Rows) ([]*Build, error) {
	defer rows.Close()
	var builds []*Build
	for rows.Next() {
		var (
			b         Build
			kind      string
			createdAt string
		)
		if err := rows.Scan(&b.ID, &kind, &b.RuleSystem, &b.Period, &b.Rows, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		b.Kind = Kind(kind)
		t, err := time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("bad created_at for build %s: %w", b.ID, err)
		}
		b.CreatedAt = t
		builds = append(builds, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate builds: %w", err)
	}
	return builds, nil
}

func (s *SQLiteStore) loadDetails(ctx context.Context, b *Build) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_key, count, roles_count FROM build_entities WHERE build_id = ? ORDER BY rowid`, b.ID)
	if err != nil {
		return fmt.Errorf("failed to query entities: %w", err)
	}
	for rows.Next() {
		var e scenario.EntityReport
		if err := rows.Scan(&e.Key, &e.Count, &e.RolesCount); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan entity: %w", err)
		}
		b.Entities = append(b.Entities, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT column_name, keep, reason, entity, dtype FROM build_columns WHERE build_id = ? ORDER BY position`, b.ID)
	if err != nil {
		return fmt.Errorf("failed to query columns: %w", err)
	}
	for rows.Next() {
		var (
			c      scenario.ColumnDecision
			reason string
			entity sql.NullString
			dtype  sql.NullString
		)
		if err := rows.Scan(&c.Column, &c.Keep, &reason, &entity, &dtype); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan column: %w", err)
		}
		c.Reason = scenario.Reason(reason)
		c.Entity = entity.String
		c.DType = core.DType(dtype.String)
		b.Columns = append(b.Columns, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT variable, factor FROM build_inflations WHERE build_id = ? ORDER BY position`, b.ID)
	if err != nil {
		return fmt.Errorf("failed to query inflations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var inf scenario.Inflator
		if err := rows.Scan(&inf.Variable, &inf.Factor); err != nil {
			return fmt.Errorf("failed to scan inflation: %w", err)
		}
		b.Inflations = append(b.Inflations, inf)
	}
	return rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
