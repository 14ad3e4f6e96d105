package store

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Migration is one schema step. Statements run in a single transaction.
type Migration struct {
	Version string
	Stmts   []string
}

// migrator is implemented by each backend.
type migrator interface {
	// appliedVersions lists every recorded version, creating the
	// bookkeeping table first if needed.
	appliedVersions(ctx context.Context) ([]string, error)
	// applyMigration runs m and records its version atomically.
	applyMigration(ctx context.Context, m Migration) error
}

// currentVersion is the highest applied version, or 0.0.0.
func currentVersion(applied []string) (*semver.Version, error) {
	current := semver.MustParse("0.0.0")
	for _, s := range applied {
		v, err := semver.NewVersion(s)
		if err != nil {
			return nil, fmt.Errorf("invalid schema version %s: %w", s, err)
		}
		if current.LessThan(v) {
			current = v
		}
	}
	return current, nil
}

// migrate applies every migration newer than the recorded version, in order.
func migrate(ctx context.Context, m migrator, migrations []Migration) error {
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	current, err := currentVersion(applied)
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		v, err := semver.NewVersion(mig.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", mig.Version, err)
		}
		if !current.LessThan(v) {
			continue
		}
		if err := m.applyMigration(ctx, mig); err != nil {
			return fmt.Errorf("apply migration %s: %w", mig.Version, err)
		}
		current = v
	}
	return nil
}
