package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/angelmondragon/tna-backend/pkg/config"
)

const DefaultDir = "pkg/migrate/migrations"

// Commands accepted by Runner.Exec.
const (
	CmdUp     = "up"
	CmdDown   = "down"
	CmdReset  = "reset"
	CmdStatus = "status"
)

// DialectFor maps a configured DB driver onto the goose dialect.
func DialectFor(driver string) goose.Dialect {
	if driver == config.DBDriverSQLite {
		return goose.DialectSQLite3
	}
	return goose.DialectPostgres
}

// Runner applies the SQL files of a single directory to a database.
// The provider is never closed because that would close the caller's *sql.DB.
type Runner struct {
	provider *goose.Provider
	out      io.Writer
}

// NewRunner builds a Runner. Progress lines go to out; nil discards them.
func NewRunner(db *sql.DB, dialect goose.Dialect, dir string, out io.Writer) (*Runner, error) {
	if db == nil {
		return nil, errors.New("migrate: db is required")
	}
	if dir == "" {
		return nil, errors.New("migrate: dir is required")
	}
	if out == nil {
		out = io.Discard
	}

	provider, err := goose.NewProvider(dialect, db, os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("migrate: load %s: %w", dir, err)
	}
	return &Runner{provider: provider, out: out}, nil
}

// Exec runs one of the Cmd* commands.
func (r *Runner) Exec(ctx context.Context, command string) error {
	switch command {
	case CmdUp:
		results, err := r.provider.Up(ctx)
		r.report(results...)
		return wrapCommand(command, err)
	case CmdDown:
		result, err := r.provider.Down(ctx)
		r.report(result)
		return wrapCommand(command, err)
	case CmdReset:
		results, err := r.provider.DownTo(ctx, 0)
		r.report(results...)
		return wrapCommand(command, err)
	case CmdStatus:
		return wrapCommand(command, r.status(ctx))
	default:
		return fmt.Errorf("migrate: unknown command %q", command)
	}
}

// MigrateTo moves the schema up or down until the database reports target.
func (r *Runner) MigrateTo(ctx context.Context, target string) error {
	version, err := parseVersion(target)
	if err != nil {
		return err
	}

	current, err := r.provider.GetDBVersion(ctx)
	if errors.Is(err, database.ErrVersionNotFound) {
		current, err = 0, nil
	}
	if err != nil {
		return fmt.Errorf("migrate: read db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == version:
		fmt.Fprintf(r.out, "already at %d\n", version)
		return nil
	case current < version:
		results, err = r.provider.UpTo(ctx, version)
	default:
		results, err = r.provider.DownTo(ctx, version)
	}
	r.report(results...)
	return wrapCommand(fmt.Sprintf("to %d", version), err)
}

func (r *Runner) status(ctx context.Context) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return err
	}
	for _, st := range statuses {
		if st == nil || st.Source == nil {
			continue
		}
		applied := "pending"
		if st.State == goose.StateApplied {
			applied = st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(r.out, "%-22s %s\n", applied, filepath.Base(st.Source.Path))
	}
	return nil
}

func (r *Runner) report(results ...*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		fmt.Fprintf(r.out, "%-4s %s (%s)\n", res.Direction, filepath.Base(res.Source.Path), res.Duration.Round(time.Millisecond))
	}
}

func wrapCommand(command string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("migrate %s: %w", command, err)
}
