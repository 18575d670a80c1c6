package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// versionLayout is the timestamp prefix of every migration file.
const versionLayout = "20060102150405"

const (
	markerUp    = "-- +goose Up"
	markerDown  = "-- +goose Down"
	markerBegin = "-- +goose StatementBegin"
	markerEnd   = "-- +goose StatementEnd"
)

var (
	fileNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9]+(?:_[a-z0-9]+)*)\.sql$`)
	slugRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

const fileTemplate = markerUp + `
` + markerBegin + `
-- %[1]s
` + markerEnd + `

` + markerDown + `
` + markerBegin + `
-- revert %[1]s
` + markerEnd + `
`

// Slug lowers name and joins its alphanumeric runs with underscores.
func Slug(name string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// CreateSQLMigration writes an empty Up/Down migration named after the current
// UTC second and returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	return createAt(dir, name, time.Now())
}

func createAt(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", errors.New("migrate: dir is required")
	}
	slug := Slug(name)
	if slug == "" {
		return "", fmt.Errorf("migrate: name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("migrate: mkdir %s: %w", dir, err)
	}

	version := now.UTC().Format(versionLayout)
	taken, err := filepath.Glob(filepath.Join(dir, version+"_*.sql"))
	if err != nil {
		return "", err
	}
	if len(taken) > 0 {
		return "", fmt.Errorf("migrate: version %s already used by %s", version, filepath.Base(taken[0]))
	}

	path := filepath.Join(dir, version+"_"+slug+".sql")
	body := fmt.Sprintf(fileTemplate, slug)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("migrate: write %s: %w", path, err)
	}
	return path, nil
}

// ValidateDir checks every .sql file in dir and reports all problems at once.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("migrate: dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("migrate: read %s: %w", dir, err)
	}

	var (
		errs  error
		owner = map[int64]string{}
		names []string
	)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		version, err := versionOf(name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if prev, ok := owner[version]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %d already used by %s", name, version, prev))
			continue
		}
		owner[version] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		errs = multierr.Append(errs, checkMarkers(name, string(body)))
	}
	return errs
}

func versionOf(name string) (int64, error) {
	m := fileNameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, fmt.Errorf("%s: expected <YYYYMMDDHHMMSS>_<snake_name>.sql", name)
	}
	if _, err := time.Parse(versionLayout, m[1]); err != nil {
		return 0, fmt.Errorf("%s: version is not a timestamp", name)
	}
	return strconv.ParseInt(m[1], 10, 64)
}

func parseVersion(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.New("migrate: target version is required")
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 0 {
		return 0, fmt.Errorf("migrate: invalid version %q", raw)
	}
	return version, nil
}

// checkMarkers wants one Up section followed by one Down section, with every
// StatementBegin closed before the next one opens.
func checkMarkers(name, body string) error {
	var (
		errs     error
		up, down int
		open     int
	)
	for i, line := range strings.Split(body, "\n") {
		lineNo := i + 1
		switch strings.TrimSpace(line) {
		case markerUp:
			if up > 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: second Up section", name, lineNo))
			}
			up = lineNo
		case markerDown:
			if down > 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: second Down section", name, lineNo))
			}
			down = lineNo
		case markerBegin:
			if open > 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: StatementBegin inside the block opened on line %d", name, lineNo, open))
			}
			open = lineNo
		case markerEnd:
			if open == 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: StatementEnd without StatementBegin", name, lineNo))
			}
			open = 0
		}
	}

	switch {
	case up == 0:
		errs = multierr.Append(errs, fmt.Errorf("%s: missing %q", name, markerUp))
	case down == 0:
		errs = multierr.Append(errs, fmt.Errorf("%s: missing %q", name, markerDown))
	case down < up:
		errs = multierr.Append(errs, fmt.Errorf("%s: Down section precedes Up", name))
	}
	if open > 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s:%d: StatementBegin never closed", name, open))
	}
	return errs
}
