package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/store"
)

// Export formats.
const (
	FormatXLSX   = "xlsx"
	FormatSQLite = "sqlite"
)

// FormatFor resolves an explicit format name, or infers one from the file
// extension when format is empty.
func FormatFor(path, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatSQLite, "db":
		return FormatSQLite, nil
	case "":
	default:
		return "", fmt.Errorf("export: unknown format %q", format)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return FormatXLSX, nil
	}
}

// Target describes one export action.
type Target struct {
	Path     string
	Format   string // empty infers from Path
	Adjusted bool
	Policy   model.Policy
	Units    model.Units
}

// Save writes out to the target in its format. For SQLite it returns the
// ID of the stored run; for xlsx the ID is empty.
func Save(t Target, out model.Outputs) (string, error) {
	format, err := FormatFor(t.Path, t.Format)
	if err != nil {
		return "", err
	}

	if format == FormatXLSX {
		return "", WriteFile(t.Path, out, Options{Adjusted: t.Adjusted})
	}

	archive, err := store.Open(t.Path)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	defer func() { _ = archive.Close() }()

	run := store.NewRun(out, t.Policy, t.Units, t.Adjusted)
	if err := archive.SaveRun(run); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return run.ID, nil
}

// ErrNoArchive is returned when listing or deleting runs in a missing file.
var ErrNoArchive = errors.New("export: no such run archive")

func openExisting(path string) (*store.Archive, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoArchive, path)
	}
	archive, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return archive, nil
}

// ListRuns returns every run in the SQLite export at path, newest first.
func ListRuns(path string) ([]store.Run, error) {
	archive, err := openExisting(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = archive.Close() }()

	ids, err := archive.RunIDs()
	if err != nil {
		return nil, fmt.Errorf("export: listing runs: %w", err)
	}
	runs := make([]store.Run, 0, len(ids))
	for _, id := range ids {
		run, err := archive.LoadRun(id)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// DeleteRun removes one run from the SQLite export at path and returns how
// many runs remain.
func DeleteRun(path, id string) (int, error) {
	archive, err := openExisting(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = archive.Close() }()

	if err := archive.DeleteRun(id); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	remaining, err := archive.RunCount()
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	return remaining, nil
}
