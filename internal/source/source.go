// Package source loads the monthly history and product tables from input
// files in YAML, TOML, JSON or a previously exported xlsx workbook.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/runway/internal/export"
	"github.com/theirongolddev/runway/internal/model"
)

// ErrUnsupportedFormat is returned for file extensions Load cannot parse.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Format identifies an input encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Load reads a dataset from path. Rows with missing or invalid values are
// kept as-is; the pipeline excludes them when computing.
func Load(path string) (model.Dataset, error) {
	format, err := FormatOf(path)
	if err != nil {
		return model.Dataset{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("reading input: %w", err)
	}
	defer f.Close()

	return Decode(f, format)
}

// Decode parses a dataset in the given format from r.
func Decode(r io.Reader, format Format) (model.Dataset, error) {
	var ds model.Dataset

	switch format {
	case FormatXLSX:
		tables, err := export.Read(r)
		if err != nil {
			return ds, fmt.Errorf("parsing input: %w", err)
		}
		return tables.Dataset(), nil
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&ds); err != nil && !errors.Is(err, io.EOF) {
			return ds, fmt.Errorf("parsing input: %w", err)
		}
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&ds)
		if err != nil {
			return ds, fmt.Errorf("parsing input: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return ds, fmt.Errorf("parsing input: unknown key %q", undecoded[0].String())
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&ds); err != nil && !errors.Is(err, io.EOF) {
			return ds, fmt.Errorf("parsing input: %w", err)
		}
	default:
		return ds, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return ds, nil
}

// Save writes ds to path in the format implied by its extension. Workbooks
// are written through the export package, which needs computed outputs, so
// xlsx is not accepted here.
func Save(path string, ds model.Dataset) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(ds); err != nil {
			return fmt.Errorf("encoding input: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding input: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(ds); err != nil {
			return fmt.Errorf("encoding input: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ds); err != nil {
			return fmt.Errorf("encoding input: %w", err)
		}
	default:
		return fmt.Errorf("%w for saving: %q", ErrUnsupportedFormat, format)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing input: %w", err)
	}
	return nil
}

// Sample returns the built-in dataset used when no input file is given.
func Sample() model.Dataset {
	return model.Dataset{
		History: []model.MonthlyBalance{
			model.NewMonth("2024-01", 1000, 800),
			model.NewMonth("2024-02", 800, 700),
			model.NewMonth("2024-03", 700, 650),
		},
		Products: []model.Product{
			model.NewProduct("製品A", 500, 30),
			model.NewProduct("製品B", 1000, 60),
		},
	}
}
