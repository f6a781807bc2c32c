// Package workbook hides the spreadsheet file formats behind one
// read/mutate/save contract. Rows and columns are 1-based everywhere.
package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrFileNotFound     = errors.New("workbook file not found")
	ErrPermissionDenied = errors.New("permission denied, file may be open in Excel or locked by another user")
	ErrCorrupt          = errors.New("workbook could not be read")
)

// Format identifies the on-disk backend.
type Format string

const (
	FormatModern Format = "xlsx"
	FormatLegacy Format = "xls"
)

// Workbook is an opened spreadsheet file. Mutations stay in memory until Save.
type Workbook interface {
	Path() string
	Format() Format
	Sheets() []Sheet
	Save() error
	Close() error
}

// Sheet is one worksheet. Cell returns "" for cells that hold nothing.
type Sheet interface {
	Name() string
	MaxRow() int
	MaxCol() int
	Cell(row, col int) string
	SetCell(row, col int, value string) error
}

// DetectFormat picks the backend from the file suffix.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatModern, nil
	case ".xls":
		return FormatLegacy, nil
	}
	return "", fmt.Errorf("%w: unsupported file type %q", ErrCorrupt, filepath.Ext(path))
}

// ModernPath returns the .xlsx sibling of a legacy .xls path, or path itself.
func ModernPath(path string) string {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, ".xls") {
		return strings.TrimSuffix(path, ext) + ".xlsx"
	}
	return path
}

// ResolvePath returns the file to operate on. When both a legacy file and its
// modern sibling exist the modern one is authoritative.
func ResolvePath(configured string) (string, error) {
	if configured == "" {
		return "", fmt.Errorf("%w: no workbook path configured", ErrFileNotFound)
	}
	if modern := ModernPath(configured); modern != configured {
		if _, err := os.Stat(modern); err == nil {
			return modern, nil
		}
	}
	if _, err := os.Stat(configured); err != nil {
		return "", classify(configured, err)
	}
	return configured, nil
}

// Open loads the workbook at path with the backend its suffix selects.
func Open(path string) (Workbook, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, classify(path, err)
	}
	switch format {
	case FormatLegacy:
		return openLegacy(path)
	default:
		return openModern(path)
	}
}

func classify(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	}
	return fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
}

func saveError(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	}
	return fmt.Errorf("failed to save %s: %w", path, err)
}
