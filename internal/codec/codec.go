package codec

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"branchline/internal/domain"
)

// Supported format identifiers
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for a format name or file extension no codec handles
var ErrUnknownFormat = errors.New("unknown graph format")

// Importer interface for reading a dialogue graph from a format
type Importer interface {
	Parse(r io.Reader) (*domain.Container, error)
	Format() string
}

// Exporter interface for writing a dialogue graph to a format
type Exporter interface {
	Export(c *domain.Container, w io.Writer) error
	Format() string
}

// Codec both imports and exports one format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec registered for name ("yml" is accepted for yaml)
func ForFormat(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatJSON, "":
		return NewJSONCodec(), nil
	case FormatYAML, "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatFromPath picks a format from a file extension
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Base(path))
}

// NameFromPath derives a graph name from a file path: the base name without
// its extension
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
