// Package render writes an Item tree as JSON, YAML or an indented text tree.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"dirtree/pkg/dirtree"
)

// Supported formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned by Render for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Render writes item to w in the named format.
func Render(w io.Writer, item *dirtree.Item, format string, opts TextOptions) error {
	switch format {
	case FormatJSON:
		return JSON(w, item)
	case FormatYAML:
		return YAML(w, item)
	case FormatText, "":
		return Text(w, item, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// JSON writes item as indented JSON followed by a newline. A nil item is
// written as null.
func JSON(w io.Writer, item *dirtree.Item) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if item == nil {
		return encoder.Encode(nil)
	}
	if err := encoder.Encode(item); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// YAML writes item as a YAML document.
func YAML(w io.Writer, item *dirtree.Item) error {
	if item == nil {
		_, err := io.WriteString(w, "null\n")
		return err
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(item); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return encoder.Close()
}

// WriteFile writes data to path on fsys, creating missing parent directories.
func WriteFile(fsys afero.Fs, path string, data []byte, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ensureDirectory(fsys, filepath.Dir(path), logger); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		logger.Error("Failed to write file", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Debug("Successfully wrote file", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

func ensureDirectory(fsys afero.Fs, path string, logger *zap.Logger) error {
	if path == "" || path == "." {
		return nil
	}
	if err := fsys.MkdirAll(path, os.ModePerm); err != nil {
		logger.Error("Failed to create directory", zap.String("path", path), zap.Error(err))
		return err
	}
	logger.Debug("Ensured directory exists", zap.String("path", path))
	return nil
}
