// Package ignore loads ignore-list patterns from pattern files.
package ignore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"dirtree/pkg/glob"
)

// DefaultFileName is the pattern file looked up by Discover.
const DefaultFileName = ".treeignore"

// ErrNegation is returned for "!pattern" lines, which the ignore list cannot express.
var ErrNegation = errors.New("negated patterns are not supported")

// Pattern is one pattern line and where it came from.
type Pattern struct {
	Pattern string // Glob as passed to the ignore list.
	Source  string // File the pattern was read from.
	LineNo  int    // Line number in the source (1-based).
}

// Loader reads pattern files from a filesystem.
type Loader struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewLoader returns a Loader reading from fsys. A nil logger discards output.
func NewLoader(fsys afero.Fs, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{fs: fsys, logger: logger}
}

// LoadFile reads the patterns of one file. Each pattern is checked with
// glob.Compile so a bad line is reported with its position.
func (l *Loader) LoadFile(path string) ([]Pattern, error) {
	content, err := afero.ReadFile(l.fs, path)
	if err != nil {
		l.logger.Error("Failed to read ignore file", zap.String("filePath", path), zap.Error(err))
		return nil, fmt.Errorf("reading ignore file %s: %w", path, err)
	}

	var patterns []Pattern
	scanner := bufio.NewScanner(bytes.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line, ok, err := parsePatternLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		if !ok {
			continue
		}
		if _, err := glob.Compile([]string{line}); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		patterns = append(patterns, Pattern{Pattern: line, Source: path, LineNo: lineNo})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning ignore file %s: %w", path, err)
	}
	l.logger.Debug("Compiled ignore patterns", zap.String("filePath", path), zap.Int("patternCount", len(patterns)))
	return patterns, nil
}

// Discover collects the files named name in startDir and each of its
// parents. Files are returned root-first so deeper files come last.
func (l *Loader) Discover(startDir, name string) ([]string, error) {
	if name == "" {
		name = DefaultFileName
	}
	current, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", startDir, err)
	}

	var found []string
	for {
		candidate := filepath.Join(current, name)
		info, err := l.fs.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			found = append([]string{candidate}, found...)
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("checking %s: %w", candidate, err)
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	l.logger.Debug("Discovered ignore files", zap.String("startDir", startDir), zap.Strings("files", found))
	return found, nil
}

// LoadAll loads every file in order and returns the concatenated patterns.
func (l *Loader) LoadAll(paths ...string) ([]string, error) {
	var lines []string
	for _, path := range paths {
		patterns, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, p := range patterns {
			lines = append(lines, p.Pattern)
		}
	}
	return lines, nil
}

// parsePatternLine trims a line and reports whether it holds a pattern.
// Blank lines and "#" comments hold none; "\#" and "\!" escape a leading
// marker character.
func parsePatternLine(line string) (string, bool, error) {
	trimmedLine := strings.TrimSpace(line)

	if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
		return "", false, nil
	}
	if strings.HasPrefix(trimmedLine, "!") {
		return "", false, fmt.Errorf("%w: %q", ErrNegation, trimmedLine)
	}
	if strings.HasPrefix(trimmedLine, `\#`) || strings.HasPrefix(trimmedLine, `\!`) {
		trimmedLine = trimmedLine[1:]
	}
	return trimmedLine, true, nil
}
