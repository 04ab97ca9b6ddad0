// Package glob compiles lists of shell-style glob patterns into a single matcher.
package glob

import (
	"errors"
	"fmt"
	"strings"

	gobwas "github.com/gobwas/glob"
)

// ErrInvalidPattern is matched by every InvalidPatternError.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// InvalidPatternError reports a pattern that could not be compiled.
type InvalidPatternError struct {
	Pattern string // Pattern as supplied by the caller.
	Err     error  // Underlying compiler error.
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid glob pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

// Is reports whether target is ErrInvalidPattern.
func (e *InvalidPatternError) Is(target error) bool { return target == ErrInvalidPattern }

// compiledPattern pairs a compiled glob with its source text.
type compiledPattern struct {
	glob gobwas.Glob
	line string
}

// Matcher tests strings against a set of patterns combined with logical OR.
// A Matcher is read-only after Compile and safe for concurrent use.
type Matcher struct {
	patterns []compiledPattern
}

// Compile builds a Matcher from patterns. Blank patterns are skipped.
// Patterns are compiled without separators, so '*' also spans '/' and each
// pattern must match the whole tested string.
func Compile(patterns []string) (*Matcher, error) {
	m := &Matcher{patterns: make([]compiledPattern, 0, len(patterns))}
	for _, pattern := range patterns {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		g, err := gobwas.Compile(trimmed)
		if err != nil {
			return nil, &InvalidPatternError{Pattern: pattern, Err: err}
		}
		m.patterns = append(m.patterns, compiledPattern{glob: g, line: trimmed})
	}
	return m, nil
}

// MustCompile is like Compile but panics on an invalid pattern.
func MustCompile(patterns ...string) *Matcher {
	m, err := Compile(patterns)
	if err != nil {
		panic(err)
	}
	return m
}

// Test reports whether path matches any pattern. An empty Matcher matches nothing.
func (m *Matcher) Test(path string) bool {
	matched, _ := m.TestWithPattern(path)
	return matched
}

// TestWithPattern is Test, also returning the first pattern that matched.
func (m *Matcher) TestWithPattern(path string) (bool, string) {
	if m == nil {
		return false, ""
	}
	for _, p := range m.patterns {
		if p.glob.Match(path) {
			return true, p.line
		}
	}
	return false, ""
}

// Empty reports whether the matcher holds no patterns.
func (m *Matcher) Empty() bool {
	return m == nil || len(m.patterns) == 0
}

// Patterns returns the compiled pattern sources in order.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	lines := make([]string, len(m.patterns))
	for i, p := range m.patterns {
		lines[i] = p.line
	}
	return lines
}
