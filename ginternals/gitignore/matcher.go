package gitignore

import (
	"bufio"
	"bytes"
	"strings"
)

// Matcher evaluates an ordered list of patterns against paths.
// The last matching pattern decides the outcome
type Matcher struct {
	patterns []*Pattern
}

// NewMatcher compiles the content of a .gitignore file into
// a Matcher
func NewMatcher(content []byte) *Matcher {
	m := &Matcher{}

	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		if p := ParsePattern(sc.Text()); p != nil {
			m.patterns = append(m.patterns, p)
		}
	}
	return m
}

// IsIgnored returns whether the given path is ignored.
// The path must be relative to the repo root and use "/" separators.
//
// A file inside an ignored directory is always ignored: a negation
// can only re-include a file if the directory holding it is not
// itself ignored
func (m *Matcher) IsIgnored(path string, isDir bool) bool {
	if len(m.patterns) == 0 {
		return false
	}

	// if any parent directory is ignored, so is the path
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		if m.match(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}

	return m.match(path, isDir)
}

// match runs all the patterns in order against a single path,
// the last match wins
func (m *Matcher) match(path string, isDir bool) bool {
	ignored := false
	for _, p := range m.patterns {
		if p.Match(path, isDir) {
			ignored = !p.Negate()
		}
	}
	return ignored
}
