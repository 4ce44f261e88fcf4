// Package gitignore contains methods to compile and evaluate
// .gitignore patterns
// https://git-scm.com/docs/gitignore
package gitignore

import "strings"

// Pattern represents a single compiled .gitignore rule
type Pattern struct {
	// segments contains the pattern split on "/", without the
	// leading/trailing decorations
	segments []string
	// negate reports whether the rule re-includes matched paths
	// (pattern started with a "!")
	negate bool
	// dirOnly reports whether the rule only applies to directories
	// (pattern ended with a "/")
	dirOnly bool
	// anchored reports whether the rule is relative to the root of
	// the repo (pattern contained a non-trailing "/")
	anchored bool
}

// ParsePattern compiles a single line of a .gitignore file.
// Blank lines and comments return nil
func ParsePattern(line string) *Pattern {
	// Trailing spaces are ignored unless they are escaped, we don't
	// support the escaped case and just trim
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	p := &Pattern{}

	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}

	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = line[:len(line)-1]
	}

	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = line[1:]
	} else if strings.Contains(line, "/") {
		// a separator anywhere in the pattern anchors it to the root
		p.anchored = true
	}

	if line == "" {
		return nil
	}

	p.segments = strings.Split(line, "/")
	return p
}

// Negate returns whether the pattern re-includes the paths it matches
func (p *Pattern) Negate() bool {
	return p.negate
}

// Match returns whether the pattern matches the given path.
// The path must be relative to the repo root and use "/" separators
func (p *Pattern) Match(path string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}

	if !p.anchored {
		// an unanchored pattern has a single segment and matches
		// the base name at any depth
		name := path
		if i := strings.LastIndexByte(path, '/'); i >= 0 {
			name = path[i+1:]
		}
		return matchSegment(p.segments[0], name)
	}

	return matchSegments(p.segments, strings.Split(path, "/"))
}

// matchSegments matches a pattern against a path, segment by segment.
// A "**" segment matches any number of segments, including none
func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}

	if pattern[0] == "**" {
		if matchSegments(pattern[1:], path) {
			return true
		}
		if len(path) > 0 {
			return matchSegments(pattern, path[1:])
		}
		return false
	}

	if len(path) == 0 {
		return false
	}
	if !matchSegment(pattern[0], path[0]) {
		return false
	}
	return matchSegments(pattern[1:], path[1:])
}

// matchSegment matches a single pattern segment against a single
// path segment:
// - "?" matches any single byte
// - "*" matches any run of bytes, including none
// - "[...]" matches a byte class, "[!...]" a negated one
// - "\" escapes the next byte
// Segments never contain a "/" so the metacharacters can't cross
// a directory boundary
func matchSegment(pattern, name string) bool {
	px, nx := 0, 0
	// position to backtrack to when a "*" needs to eat one more byte
	starPx, starNx := -1, -1

	for nx < len(name) {
		if px < len(pattern) {
			switch pattern[px] {
			case '*':
				starPx, starNx = px, nx
				px++
				continue
			case '?':
				px++
				nx++
				continue
			case '[':
				size, ok := matchClass(pattern[px:], name[nx])
				if ok {
					px += size
					nx++
					continue
				}
			case '\\':
				if px+1 < len(pattern) && pattern[px+1] == name[nx] {
					px += 2
					nx++
					continue
				}
			default:
				if pattern[px] == name[nx] {
					px++
					nx++
					continue
				}
			}
		}

		// mismatch: backtrack to the last "*" if there is one
		if starPx < 0 {
			return false
		}
		starNx++
		px, nx = starPx+1, starNx
	}

	// name is consumed, the rest of the pattern must be stars
	for px < len(pattern) && pattern[px] == '*' {
		px++
	}
	return px == len(pattern)
}

// matchClass matches a "[...]" class at the start of pattern against
// the byte c. It returns the size of the class in the pattern, and
// whether c matched
func matchClass(pattern string, c byte) (size int, ok bool) {
	// find the closing bracket. A "]" right after the opening
	// bracket (or after "!") is a literal
	i := 1
	negate := false
	if i < len(pattern) && pattern[i] == '!' {
		negate = true
		i++
	}
	start := i
	for ; i < len(pattern); i++ {
		if pattern[i] == ']' && i > start {
			break
		}
		if pattern[i] == '\\' {
			i++
		}
	}
	if i >= len(pattern) {
		// unterminated class: treat "[" as a literal
		return 1, c == '['
	}

	matched := false
	for j := start; j < i; j++ {
		lo := pattern[j]
		if lo == '\\' && j+1 < i {
			j++
			lo = pattern[j]
		}
		if j+2 < i && pattern[j+1] == '-' {
			hi := pattern[j+2]
			if lo <= c && c <= hi {
				matched = true
			}
			j += 2
			continue
		}
		if lo == c {
			matched = true
		}
	}

	if negate {
		matched = !matched
	}
	return i + 1, matched
}
