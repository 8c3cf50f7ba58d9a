package main

import (
	"github.com/gobwas/glob"
)

// RequestFilter decides which request texts are counted into the frequency
// and word tables. Patterns are glob-style, e.g. "SELECT *" or "*timeout*".
type RequestFilter struct {
	include []glob.Glob // empty = include everything
	exclude []glob.Glob
}

// NewRequestFilter compiles include/exclude patterns into a filter.
// Returns nil when both lists are empty so callers can skip filtering
// entirely on the default path.
func NewRequestFilter(includePatterns, excludePatterns []string) (*RequestFilter, error) {
	if len(includePatterns) == 0 && len(excludePatterns) == 0 {
		return nil, nil
	}

	f := &RequestFilter{}

	for _, pattern := range includePatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		f.include = append(f.include, g)
	}

	for _, pattern := range excludePatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		f.exclude = append(f.exclude, g)
	}

	return f, nil
}

// Matches reports whether text passes the include patterns (any of them,
// when present) and none of the exclude patterns.
func (f *RequestFilter) Matches(text string) bool {
	if len(f.include) > 0 {
		matched := false
		for _, g := range f.include {
			if g.Match(text) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, g := range f.exclude {
		if g.Match(text) {
			return false
		}
	}

	return true
}
