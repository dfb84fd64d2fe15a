package archiveutil

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern is a compiled shell-style glob. Unlike
// path.Match, '*' also matches '/', so "*.pdb" skips
// members in every directory.
type Pattern struct {
	raw string
	g   glob.Glob
}

// CompilePattern compiles a glob into a Pattern.
// Supported syntax is '*', '?', '[seq]' and '[!seq]';
// everything else, including an unterminated '[',
// matches itself.
func CompilePattern(pattern string) (*Pattern, error) {
	// no separators, so wildcards cross '/'
	g, err := glob.Compile(quoteGlob(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &Pattern{raw: pattern, g: g}, nil
}

// quoteGlob escapes the parts of pattern that glob would
// otherwise treat as syntax: alternation braces, escapes
// and brackets that are never closed.
func quoteGlob(pattern string) string {
	var sb strings.Builder
	p := []rune(pattern)
	for i := 0; i < len(p); i++ {
		switch c := p[i]; c {
		case '{', '}', '\\':
			sb.WriteRune('\\')
			sb.WriteRune(c)
		case '[':
			end := classEnd(p, i+1)
			if end < 0 {
				sb.WriteString(`\[`)
				continue
			}
			sb.WriteRune('[')
			for _, r := range p[i+1 : end] {
				if r == ']' || r == '\\' {
					sb.WriteRune('\\')
				}
				sb.WriteRune(r)
			}
			sb.WriteRune(']')
			i = end
		default:
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// classEnd returns the index of the ']' closing a class
// that starts at i, or -1. A ']' straight after the
// opening (or after '!') is part of the class.
func classEnd(p []rune, i int) int {
	j := i
	if j < len(p) && p[j] == '!' {
		j++
	}
	if j < len(p) && p[j] == ']' {
		j++
	}
	for ; j < len(p); j++ {
		if p[j] == ']' {
			return j
		}
	}
	return -1
}

func (p *Pattern) Match(name string) bool {
	return p.g.Match(name)
}

func (p *Pattern) String() string {
	return p.raw
}

// Match reports whether name matches the glob pattern.
func Match(pattern, name string) (bool, error) {
	p, err := CompilePattern(pattern)
	if err != nil {
		return false, err
	}
	return p.Match(name), nil
}
