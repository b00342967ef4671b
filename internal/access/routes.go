// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package access

import (
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// RouteClass is the access tier of a path.
type RouteClass int

// Route classes. The zero value is Protected so an unclassified path is never
// treated as public.
const (
	Protected RouteClass = iota
	Public
	AdminOnly
)

func (c RouteClass) String() string {
	switch c {
	case Public:
		return "public"
	case AdminOnly:
		return "admin_only"
	default:
		return "protected"
	}
}

// segmentPattern is what a :name segment matches.
const segmentPattern = `[a-zA-Z0-9_-]+`

// Routes holds the classification tables. Entries are exact paths, :name
// patterns such as /users/:id/, or globs such as /static/**.
type Routes struct {
	Public    []string `koanf:"public"`
	AdminOnly []string `koanf:"admin_only"`
}

// DefaultRoutes returns the built-in tables.
func DefaultRoutes() Routes {
	return Routes{
		Public:    []string{"/", "/auth/login/"},
		AdminOnly: []string{"/admin/"},
	}
}

type matcher func(path string) bool

type table struct {
	exact    map[string]struct{}
	patterns []matcher
}

func compileTable(entries []string) (table, error) {
	t := table{exact: make(map[string]struct{}, len(entries))}
	for _, entry := range entries {
		switch {
		case strings.Contains(entry, "*"):
			g, err := glob.Compile(entry, '/')
			if err != nil {
				return table{}, oops.Code("ROUTE_PATTERN_INVALID").With("pattern", entry).Wrap(err)
			}
			t.patterns = append(t.patterns, g.Match)
		case isNamedPattern(entry):
			re, err := CompilePattern(entry)
			if err != nil {
				return table{}, err
			}
			t.patterns = append(t.patterns, re.MatchString)
		default:
			t.exact[entry] = struct{}{}
		}
	}
	return t, nil
}

func (t table) matchExact(path string) bool {
	_, ok := t.exact[path]
	return ok
}

func (t table) matchPattern(path string) bool {
	for _, m := range t.patterns {
		if m(path) {
			return true
		}
	}
	return false
}

// Classifier assigns a RouteClass to request paths. It is immutable after
// construction.
type Classifier struct {
	public table
	admin  table
}

// NewClassifier compiles the route tables.
func NewClassifier(routes Routes) (*Classifier, error) {
	public, err := compileTable(routes.Public)
	if err != nil {
		return nil, oops.With("table", "public").Wrap(err)
	}
	admin, err := compileTable(routes.AdminOnly)
	if err != nil {
		return nil, oops.With("table", "admin_only").Wrap(err)
	}
	return &Classifier{public: public, admin: admin}, nil
}

// Classify returns the class of path. Exact entries win over patterns and
// Public wins over AdminOnly.
func (c *Classifier) Classify(path string) RouteClass {
	switch {
	case c.public.matchExact(path):
		return Public
	case c.admin.matchExact(path):
		return AdminOnly
	case c.public.matchPattern(path):
		return Public
	case c.admin.matchPattern(path):
		return AdminOnly
	default:
		return Protected
	}
}

func isNamedPattern(entry string) bool {
	for _, seg := range strings.Split(entry, "/") {
		if len(seg) > 1 && seg[0] == ':' {
			return true
		}
	}
	return false
}

// CompilePattern turns a route such as /users/:id/ into an anchored regular
// expression. Each :name segment matches one or more letters, digits, hyphens
// or underscores; every other character is literal.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if len(seg) > 1 && seg[0] == ':' {
			segments[i] = segmentPattern
			continue
		}
		segments[i] = regexp.QuoteMeta(seg)
	}

	re, err := regexp.Compile("^" + strings.Join(segments, "/") + "$")
	if err != nil {
		return nil, oops.Code("ROUTE_PATTERN_INVALID").With("pattern", pattern).Wrap(err)
	}
	return re, nil
}

// MatchPattern reports whether path matches the :name pattern. An invalid
// pattern matches nothing.
func MatchPattern(pattern, path string) bool {
	re, err := CompilePattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}
