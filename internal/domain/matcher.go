package domain

import (
	"fmt"
	"path"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExclude applies when no exclude patterns are configured.
var DefaultExclude = []string{"**/test/**"}

// DependencyExclude is always excluded under the npm convention.
const DependencyExclude = "**/node_modules/**"

// RuleSet holds include and exclude glob patterns. When Relative is false
// every pattern is qualified with the package mount path before matching.
type RuleSet struct {
	Include  []string
	Exclude  []string
	Relative bool
}

// Matcher decides whether a request path is an instrumentation target.
type Matcher interface {
	Matches(urlPath string) bool
	// Rules returns the effective, qualified rule set.
	Rules() RuleSet
}

type matcher struct {
	include []string
	exclude []string
	rules   RuleSet
}

// NewMatcher builds the effective rule set once. A nil Exclude falls back to
// DefaultExclude; an empty non-nil Exclude excludes nothing. basePath is the
// package mount, e.g. "/components/my-element". Malformed patterns are errors.
func NewMatcher(rules RuleSet, basePath string, npm bool) (Matcher, error) {
	exclude := rules.Exclude
	if exclude == nil {
		exclude = DefaultExclude
	}

	exclude = append(append([]string{}, exclude...), dependencyExcludes(npm)...)
	include := append([]string{}, rules.Include...)

	if !rules.Relative {
		include = qualify(basePath, include)
		exclude = qualify(basePath, exclude)
	}

	for _, pattern := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}

	return &matcher{
		include: include,
		exclude: exclude,
		rules:   RuleSet{Include: include, Exclude: exclude, Relative: rules.Relative},
	}, nil
}

func dependencyExcludes(npm bool) []string {
	if npm {
		return []string{DependencyExclude}
	}

	return nil
}

func qualify(basePath string, patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = path.Join(basePath, p)
	}

	return out
}

// Matches reports whether urlPath satisfies an include pattern (or include is
// empty) and no exclude pattern.
func (mt *matcher) Matches(urlPath string) bool {
	if len(mt.include) > 0 && !matchAny(urlPath, mt.include) {
		return false
	}

	return !matchAny(urlPath, mt.exclude)
}

func (mt *matcher) Rules() RuleSet {
	return mt.rules
}

func matchAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		// Patterns were validated at construction.
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}

	return false
}
