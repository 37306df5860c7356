package common

import (
	"fmt"

	"github.com/gobwas/glob"
)

// FilterProfiles returns the names matching at least one glob pattern, in
// their original order. No patterns means no filtering.
func FilterProfiles(names, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return names, nil
	}

	globs, err := CompileProfileFilters(patterns)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, name := range names {
		for _, g := range globs {
			if g.Match(name) {
				out = append(out, name)
				break
			}
		}
	}
	return out, nil
}

// CompileProfileFilters compiles each pattern, failing on the first one that
// is not a valid glob.
func CompileProfileFilters(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile profile filter %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}
