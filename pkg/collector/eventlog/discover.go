package eventlog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoFiles is returned when a pattern matches nothing.
var ErrNoFiles = errors.New("no input files")

// statFile allows tests to stub filesystem lookups.
var statFile = os.Stat

// Discover expands a glob such as logs/**/*.csv.xz into a sorted list of regular files.
// A pattern without glob metacharacters is treated as a plain path.
func Discover(pattern string) ([]string, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrNoFiles)
	}
	if !strings.ContainsAny(pattern, "*?[{") {
		info, err := statFile(pattern)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return Discover(strings.TrimRight(pattern, "/") + "/**/*.{csv,csv.gz,csv.xz,jsonl,jsonl.gz,jsonl.xz,ndjson,json}")
		}
		return []string{pattern}, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("pattern matching failed: %w", err)
	}
	files := make([]string, 0, len(matches))
	for _, match := range matches {
		info, err := statFile(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, match)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %q matched nothing", ErrNoFiles, pattern)
	}
	sort.Strings(files)
	return files, nil
}

// DiscoverAll expands several patterns, dropping duplicates while keeping first-seen order.
func DiscoverAll(patterns []string) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range patterns {
		files, err := Discover(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no patterns given", ErrNoFiles)
	}
	return out, nil
}
