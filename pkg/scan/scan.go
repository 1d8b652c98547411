// Package scan implements the directory scan contract the Add pipeline
// consumes: a filesystem walk yielding absolute paths of supported file
// extensions, honoring exclusion globs relative to the scan root.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Options configures Scan.
type Options struct {
	// Exclude lists glob patterns matched against paths relative to the
	// scan root. A pattern matching any single path segment (e.g.
	// "node_modules") excludes that subtree.
	Exclude []string
	// Recursive controls whether the walk descends into subdirectories.
	Recursive bool
	// Supported reports whether a file path's extension should be yielded.
	Supported func(path string) bool
}

// Scan walks root and returns the absolute paths of all supported files in
// lexical walk order.
func Scan(root string, opts Options) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scan root %s: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root %s: %w", absRoot, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", absRoot)
	}

	var paths []string

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == absRoot {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		// Use forward slashes for consistent matching across platforms.
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if !opts.Recursive || excluded(rel, opts.Exclude) {
				return fs.SkipDir
			}

			return nil
		}

		if excluded(rel, opts.Exclude) {
			return nil
		}

		if opts.Supported == nil || opts.Supported(path) {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", absRoot, err)
	}

	return paths, nil
}

// excluded reports whether relPath matches any exclusion pattern, either as
// a whole or on any of its path segments, so a bare directory name like
// ".git" excludes that subtree anywhere under the root.
func excluded(relPath string, patterns []string) bool {
	segments := strings.Split(relPath, "/")

	for _, p := range patterns {
		p = filepath.ToSlash(p)

		if ok, err := doublestar.Match(p, relPath); err == nil && ok {
			return true
		}

		for _, seg := range segments {
			if ok, err := doublestar.Match(p, seg); err == nil && ok {
				return true
			}
		}
	}

	return false
}
