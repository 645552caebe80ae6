package cmd

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/conneroisu/templink/internal/logging"
	"github.com/conneroisu/templink/internal/types"
)

// scanTemplFiles walks the scan paths and collects primary templ documents,
// skipping excluded paths and underscore-prefixed auxiliary files.
func scanTemplFiles(scanPaths, excludePatterns []string, logger logging.Logger) ([]string, error) {
	excludes := make([]glob.Glob, 0, len(excludePatterns))
	for _, pattern := range excludePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			if logger != nil {
				logger.Warn(context.Background(), err, "ignoring invalid exclude pattern", "pattern", pattern)
			}
			continue
		}
		excludes = append(excludes, g)
	}

	seen := make(map[string]struct{})
	var paths []string

	for _, root := range scanPaths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if filepath.Ext(path) != ".templ" || strings.HasPrefix(d.Name(), "_") {
				return nil
			}

			norm := types.NormalizePath(path)
			for _, g := range excludes {
				if g.Match(norm) {
					return nil
				}
			}

			key := types.FoldPath(norm)
			if _, dup := seen[key]; dup {
				return nil
			}
			seen[key] = struct{}{}
			paths = append(paths, norm)

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(paths)

	return paths, nil
}
