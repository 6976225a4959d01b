// goibniu/pkg/pathspec/resolver.go

// Package pathspec resolves include/exclude glob sets against a file tree.
// Globs use '/' as the segment separator: '*' stays within one segment, '**'
// crosses segment boundaries.
package pathspec

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/dahlem/goibniu/pkg/logging"
)

// Directories never worth scanning for rule candidates.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".venv":        true,
	"venv":         true,
	"node_modules": true,
	"vendor":       true,
}

type matcher struct {
	globs []glob.Glob
}

// compile builds a matcher for a pattern list. Patterns of the form '**/x'
// additionally match 'x' at the root, so 'src/a.py' and 'a.py' both satisfy
// '**/*.py'.
func compile(patterns []string) (*matcher, error) {
	m := &matcher{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
		}
		m.globs = append(m.globs, g)

		if rest, ok := strings.CutPrefix(p, "**/"); ok && rest != "" {
			g, err := glob.Compile(rest, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
			}
			m.globs = append(m.globs, g)
		}
	}
	return m, nil
}

func (m *matcher) match(rel string) bool {
	for _, g := range m.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Resolve returns the root-relative, slash-separated paths of all files under
// root matched by the include globs and not matched by any exclude glob.
// Exclusion always wins. An empty include list resolves to the empty set. The
// result is sorted lexicographically so repeated runs are byte-identical.
func Resolve(root string, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		return nil, nil
	}

	inc, err := compile(include)
	if err != nil {
		return nil, logging.NewError(logging.ErrorTypeResolve, "bad include glob", err, map[string]interface{}{"root": root})
	}
	exc, err := compile(exclude)
	if err != nil {
		return nil, logging.NewError(logging.ErrorTypeResolve, "bad exclude glob", err, map[string]interface{}{"root": root})
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if inc.match(rel) && !exc.match(rel) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, logging.NewError(logging.ErrorTypeResolve, "file tree walk failed", err, map[string]interface{}{"root": root})
	}

	sort.Strings(paths)
	logging.Logger.Debug().Str("root", root).Int("matched", len(paths)).Msg("Resolved path scope")
	return paths, nil
}

// Matches reports whether a single root-relative path falls inside the scope
// described by the include and exclude globs, with the same semantics as
// Resolve.
func Matches(rel string, include, exclude []string) (bool, error) {
	if len(include) == 0 {
		return false, nil
	}
	inc, err := compile(include)
	if err != nil {
		return false, logging.NewError(logging.ErrorTypeResolve, "bad include glob", err, nil)
	}
	exc, err := compile(exclude)
	if err != nil {
		return false, logging.NewError(logging.ErrorTypeResolve, "bad exclude glob", err, nil)
	}
	rel = filepath.ToSlash(rel)
	return inc.match(rel) && !exc.match(rel), nil
}
