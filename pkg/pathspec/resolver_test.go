// goibniu/pkg/pathspec/resolver_test.go

package pathspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveIncludeExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.py", "")
	writeFile(t, root, "src/sub/b.py", "")
	writeFile(t, root, "tests/c.py", "")
	writeFile(t, root, "README.md", "")

	paths, err := Resolve(root, []string{"**/*.py"}, []string{"tests/**"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"src/a.py", "src/sub/b.py"}, paths)
}

func TestResolveMatchesRootLevelFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "")
	writeFile(t, root, "src/b.py", "")

	paths, err := Resolve(root, []string{"**/*.py"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a.py", "src/b.py"}, paths)
}

func TestResolveEmptyIncludeMatchesNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "")

	paths, err := Resolve(root, nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, paths)
}

func TestResolveSingleSegmentWildcard(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.py", "")
	writeFile(t, root, "src/sub/b.py", "")

	paths, err := Resolve(root, []string{"src/*.py"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"src/a.py"}, paths)
}

func TestResolveExcludeWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.py", "")

	paths, err := Resolve(root, []string{"**/*.py"}, []string{"**/a.py"})
	assert.NoError(t, err)
	assert.Empty(t, paths)
}

func TestResolveSkipsVendoredDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/dep/index.js", "")
	writeFile(t, root, ".venv/lib/mod.py", "")
	writeFile(t, root, "src/a.py", "")

	paths, err := Resolve(root, []string{"**/*.py", "**/*.js"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"src/a.py"}, paths)
}

func TestResolveDeterministicOrdering(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "z.py", "")
	writeFile(t, root, "a.py", "")
	writeFile(t, root, "m/n.py", "")

	first, err := Resolve(root, []string{"**/*.py"}, nil)
	assert.NoError(t, err)
	second, err := Resolve(root, []string{"**/*.py"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a.py", "m/n.py", "z.py"}, first)
}

func TestResolveBadGlob(t *testing.T) {
	root := t.TempDir()
	_, err := Resolve(root, []string{"["}, nil)
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name    string
		rel     string
		include []string
		exclude []string
		want    bool
	}{
		{"included", "src/a.py", []string{"**/*.py"}, nil, true},
		{"excluded wins", "tests/a.py", []string{"**/*.py"}, []string{"tests/**"}, false},
		{"empty include", "src/a.py", nil, nil, false},
		{"wrong extension", "src/a.go", []string{"**/*.py"}, nil, false},
		{"root level", "a.py", []string{"**/*.py"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Matches(tt.rel, tt.include, tt.exclude)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
