// goibniu/pkg/compliance/checker_test.go

package compliance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dahlem/goibniu/pkg/report"
	"github.com/dahlem/goibniu/pkg/rules"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func evalRule() rules.Rule {
	return rules.Rule{
		ID:          "ADR-0001",
		Description: "Prohibit use of eval()",
		Patterns:    rules.PatternGroup{Any: []string{"eval("}},
		Paths:       rules.PathScope{Include: []string{"**/*.py"}, Exclude: []string{"tests/**"}},
	}
}

func TestAnyPatternFires(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/bad.py", "x = 1\ny = eval('1+1')\n")

	rep, err := Check(&rules.RuleSet{Rules: []rules.Rule{evalRule()}}, root)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)

	f := rep.Findings[0]
	assert.Equal(t, report.SeverityError, f.Severity)
	assert.Equal(t, "ADR-0001", f.Source)
	assert.Equal(t, "src/bad.py", f.Location.File)
	assert.Equal(t, 2, f.Location.Line)
	assert.Equal(t, "y = eval('1+1')", f.Location.Snippet)
	assert.Equal(t, 1.0, f.Confidence)
	assert.True(t, rep.Fail)
}

func TestRemovingOccurrenceRemovesFinding(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/good.py", "x = 1\n")

	rep, err := Check(&rules.RuleSet{Rules: []rules.Rule{evalRule()}}, root)
	require.NoError(t, err)
	assert.Empty(t, rep.Findings)
	assert.False(t, rep.Fail)
}

func TestExcludedScopeProducesNoFinding(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tests/fixture.py", "eval('x')\n")

	rep, err := Check(&rules.RuleSet{Rules: []rules.Rule{evalRule()}}, root)
	require.NoError(t, err)
	assert.Empty(t, rep.Findings)
}

func TestAllPatternsRequireEveryPattern(t *testing.T) {
	rule := rules.Rule{
		ID:          "ADR-0002",
		Description: "a and b together",
		Patterns:    rules.PatternGroup{All: []string{"alpha", "beta"}},
		Paths:       rules.PathScope{Include: []string{"**/*.txt"}},
	}

	root := t.TempDir()
	writeFile(t, root, "only_a.txt", "alpha\n")
	writeFile(t, root, "both.txt", "alpha\nbeta\n")

	rep, err := Check(&rules.RuleSet{Rules: []rules.Rule{rule}}, root)
	require.NoError(t, err)

	// Only the file containing both patterns fires, one finding per pattern.
	require.Len(t, rep.Findings, 2)
	for _, f := range rep.Findings {
		assert.Equal(t, "both.txt", f.Location.File)
	}
}

func TestAnyAndAllAreOrCombined(t *testing.T) {
	rule := rules.Rule{
		ID:          "ADR-0003",
		Description: "either clause fires",
		Patterns:    rules.PatternGroup{Any: []string{"solo"}, All: []string{"alpha", "beta"}},
		Paths:       rules.PathScope{Include: []string{"**/*.txt"}},
	}

	root := t.TempDir()
	writeFile(t, root, "via_any.txt", "solo\n")
	writeFile(t, root, "via_all.txt", "alpha beta\n")
	writeFile(t, root, "neither.txt", "alpha only\n")

	rep, err := Check(&rules.RuleSet{Rules: []rules.Rule{rule}}, root)
	require.NoError(t, err)

	files := make(map[string]int)
	for _, f := range rep.Findings {
		files[f.Location.File]++
	}
	assert.Equal(t, 1, files["via_any.txt"])
	assert.Equal(t, 2, files["via_all.txt"])
	assert.Zero(t, files["neither.txt"])
}

func TestEmptyIncludeNeverFires(t *testing.T) {
	rule := rules.Rule{
		ID:          "ADR-0004",
		Description: "no scope",
		Patterns:    rules.PatternGroup{Any: []string{"eval("}},
	}

	root := t.TempDir()
	writeFile(t, root, "bad.py", "eval('x')\n")

	rep, err := Check(&rules.RuleSet{Rules: []rules.Rule{rule}}, root)
	require.NoError(t, err)
	assert.Empty(t, rep.Findings)
}

func TestInertRuleSkipped(t *testing.T) {
	rule := rules.Rule{
		ID:          "ADR-0005",
		Description: "no patterns",
		Paths:       rules.PathScope{Include: []string{"**/*"}},
	}

	root := t.TempDir()
	writeFile(t, root, "anything.py", "eval('x')\n")

	rep, err := Check(&rules.RuleSet{Rules: []rules.Rule{rule}}, root)
	require.NoError(t, err)
	assert.Empty(t, rep.Findings)
}

func TestBadGlobSurfacesAsFinding(t *testing.T) {
	rule := rules.Rule{
		ID:          "ADR-0006",
		Description: "broken scope",
		Patterns:    rules.PatternGroup{Any: []string{"x"}},
		Paths:       rules.PathScope{Include: []string{"["}},
	}

	rep, err := Check(&rules.RuleSet{Rules: []rules.Rule{rule}}, t.TempDir())
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "resolve-error", rep.Findings[0].Kind)
	assert.True(t, rep.Fail)
}

func TestCheckMissingRoot(t *testing.T) {
	_, err := Check(&rules.RuleSet{}, filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestCheckFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/bad.py", "eval('x')\n")
	writeFile(t, root, "tests/fixture.py", "eval('x')\n")
	rs := &rules.RuleSet{Rules: []rules.Rule{evalRule()}}

	rep, err := CheckFile(rs, root, "src/bad.py")
	require.NoError(t, err)
	assert.Len(t, rep.Findings, 1)

	rep, err = CheckFile(rs, root, "tests/fixture.py")
	require.NoError(t, err)
	assert.Empty(t, rep.Findings)
}

func TestCheckRepoSurfacesLoadErrors(t *testing.T) {
	root := t.TempDir()
	adrDir := filepath.Join(root, "docs", "adr")
	writeFile(t, root, "docs/adr/ADR-0001.md",
		"```yaml\ngoibniu_rule:\n  id: ADR-0001\n  description: first\n```\n")
	writeFile(t, root, "docs/adr/ADR-0002.md",
		"```yaml\ngoibniu_rule:\n  id: ADR-0001\n  description: dup\n```\n")

	rep, err := CheckRepo(root, adrDir)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "rule-loader", rep.Findings[0].Source)
	assert.True(t, rep.Fail)
}

// Running the checker twice over an unchanged tree must produce
// byte-identical reports.
func TestCheckDeterminism_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("byte-identical reports for unchanged trees", prop.ForAll(
		func(contents []string) bool {
			root, err := os.MkdirTemp("", "goibniu-prop-*")
			if err != nil {
				return true // Skip on setup failure
			}
			defer os.RemoveAll(root)

			for i, c := range contents {
				name := filepath.Join(root, "f"+string(rune('a'+i%26))+".py")
				if err := os.WriteFile(name, []byte(c), 0o644); err != nil {
					return true
				}
			}

			rs := &rules.RuleSet{Rules: []rules.Rule{evalRule(), {
				ID:          "ADR-0007",
				Description: "alpha and beta",
				Patterns:    rules.PatternGroup{All: []string{"alpha", "beta"}},
				Paths:       rules.PathScope{Include: []string{"**/*.py"}},
			}}}

			first, err := Check(rs, root)
			if err != nil {
				return false
			}
			second, err := Check(rs, root)
			if err != nil {
				return false
			}

			a, err := first.JSON()
			if err != nil {
				return false
			}
			b, err := second.JSON()
			if err != nil {
				return false
			}
			return string(a) == string(b)
		},
		gen.SliceOf(gen.OneConstOf(
			"x = eval('1')\n",
			"alpha\nbeta\n",
			"alpha\n",
			"clean\n",
		)),
	))

	properties.TestingRun(t)
}
