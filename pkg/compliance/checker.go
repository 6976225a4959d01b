// goibniu/pkg/compliance/checker.go

// Package compliance evaluates loaded rules against a source tree and
// produces a report of violations. Matching is literal substring matching
// over file contents; patterns are not regular expressions, which keeps runs
// deterministic and immune to catastrophic backtracking from rule authors.
package compliance

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dahlem/goibniu/pkg/logging"
	"github.com/dahlem/goibniu/pkg/pathspec"
	"github.com/dahlem/goibniu/pkg/report"
	"github.com/dahlem/goibniu/pkg/rules"
)

// Check evaluates every non-inert rule against the tree rooted at root and
// returns the assembled compliance report. The only error condition is a
// structurally unreadable root; everything else surfaces inside the report.
func Check(rs *rules.RuleSet, root string) (*report.Report, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, logging.NewError(logging.ErrorTypeResolve, "repository root is not readable", err,
			map[string]interface{}{"root": root})
	}

	var findings []report.Finding
	for _, rule := range rs.Rules {
		if rule.Inert() {
			logging.Logger.Debug().Str("rule", rule.ID).Msg("Skipping inert rule")
			continue
		}

		paths, err := pathspec.Resolve(root, rule.Paths.Include, rule.Paths.Exclude)
		if err != nil {
			findings = append(findings, report.NewFinding(
				report.SeverityError, rule.ID, "resolve-error",
				report.Location{File: root},
				fmt.Sprintf("cannot resolve rule scope: %v", err)))
			continue
		}

		for _, rel := range paths {
			content, err := os.ReadFile(filepath.Join(root, rel))
			if err != nil {
				findings = append(findings, report.NewFinding(
					report.SeverityWarning, rule.ID, "read-error",
					report.Location{File: rel},
					fmt.Sprintf("cannot read candidate file: %v", err)))
				continue
			}
			findings = append(findings, matchFile(rule, rel, string(content))...)
		}
	}

	return report.Assemble(findings), nil
}

// CheckFile evaluates the rules against a single root-relative target,
// respecting each rule's include/exclude scope.
func CheckFile(rs *rules.RuleSet, root, target string) (*report.Report, error) {
	content, err := os.ReadFile(filepath.Join(root, target))
	if err != nil {
		return nil, logging.NewError(logging.ErrorTypeResolve, "target file is not readable", err,
			map[string]interface{}{"root": root, "target": target})
	}
	text := string(content)

	var findings []report.Finding
	for _, rule := range rs.Rules {
		if rule.Inert() {
			continue
		}
		in, err := pathspec.Matches(target, rule.Paths.Include, rule.Paths.Exclude)
		if err != nil {
			findings = append(findings, report.NewFinding(
				report.SeverityError, rule.ID, "resolve-error",
				report.Location{File: target},
				fmt.Sprintf("cannot resolve rule scope: %v", err)))
			continue
		}
		if in {
			findings = append(findings, matchFile(rule, filepath.ToSlash(target), text)...)
		}
	}
	return report.Assemble(findings), nil
}

// CheckRepo loads rules from the decision-document directory and checks the
// whole tree. Load errors are folded into the returned report as error
// findings so a broken policy file cannot cause a silent pass.
func CheckRepo(root, adrDir string) (*report.Report, error) {
	rs, loadErrs := rules.LoadRulesFromDir(adrDir)
	rep, err := Check(rs, root)
	if err != nil {
		return nil, err
	}
	return report.Assemble(rules.LoadErrorFindings(loadErrs), rep.Findings), nil
}

// matchFile applies one rule to one candidate file. The rule fires when at
// least one any-pattern is present, or when every all-pattern is present; the
// two clauses are OR-combined. On firing, each matched pattern yields one
// finding at its first occurrence.
func matchFile(rule rules.Rule, rel, text string) []report.Finding {
	var anyHits []string
	for _, p := range rule.Patterns.Any {
		if strings.Contains(text, p) {
			anyHits = append(anyHits, p)
		}
	}

	allSatisfied := len(rule.Patterns.All) > 0
	for _, p := range rule.Patterns.All {
		if !strings.Contains(text, p) {
			allSatisfied = false
			break
		}
	}

	fired := len(anyHits) > 0 || allSatisfied
	if !fired {
		return nil
	}

	matched := anyHits
	if allSatisfied {
		matched = append(matched, rule.Patterns.All...)
	}

	findings := make([]report.Finding, 0, len(matched))
	for _, p := range matched {
		line, snippet := firstOccurrence(text, p)
		findings = append(findings, report.NewFinding(
			report.SeverityError, rule.ID, "pattern-match",
			report.Location{File: rel, Line: line, Snippet: snippet},
			fmt.Sprintf("%s: pattern %q matched", rule.Description, p)))
	}
	return findings
}

// firstOccurrence returns the 1-based line number of the first occurrence of
// pattern and the full text of that line.
func firstOccurrence(text, pattern string) (int, string) {
	idx := strings.Index(text, pattern)
	if idx < 0 {
		return 0, ""
	}
	line := 1 + strings.Count(text[:idx], "\n")
	start := strings.LastIndexByte(text[:idx], '\n') + 1
	end := strings.IndexByte(text[idx:], '\n')
	if end < 0 {
		end = len(text)
	} else {
		end += idx
	}
	return line, strings.TrimRight(text[start:end], "\r")
}
