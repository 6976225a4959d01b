// goibniu/pkg/rules/structs.go
package rules

import (
	"fmt"

	"github.com/dahlem/goibniu/pkg/report"
)

// Rule is one architectural compliance rule extracted from a policy block
// inside a decision document.
type Rule struct {
	ID          string       `yaml:"id"`
	Description string       `yaml:"description"`
	Patterns    PatternGroup `yaml:"patterns"`
	Paths       PathScope    `yaml:"paths"`
}

// PatternGroup holds the literal match patterns of a rule. Any-patterns fire
// when at least one is present; all-patterns fire only when every one is
// present.
type PatternGroup struct {
	Any []string `yaml:"any"`
	All []string `yaml:"all"`
}

type PathScope struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Inert reports whether the rule can never fire because both pattern lists
// are empty. Inert rules are legal and simply skipped.
func (r *Rule) Inert() bool {
	return len(r.Patterns.Any) == 0 && len(r.Patterns.All) == 0
}

type RuleSet struct {
	Rules []Rule
}

// Document is one decision document handed to the loader.
type Document struct {
	Path    string
	Content []byte
}

// LoadError records a malformed or duplicate policy block. Load errors never
// abort loading; they surface in the final report as error findings.
type LoadError struct {
	Document string
	Line     int
	Offset   int
	Message  string
}

func (e LoadError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Document, e.Line, e.Message)
}

// Finding converts the load error into the report shape so a broken policy
// file can never cause a silent pass.
func (e LoadError) Finding() report.Finding {
	return report.NewFinding(
		report.SeverityError,
		"rule-loader",
		"load-error",
		report.Location{File: e.Document, Line: e.Line},
		e.Message,
	)
}

// LoadErrorFindings converts a batch of load errors for report assembly.
func LoadErrorFindings(errs []LoadError) []report.Finding {
	findings := make([]report.Finding, 0, len(errs))
	for _, e := range errs {
		findings = append(findings, e.Finding())
	}
	return findings
}
