// goibniu/pkg/report/report.go

// Package report defines the finding and report shapes shared by the
// compliance and API-compliance checkers. Reports are assembled once, sorted
// deterministically, and not mutated afterwards.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Location identifies where a finding was observed. Line 0 means the finding
// applies to the whole file or document.
type Location struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

func (l Location) String() string {
	if l.Line > 0 {
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return l.File
}

// Finding is one reported compliance or contract-mismatch event.
type Finding struct {
	Severity   Severity `json:"severity"`
	Source     string   `json:"source"`
	Kind       string   `json:"kind,omitempty"`
	Location   Location `json:"location"`
	Message    string   `json:"message"`
	Confidence float64  `json:"confidence"`
}

// NewFinding builds a finding with the default confidence of 1.0 used for
// deterministic matches.
func NewFinding(severity Severity, source, kind string, loc Location, message string) Finding {
	return Finding{
		Severity:   severity,
		Source:     source,
		Kind:       kind,
		Location:   loc,
		Message:    message,
		Confidence: 1.0,
	}
}

// Report is an ordered sequence of findings plus the pass/fail verdict.
type Report struct {
	Findings []Finding `json:"findings"`
	Fail     bool      `json:"fail"`
}

// Assemble merges finding groups into a finalized report: duplicates removed,
// findings sorted by source, file, line, kind and message, and Fail set when
// any error-severity finding remains.
func Assemble(groups ...[]Finding) *Report {
	var all []Finding
	seen := make(map[string]bool)
	for _, group := range groups {
		for _, f := range group {
			key := dedupeKey(f)
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, f)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Location.File != b.Location.File {
			return a.Location.File < b.Location.File
		}
		if a.Location.Line != b.Location.Line {
			return a.Location.Line < b.Location.Line
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Message < b.Message
	})

	rep := &Report{Findings: all}
	for _, f := range all {
		if f.Severity == SeverityError {
			rep.Fail = true
			break
		}
	}
	return rep
}

// Merge combines already-assembled reports into a new one. The inputs are not
// modified.
func Merge(reports ...*Report) *Report {
	groups := make([][]Finding, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			groups = append(groups, r.Findings)
		}
	}
	return Assemble(groups...)
}

func dedupeKey(f Finding) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%s", f.Severity, f.Source, f.Kind, f.Location.File, f.Location.Line, f.Message)
}

// JSON renders the report for machine consumption.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteText renders a line-oriented human-readable summary.
func (r *Report) WriteText(w io.Writer) error {
	for _, f := range r.Findings {
		sev := "ERROR"
		if f.Severity == SeverityWarning {
			sev = "WARN"
		}
		if _, err := fmt.Fprintf(w, "%-5s [%s] %s %s\n", sev, f.Source, f.Location, f.Message); err != nil {
			return err
		}
	}
	verdict := "PASS"
	if r.Fail {
		verdict = "FAIL"
	}
	_, err := fmt.Fprintf(w, "%s: %d finding(s)\n", verdict, len(r.Findings))
	return err
}
