// goibniu/pkg/apicompliance/checker.go

// Package apicompliance reconciles extracted HTTP call sites against the
// contract index. Its one non-negotiable guarantee: a call that matches no
// declared operation is always an error finding, so fabricated endpoints
// cannot slip through.
package apicompliance

import (
	"fmt"
	"os"
	"strings"

	"github.com/dahlem/goibniu/pkg/apicall"
	"github.com/dahlem/goibniu/pkg/contract"
	"github.com/dahlem/goibniu/pkg/logging"
	"github.com/dahlem/goibniu/pkg/report"
)

const source = "api-compliance"

// CheckAPI classifies every extracted call against the index. Extraction
// gaps are carried into the report as warnings so coverage holes stay
// visible. Findings are deduplicated and ordered deterministically.
func CheckAPI(idx *contract.Index, calls []apicall.Call, gaps []apicall.Gap) *report.Report {
	var findings []report.Finding

	for _, call := range calls {
		loc := report.Location{File: call.File, Line: call.Line}
		op := idx.Match(call.Method, call.Path)
		if op == nil {
			findings = append(findings, report.NewFinding(
				report.SeverityError, source, "unknown-endpoint", loc,
				fmt.Sprintf("call %s %s does not match any declared operation", call.Method, call.Path)))
			continue
		}

		if len(op.RequiredQuery) > 0 && !call.HasQueryArgs {
			findings = append(findings, report.NewFinding(
				report.SeverityError, source, "missing-query-params", loc,
				fmt.Sprintf("call %s %s missing required query parameters: %s",
					call.Method, call.Path, strings.Join(op.RequiredQuery, ", "))))
		}
		if op.RequiresBody && !call.HasBodyArg {
			findings = append(findings, report.NewFinding(
				report.SeverityError, source, "missing-body", loc,
				fmt.Sprintf("call %s %s missing required request body", call.Method, call.Path)))
		}
	}

	for _, gap := range gaps {
		msg := "call site could not be classified: " + gap.Reason
		if gap.Method != "" {
			msg = fmt.Sprintf("%s call site could not be classified: %s", gap.Method, gap.Reason)
		}
		findings = append(findings, report.NewFinding(
			report.SeverityWarning, source, "extraction-gap",
			report.Location{File: gap.File, Line: gap.Line}, msg))
	}

	return report.Assemble(findings)
}

// CheckRepo builds the contract index from the contract directory, extracts
// call sites under root and reconciles the two. Index load errors are folded
// into the returned report as error findings.
func CheckRepo(root, contractDir string) (*report.Report, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, logging.NewError(logging.ErrorTypeResolve, "repository root is not readable", err,
			map[string]interface{}{"root": root})
	}

	idx, loadErrs := contract.LoadDir(contractDir)
	calls, gaps, err := apicall.ExtractCalls(root)
	if err != nil {
		return nil, err
	}

	logging.Logger.Debug().
		Int("operations", idx.Len()).
		Int("calls", len(calls)).
		Msg("Checking API usage against contract index")

	rep := CheckAPI(idx, calls, gaps)
	return report.Assemble(contract.LoadErrorFindings(loadErrs), rep.Findings), nil
}
