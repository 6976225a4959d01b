// goibniu/pkg/contract/index.go

// Package contract builds a queryable index of declared HTTP operations from
// service-contract documents. Operations are keyed by method and normalized
// path template, so /items/{id} and /items/{itemId} are the same operation.
package contract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dahlem/goibniu/pkg/report"
)

// Wildcard is the token a parameter segment normalizes to.
const Wildcard = "{_}"

// Operation is one declared endpoint of a service contract.
type Operation struct {
	Method        string
	Path          string // template as declared
	RequiredQuery []string
	RequiresBody  bool
}

// Index maps (method, normalized path template) to the declared operation.
// Built once per run and read-only afterwards.
type Index struct {
	ops  map[string]Operation
	keys []string // kept sorted for deterministic wildcard scans
}

func NewIndex() *Index {
	return &Index{ops: make(map[string]Operation)}
}

func (idx *Index) Len() int {
	return len(idx.ops)
}

// Add inserts an operation. It returns false when an operation with the same
// method and normalized path is already present; the existing entry wins.
func (idx *Index) Add(method, path string, requiredQuery []string, requiresBody bool) bool {
	method = strings.ToUpper(method)
	key := method + " " + Normalize(path)
	if _, dup := idx.ops[key]; dup {
		return false
	}

	query := append([]string(nil), requiredQuery...)
	sort.Strings(query)
	idx.ops[key] = Operation{
		Method:        method,
		Path:          path,
		RequiredQuery: query,
		RequiresBody:  requiresBody,
	}

	i := sort.SearchStrings(idx.keys, key)
	idx.keys = append(idx.keys, "")
	copy(idx.keys[i+1:], idx.keys[i:])
	idx.keys[i] = key
	return true
}

// Normalize rewrites a path so that every parameter segment becomes the
// wildcard token: /items/{id} -> /items/{_}. Literal segments are unchanged.
func Normalize(path string) string {
	segs := splitPath(path)
	for i, s := range segs {
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			segs[i] = Wildcard
		}
	}
	return "/" + strings.Join(segs, "/")
}

// Match looks up the operation a call path resolves to. An exact normalized
// lookup is tried first; otherwise templates of the same method and segment
// count are scanned, a template segment matching when it equals the call
// segment or is the wildcard. Among multiple matches the template with the
// fewest wildcard segments wins, remaining ties breaking lexicographically.
// Returns nil when nothing matches.
func (idx *Index) Match(method, path string) *Operation {
	method = strings.ToUpper(method)
	norm := Normalize(path)

	if op, ok := idx.ops[method+" "+norm]; ok {
		return &op
	}

	callSegs := splitPath(norm)
	prefix := method + " "
	var best *Operation
	bestWildcards := -1

	for _, key := range idx.keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		tmplSegs := splitPath(key[len(prefix):])
		if len(tmplSegs) != len(callSegs) {
			continue
		}

		wildcards := 0
		matched := true
		for i, ts := range tmplSegs {
			if ts == Wildcard {
				wildcards++
				continue
			}
			if ts != callSegs[i] {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		if best == nil || wildcards < bestWildcards {
			op := idx.ops[key]
			best = &op
			bestWildcards = wildcards
		}
	}
	return best
}

func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(strings.TrimSpace(path), "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Document is one service-contract document handed to the builder.
type Document struct {
	Path    string
	Content []byte
}

// LoadError records a malformed contract document or a duplicate operation.
type LoadError struct {
	Document string
	Message  string
}

func (e LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Document, e.Message)
}

func (e LoadError) Finding() report.Finding {
	return report.NewFinding(
		report.SeverityError,
		"contract-index",
		"load-error",
		report.Location{File: e.Document},
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
