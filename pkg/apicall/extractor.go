// goibniu/pkg/apicall/extractor.go

// Package apicall extracts outbound HTTP call sites from source files. The
// recognizer is lexical, not semantic: it looks for a client identifier
// followed by an HTTP verb method and a parenthesized argument list whose
// path argument is a string literal, possibly with interpolated segments.
// Highly dynamic call construction (paths assembled across statements) is
// reported as an extraction gap rather than guessed at; callers should treat
// the extractor as precise but deliberately incomplete.
package apicall

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dahlem/goibniu/pkg/logging"
	"github.com/dahlem/goibniu/pkg/pathspec"
)

// Call is one recognized outbound HTTP invocation. Path keeps interpolated
// segments as the {_} placeholder; the query string is stripped into
// HasQueryArgs.
type Call struct {
	Method       string
	Path         string
	HasQueryArgs bool
	HasBodyArg   bool
	File         string
	Line         int
}

// Gap records a call site the extractor recognized but could not classify.
type Gap struct {
	File   string
	Line   int
	Method string
	Reason string
}

// Source globs the extractor scans. The recognizer is syntax-agnostic, so
// any text-bearing source extension is fair game.
var sourceGlobs = []string{
	"**/*.go", "**/*.py", "**/*.js", "**/*.jsx", "**/*.ts", "**/*.tsx",
	"**/*.java", "**/*.kt", "**/*.rb", "**/*.cs", "**/*.rs", "**/*.php",
	"**/*.scala", "**/*.swift",
}

// Identifiers accepted as HTTP client receivers. Idents ending in 'client'
// or 'session' also qualify, so apiClient.Get and userSession.post match.
var clientIdents = map[string]bool{
	"requests": true,
	"httpx":    true,
	"http":     true,
	"client":   true,
	"session":  true,
	"api":      true,
}

var callRe = regexp.MustCompile(`(?i)\b([a-z_][a-z0-9_]*)\s*\.\s*(get|post|put|patch|delete|options|head)\s*\(`)

var (
	templateVarRe = regexp.MustCompile(`\$\{[^}]*\}`)
	percentVerbRe = regexp.MustCompile(`%[sdvfxq]`)
)

// ExtractCalls scans every source file under root and returns the recognized
// calls plus the gaps, both in deterministic (path, offset) order.
func ExtractCalls(root string) ([]Call, []Gap, error) {
	paths, err := pathspec.Resolve(root, sourceGlobs, nil)
	if err != nil {
		return nil, nil, err
	}

	var calls []Call
	var gaps []Gap
	for _, rel := range paths {
		content, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			gaps = append(gaps, Gap{File: rel, Reason: "unreadable source file"})
			continue
		}
		fileCalls, fileGaps := scanFile(rel, string(content))
		calls = append(calls, fileCalls...)
		gaps = append(gaps, fileGaps...)
	}

	logging.Logger.Debug().Int("calls", len(calls)).Int("gaps", len(gaps)).Msg("Extracted call sites")
	return calls, gaps, nil
}

func scanFile(rel, text string) ([]Call, []Gap) {
	var calls []Call
	var gaps []Gap

	for _, m := range callRe.FindAllStringSubmatchIndex(text, -1) {
		ident := text[m[2]:m[3]]
		verb := strings.ToUpper(text[m[4]:m[5]])
		if !isClientIdent(ident) {
			continue
		}
		if inComment(text, m[0]) {
			continue
		}
		line := 1 + strings.Count(text[:m[0]], "\n")

		args, ok := argumentList(text, m[1]-1)
		if !ok {
			gaps = append(gaps, Gap{File: rel, Line: line, Method: verb, Reason: "unterminated call expression"})
			continue
		}

		call, reason := classify(args)
		if reason != "" {
			gaps = append(gaps, Gap{File: rel, Line: line, Method: verb, Reason: reason})
			continue
		}
		call.Method = verb
		call.File = rel
		call.Line = line
		calls = append(calls, call)
	}

	return calls, gaps
}

func isClientIdent(ident string) bool {
	lower := strings.ToLower(ident)
	return clientIdents[lower] ||
		strings.HasSuffix(lower, "client") ||
		strings.HasSuffix(lower, "session")
}

// inComment suppresses matches on lines that are comments in the common
// source syntaxes. Block comments are not tracked.
func inComment(text string, offset int) bool {
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	prefix := strings.TrimSpace(text[start:offset])
	for _, marker := range []string{"//", "#", "*", "--"} {
		if strings.HasPrefix(prefix, marker) {
			return true
		}
	}
	return false
}

// argumentList returns the comma-separated top-level arguments of the call
// whose opening parenthesis is at open. Strings and nested brackets are
// respected; ok is false when the expression is unterminated.
func argumentList(text string, open int) ([]string, bool) {
	depth := 0
	var quote byte
	argStart := open + 1
	var args []string

	for i := open; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				if arg := strings.TrimSpace(text[argStart:i]); arg != "" {
					args = append(args, arg)
				}
				return args, true
			}
		case ',':
			if depth == 1 {
				args = append(args, strings.TrimSpace(text[argStart:i]))
				argStart = i + 1
			}
		}
	}
	return nil, false
}

// classify turns an argument list into a Call. The path is the first
// argument containing a string literal; earlier non-literal arguments (a
// context, a client receiver) are skipped. A non-empty reason marks the call
// as an extraction gap.
func classify(args []string) (Call, string) {
	pathIdx := -1
	var path string
	for i, arg := range args {
		if isKeywordArg(arg) {
			continue
		}
		if p, ok := pathFromArg(arg); ok && looksLikePath(p) {
			pathIdx = i
			path = p
			break
		}
	}
	if pathIdx < 0 {
		return Call{}, "dynamic path construction, no path-like literal argument"
	}

	path = stripHost(path)
	var call Call
	if q := strings.IndexByte(path, '?'); q >= 0 {
		call.HasQueryArgs = true
		path = path[:q]
	}
	if path == "" {
		return Call{}, "empty path after host stripping"
	}
	call.Path = path

	for _, arg := range args[pathIdx+1:] {
		switch {
		case keywordArgRe.MatchString(arg):
			name := strings.ToLower(keywordArgRe.FindStringSubmatch(arg)[1])
			switch name {
			case "params", "query":
				call.HasQueryArgs = true
			case "json", "data", "body", "payload":
				call.HasBodyArg = true
			}
		case !isKeywordArg(arg):
			// Trailing positional argument, e.g. the body reader in
			// http.Post(url, contentType, body).
			call.HasBodyArg = true
		}
	}
	return call, ""
}

var keywordArgRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*[=:]`)

// looksLikePath filters out string literals that are clearly not request
// paths, such as the content-type argument of Go's http.Post.
func looksLikePath(p string) bool {
	return strings.HasPrefix(p, "/") || strings.HasPrefix(p, "{_}/") ||
		strings.Contains(p, "://")
}

func isKeywordArg(arg string) bool {
	return keywordArgRe.MatchString(arg)
}

// pathFromArg rebuilds a path expression from one argument. The argument is
// split on top-level '+'; literal operands contribute their text with
// interpolation markers rewritten to {_}, non-literal operands contribute a
// single {_} segment.
func pathFromArg(arg string) (string, bool) {
	operands := splitConcat(arg)
	sawLiteral := false
	var b strings.Builder
	for _, op := range operands {
		lit, ok := firstStringLiteral(op)
		if !ok {
			b.WriteString("{_}")
			continue
		}
		sawLiteral = true
		b.WriteString(rewritePlaceholders(lit))
	}
	if !sawLiteral {
		return "", false
	}
	return b.String(), true
}

// splitConcat splits on '+' outside strings and brackets.
func splitConcat(arg string) []string {
	depth := 0
	var quote byte
	start := 0
	var parts []string
	for i := 0; i < len(arg); i++ {
		c := arg[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '+':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(arg[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(arg[start:]))
}

func firstStringLiteral(expr string) (string, bool) {
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if c != '\'' && c != '"' && c != '`' {
			continue
		}
		for j := i + 1; j < len(expr); j++ {
			if expr[j] == '\\' {
				j++
				continue
			}
			if expr[j] == c {
				return expr[i+1 : j], true
			}
		}
		return "", false // unterminated literal
	}
	return "", false
}

// rewritePlaceholders maps the common interpolation styles to the wildcard
// segment token: ${x} template literals, %s-style format verbs. Brace
// placeholders like {id} are left intact; path normalization treats them as
// parameters already.
func rewritePlaceholders(lit string) string {
	lit = templateVarRe.ReplaceAllString(lit, "{_}")
	lit = percentVerbRe.ReplaceAllString(lit, "{_}")
	return lit
}

// stripHost drops the scheme and authority of absolute URLs, keeping the
// path: http://svc:8080/items -> /items.
func stripHost(path string) string {
	idx := strings.Index(path, "://")
	if idx < 0 {
		return path
	}
	rest := path[idx+3:]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return "/"
	}
	return rest[slash:]
}
