// goibniu/tools/rule_gen/main.go

// rule_gen generates sample decision documents with embedded policy blocks
// and a matching contract document. Useful for trying out the checkers and
// for benchmarking against larger rule sets.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

var bannedPatterns = []string{
	"eval(", "exec(", "os.system(", "pickle.loads(", "subprocess.call(",
	"unsafe.Pointer", "md5.New(", "http://",
}

var apiPaths = []string{
	"/items", "/items/{id}", "/users", "/users/{id}/orders", "/health",
	"/search", "/reports/{id}",
}

func main() {
	ruleCount := flag.Int("rules", 5, "Number of decision documents to generate")
	outDir := flag.String("out", "testdata_gen", "Output directory")
	seed := flag.Int64("seed", 0, "Random seed (0 for non-deterministic)")
	flag.Parse()

	if *seed != 0 {
		gofakeit.Seed(*seed)
	}

	adrDir := filepath.Join(*outDir, "docs", "adr")
	contractDir := filepath.Join(*outDir, "contracts")
	for _, dir := range []string{adrDir, contractDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "rule_gen: %v\n", err)
			os.Exit(1)
		}
	}

	for i := 1; i <= *ruleCount; i++ {
		doc := decisionDocument(i)
		name := fmt.Sprintf("ADR-%04d.md", i)
		if err := os.WriteFile(filepath.Join(adrDir, name), []byte(doc), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "rule_gen: %v\n", err)
			os.Exit(1)
		}
	}

	if err := os.WriteFile(filepath.Join(contractDir, "service.yaml"), []byte(contractDocument()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "rule_gen: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d decision documents and 1 contract document in %s\n", *ruleCount, *outDir)
}

func decisionDocument(n int) string {
	pattern := bannedPatterns[gofakeit.Number(0, len(bannedPatterns)-1)]
	title := gofakeit.Sentence(4)

	var b strings.Builder
	fmt.Fprintf(&b, "# ADR-%04d: %s\n\n", n, strings.TrimSuffix(title, "."))
	fmt.Fprintf(&b, "## Status\n\nAccepted\n\n")
	fmt.Fprintf(&b, "## Context\n\n%s\n\n", gofakeit.Paragraph(1, 3, 8, " "))
	fmt.Fprintf(&b, "## Decision\n\n%s\n\n", gofakeit.Paragraph(1, 2, 8, " "))
	fmt.Fprintf(&b, "```yaml\ngoibniu_rule:\n")
	fmt.Fprintf(&b, "  id: ADR-%04d\n", n)
	fmt.Fprintf(&b, "  description: Prohibit use of %s\n", pattern)
	fmt.Fprintf(&b, "  patterns:\n    any: [%q]\n", pattern)
	fmt.Fprintf(&b, "  paths:\n    include: ['**/*.py', '**/*.go']\n    exclude: ['tests/**']\n")
	fmt.Fprintf(&b, "```\n")
	return b.String()
}

func contractDocument() string {
	var b strings.Builder
	b.WriteString("openapi: 3.0.0\n")
	fmt.Fprintf(&b, "info:\n  title: %s\n  version: 1.0.0\n", gofakeit.AppName())
	b.WriteString("paths:\n")
	for _, p := range apiPaths {
		fmt.Fprintf(&b, "  %s:\n    get:\n      responses:\n        '200':\n        '404':\n", p)
	}
	return b.String()
}
