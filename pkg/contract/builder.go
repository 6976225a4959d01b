// goibniu/pkg/contract/builder.go

package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dahlem/goibniu/pkg/logging"
)

var httpMethods = map[string]bool{
	"get": true, "post": true, "put": true, "patch": true,
	"delete": true, "options": true, "head": true,
}

// contractFile mirrors the OpenAPI subset the checker consumes. Path items
// are kept as raw nodes so non-operation keys (summary, path-level
// parameters) do not break decoding.
type contractFile struct {
	Paths map[string]map[string]yaml.Node `yaml:"paths"`
}

type operationDoc struct {
	Parameters []struct {
		Name     string `yaml:"name"`
		In       string `yaml:"in"`
		Required bool   `yaml:"required"`
	} `yaml:"parameters"`
	RequestBody struct {
		Required bool `yaml:"required"`
	} `yaml:"requestBody"`
}

// BuildIndex parses every contract document into a single index. Malformed
// documents and duplicate operations are recorded as LoadErrors and skipped;
// building never aborts. Documents are processed in the given order and paths
// within a document in lexicographic order, so duplicate resolution is
// deterministic.
func BuildIndex(docs []Document) (*Index, []LoadError) {
	idx := NewIndex()
	var errs []LoadError

	for _, doc := range docs {
		var cf contractFile
		if err := yaml.Unmarshal(doc.Content, &cf); err != nil {
			errs = append(errs, LoadError{
				Document: doc.Path,
				Message:  fmt.Sprintf("unparsable contract document: %v", err),
			})
			continue
		}

		paths := make([]string, 0, len(cf.Paths))
		for p := range cf.Paths {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, path := range paths {
			item := cf.Paths[path]
			methods := make([]string, 0, len(item))
			for m := range item {
				methods = append(methods, m)
			}
			sort.Strings(methods)

			for _, method := range methods {
				if !httpMethods[strings.ToLower(method)] {
					continue
				}
				node := item[method]
				var op operationDoc
				if node.Kind == yaml.MappingNode {
					if err := node.Decode(&op); err != nil {
						errs = append(errs, LoadError{
							Document: doc.Path,
							Message:  fmt.Sprintf("unparsable operation %s %s: %v", strings.ToUpper(method), path, err),
						})
						continue
					}
				}

				var query []string
				for _, p := range op.Parameters {
					if p.In == "query" && p.Required {
						query = append(query, p.Name)
					}
				}

				if !idx.Add(method, path, query, op.RequestBody.Required) {
					errs = append(errs, LoadError{
						Document: doc.Path,
						Message: fmt.Sprintf("duplicate operation %s %s, first declaration wins",
							strings.ToUpper(method), Normalize(path)),
					})
					continue
				}
				logging.Logger.Debug().
					Str("method", strings.ToUpper(method)).
					Str("path", path).
					Str("document", doc.Path).
					Msg("Indexed contract operation")
			}
		}
	}

	return idx, errs
}

// LoadDir reads every yaml/json contract document in dir, in lexicographic
// order, and builds the index from them. A missing directory yields an empty
// index and a single LoadError rather than failing the run.
func LoadDir(dir string) (*Index, []LoadError) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return NewIndex(), []LoadError{{
			Document: dir,
			Message:  fmt.Sprintf("cannot read contract directory: %v", err),
		}}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var docs []Document
	var errs []LoadError
	for _, name := range names {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, LoadError{
				Document: path,
				Message:  fmt.Sprintf("cannot read contract document: %v", err),
			})
			continue
		}
		docs = append(docs, Document{Path: path, Content: content})
	}

	idx, buildErrs := BuildIndex(docs)
	return idx, append(errs, buildErrs...)
}
