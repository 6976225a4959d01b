// goibniu/pkg/rules/loader.go

// Package rules loads compliance rules from policy blocks embedded in
// decision documents. A policy block is a fenced yaml block, anywhere in the
// document body, whose top-level mapping carries a 'goibniu_rule' key:
//
//	```yaml
//	goibniu_rule:
//	  id: ADR-0001
//	  description: Prohibit use of eval()
//	  patterns:
//	    any: ['eval(']
//	  paths:
//	    include: ['**/*.py']
//	    exclude: ['tests/**']
//	```
package rules

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/dahlem/goibniu/pkg/logging"
)

var policyBlockRe = regexp.MustCompile("(?s)```yaml[ \t]*\n(.*?)```")

// LoadRules extracts rules from every document, in document order. Malformed
// blocks and duplicate rule ids are recorded as LoadErrors and skipped; the
// first-seen rule wins a duplicate. Loading never aborts.
func LoadRules(docs []Document) (*RuleSet, []LoadError) {
	rs := &RuleSet{}
	var errs []LoadError
	firstSeen := make(map[string]string) // rule id -> document path

	for _, doc := range docs {
		for _, m := range policyBlockRe.FindAllSubmatchIndex(doc.Content, -1) {
			offset := m[2]
			block := doc.Content[m[2]:m[3]]
			line := lineAt(doc.Content, offset)

			rule, ok, err := parseBlock(block)
			if err != nil {
				errs = append(errs, LoadError{
					Document: doc.Path,
					Line:     line,
					Offset:   offset,
					Message:  err.Error(),
				})
				continue
			}
			if !ok {
				continue // yaml block, but not a policy block
			}

			if prev, dup := firstSeen[rule.ID]; dup {
				errs = append(errs, LoadError{
					Document: doc.Path,
					Line:     line,
					Offset:   offset,
					Message:  fmt.Sprintf("duplicate rule id %q, first defined in %s", rule.ID, prev),
				})
				continue
			}
			firstSeen[rule.ID] = doc.Path
			rs.Rules = append(rs.Rules, rule)
			logging.Logger.Debug().Str("rule", rule.ID).Str("document", doc.Path).Msg("Loaded rule")
		}
	}

	return rs, errs
}

// parseBlock parses one fenced yaml block. The second return is false when
// the block is valid yaml but not a policy block.
func parseBlock(block []byte) (Rule, bool, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(block, &root); err != nil {
		return Rule{}, false, fmt.Errorf("unparsable policy block: %v", err)
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return Rule{}, false, nil
	}

	mapping := root.Content[0]
	var ruleNode *yaml.Node
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == "goibniu_rule" {
			ruleNode = mapping.Content[i+1]
			break
		}
	}
	if ruleNode == nil {
		return Rule{}, false, nil
	}

	var rule Rule
	if err := ruleNode.Decode(&rule); err != nil {
		return Rule{}, false, fmt.Errorf("unparsable policy block: %v", err)
	}
	if rule.ID == "" {
		return Rule{}, false, fmt.Errorf("policy block missing required field 'id'")
	}
	if rule.Description == "" {
		return Rule{}, false, fmt.Errorf("policy block %q missing required field 'description'", rule.ID)
	}
	return rule, true, nil
}

// LoadRulesFromDir reads every markdown file in dir, in lexicographic order,
// and loads the rules embedded in them. A missing directory yields an empty
// rule set and a single LoadError rather than failing the run.
func LoadRulesFromDir(dir string) (*RuleSet, []LoadError) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &RuleSet{}, []LoadError{{
			Document: dir,
			Message:  fmt.Sprintf("cannot read decision document directory: %v", err),
		}}
	}

	var docs []Document
	var errs []LoadError
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".md" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, LoadError{
				Document: path,
				Message:  fmt.Sprintf("cannot read decision document: %v", err),
			})
			continue
		}
		docs = append(docs, Document{Path: path, Content: content})
	}

	rs, loadErrs := LoadRules(docs)
	return rs, append(errs, loadErrs...)
}

func lineAt(content []byte, offset int) int {
	if offset > len(content) {
		offset = len(content)
	}
	return 1 + bytes.Count(content[:offset], []byte{'\n'})
}
