// Package lang bundles, per supported language, the tree-sitter grammar with
// the role rules and visitor categories arbor layers on top of it.
package lang

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/arbor/internal/tree"
	"github.com/jward/arbor/internal/visit"
)

// Roles shared by every language. A language declares only the subset its
// grammar can identify by child type alone.
const (
	RoleReturnKeyword     tree.Role = "return_keyword"
	RoleReturnValue       tree.Role = "return_value"
	RoleClosingTerminator tree.Role = "closing_terminator"
	RoleIfKeyword         tree.Role = "if_keyword"
	RoleCondition         tree.Role = "condition"
	RoleThenBranch        tree.Role = "then_branch"
	RoleElseKeyword       tree.Role = "else_keyword"
	RoleElseBranch        tree.Role = "else_branch"
	RoleLoopKeyword       tree.Role = "loop_keyword"
	RoleBody              tree.Role = "body"
	RoleArgument          tree.Role = "argument"
	RoleComment           tree.Role = "comment"
)

// Language is everything arbor knows about one grammar.
type Language struct {
	Name        string
	Roles       *tree.Registry
	Categories  *visit.CategoryMap
	Expressions tree.TypeSet
	Statements  tree.TypeSet

	grammar func() *sitter.Language
	once    sync.Once
	lang    *sitter.Language
}

// Grammar returns the tree-sitter grammar, loading it on first use.
func (l *Language) Grammar() *sitter.Language {
	l.once.Do(func() { l.lang = l.grammar() })
	return l.lang
}

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".go":   "go",
	".java": "java",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".py":   "python",
	".pyi":  "python",
}

var (
	languages     map[string]*Language
	languagesOnce sync.Once
)

func initLanguages() {
	languagesOnce.Do(func() {
		languages = make(map[string]*Language, len(definitions))
		for _, d := range definitions {
			l, err := d.build()
			if err != nil {
				panic(fmt.Sprintf("lang: %s: %v", d.name, err))
			}
			languages[d.name] = l
		}
	})
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	name, ok := extToLanguage[ext]
	return name, ok
}

// Get returns the language with the given canonical name.
func Get(name string) (*Language, bool) {
	initLanguages()
	l, ok := languages[name]
	return l, ok
}

// ForFile returns the language for path's extension.
func ForFile(path string) (*Language, bool) {
	name, ok := LanguageForFile(path)
	if !ok {
		return nil, false
	}
	return Get(name)
}

// Names returns the supported language names, sorted.
func Names() []string {
	initLanguages()
	out := make([]string, 0, len(languages))
	for name := range languages {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AllRoles returns every role name any language declares, sorted.
func AllRoles() []tree.Role {
	initLanguages()
	seen := make(map[tree.Role]struct{})
	for _, l := range languages {
		for _, typ := range l.Roles.Types() {
			for _, r := range l.Roles.Roles(typ) {
				seen[r] = struct{}{}
			}
		}
	}
	out := make([]tree.Role, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
