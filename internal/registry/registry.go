package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"crossref/internal/core/errors"
)

// QueryKind names one of the three capture kinds every language carries.
type QueryKind string

const (
	QueryDefinition QueryKind = "definition"
	QueryCall       QueryKind = "call"
	QueryImport     QueryKind = "import"
)

// QueryKinds in evaluation order.
var QueryKinds = []QueryKind{QueryDefinition, QueryCall, QueryImport}

// QueryTemplates holds the raw tree-sitter query text per kind.
type QueryTemplates struct {
	Definition string `toml:"definition"`
	Call       string `toml:"call"`
	Import     string `toml:"import"`
}

func (t QueryTemplates) forKind(kind QueryKind) string {
	switch kind {
	case QueryDefinition:
		return t.Definition
	case QueryCall:
		return t.Call
	case QueryImport:
		return t.Import
	}
	return ""
}

// LanguageSpec is one registry entry: pure data plus the queries compiled
// from it. Immutable once the registry is built.
type LanguageSpec struct {
	Name       string
	Grammar    string
	Extensions []string
	Templates  QueryTemplates

	language  *sitter.Language
	queries   map[QueryKind]*sitter.Query
	queryErrs map[QueryKind]error
}

// Language returns the grammar bound to this spec.
func (s *LanguageSpec) Language() *sitter.Language {
	return s.language
}

// Query returns the compiled query for a kind, or the compile error
// recorded at registry build time (an INVALID_QUERY_CONFIGURATION for
// that kind only).
func (s *LanguageSpec) Query(kind QueryKind) (*sitter.Query, error) {
	if err, ok := s.queryErrs[kind]; ok {
		return nil, err
	}
	return s.queries[kind], nil
}

// Override adjusts or replaces a built-in entry from a TOML file.
type Override struct {
	Extensions []string       `toml:"extensions"`
	Queries    QueryTemplates `toml:"queries"`
}

type overridesFile struct {
	Languages map[string]Override `toml:"languages"`
}

// Registry maps file extensions and language names to specs.
type Registry struct {
	specs map[string]*LanguageSpec
	byExt map[string]*LanguageSpec
}

// Build assembles the registry from the built-in table, applies the
// optional TOML override file, validates extension ownership, binds
// grammars and compiles queries. A malformed query template does not
// fail the build; it is recorded on the spec and surfaces per kind.
func Build(overridesPath string) (*Registry, error) {
	specs := defaultSpecs()

	if overridesPath != "" {
		data, err := os.ReadFile(overridesPath)
		if err != nil {
			return nil, fmt.Errorf("read registry overrides: %w", err)
		}
		var file overridesFile
		if _, err := toml.Decode(string(data), &file); err != nil {
			return nil, fmt.Errorf("decode registry overrides: %w", err)
		}
		for name, override := range file.Languages {
			spec, ok := specs[name]
			if !ok {
				return nil, errors.New(errors.CodeValidationError,
					fmt.Sprintf("unknown language override %q", name))
			}
			if len(override.Extensions) > 0 {
				spec.Extensions = normalizeExtensions(override.Extensions)
			}
			if override.Queries.Definition != "" {
				spec.Templates.Definition = override.Queries.Definition
			}
			if override.Queries.Call != "" {
				spec.Templates.Call = override.Queries.Call
			}
			if override.Queries.Import != "" {
				spec.Templates.Import = override.Queries.Import
			}
		}
	}

	if err := validateSpecs(specs); err != nil {
		return nil, err
	}

	reg := &Registry{
		specs: specs,
		byExt: make(map[string]*LanguageSpec),
	}

	for _, name := range sortedSpecNames(specs) {
		spec := specs[name]
		lang, err := grammarFor(spec.Grammar)
		if err != nil {
			return nil, err
		}
		spec.language = lang
		spec.queries = make(map[QueryKind]*sitter.Query, len(QueryKinds))
		spec.queryErrs = make(map[QueryKind]error)
		for _, kind := range QueryKinds {
			q, qErr := sitter.NewQuery(lang, spec.Templates.forKind(kind))
			if qErr != nil {
				err := errors.New(errors.CodeInvalidQuery,
					fmt.Sprintf("compile %s query: %s", kind, qErr.Message))
				spec.queryErrs[kind] = errors.AddContext(err, errors.CtxLanguage, name)
				continue
			}
			spec.queries[kind] = q
		}
		for _, ext := range spec.Extensions {
			reg.byExt[ext] = spec
		}
	}

	return reg, nil
}

// Resolve returns the spec owning a path's extension. Unknown extensions
// return false; callers skip such files.
func (r *Registry) Resolve(path string) (*LanguageSpec, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, false
	}
	spec, ok := r.byExt[strings.ToLower(ext)]
	return spec, ok
}

// Get returns a spec by language name.
func (r *Registry) Get(name string) (*LanguageSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// Names returns the registered language names, sorted.
func (r *Registry) Names() []string {
	return sortedSpecNames(r.specs)
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func validateSpecs(specs map[string]*LanguageSpec) error {
	extOwner := make(map[string]string)
	for _, name := range sortedSpecNames(specs) {
		spec := specs[name]
		spec.Extensions = normalizeExtensions(spec.Extensions)
		if len(spec.Extensions) == 0 {
			return errors.New(errors.CodeValidationError,
				fmt.Sprintf("language %q has no extensions", name))
		}
		for _, ext := range spec.Extensions {
			if existing, ok := extOwner[ext]; ok && existing != name {
				return errors.New(errors.CodeValidationError,
					fmt.Sprintf("duplicate extension %q owned by %q and %q", ext, existing, name))
			}
			extOwner[ext] = name
		}
	}
	return nil
}

func normalizeExtensions(values []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(values))
	for _, value := range values {
		raw := strings.TrimSpace(strings.ToLower(value))
		if raw == "" {
			continue
		}
		if !strings.HasPrefix(raw, ".") {
			raw = "." + raw
		}
		if seen[raw] {
			continue
		}
		seen[raw] = true
		out = append(out, raw)
	}
	sort.Strings(out)
	return out
}

func sortedSpecNames(specs map[string]*LanguageSpec) []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
