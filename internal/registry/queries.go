package registry

// Built-in language table. Per-language behavior lives entirely in this
// data: extensions plus the three query templates evaluated by the
// extractor. Captures: @definition/@name(/@doc implicit via adjacency),
// @call/@callee/@qualifier, @import/@path/@alias.
func defaultSpecs() map[string]*LanguageSpec {
	return map[string]*LanguageSpec{
		"go": {
			Name:       "go",
			Grammar:    "go",
			Extensions: []string{".go"},
			Templates: QueryTemplates{
				Definition: `
(function_declaration name: (identifier) @name) @definition
(method_declaration name: (field_identifier) @name) @definition
`,
				Call: `
(call_expression function: (identifier) @callee) @call
(call_expression function: (selector_expression operand: (_) @qualifier field: (field_identifier) @callee)) @call
`,
				Import: `
(import_spec name: (package_identifier) @alias path: (interpreted_string_literal) @path) @import
(import_spec !name path: (interpreted_string_literal) @path) @import
`,
			},
		},
		"python": {
			Name:       "python",
			Grammar:    "python",
			Extensions: []string{".py"},
			Templates: QueryTemplates{
				Definition: `
(function_definition name: (identifier) @name) @definition
(class_definition name: (identifier) @name) @definition
`,
				Call: `
(call function: (identifier) @callee) @call
(call function: (attribute object: (_) @qualifier attribute: (identifier) @callee)) @call
`,
				Import: `
(import_statement name: (dotted_name) @path) @import
(import_statement name: (aliased_import name: (dotted_name) @path alias: (identifier) @alias)) @import
(import_from_statement module_name: (dotted_name) @path) @import
`,
			},
		},
		"javascript": {
			Name:       "javascript",
			Grammar:    "javascript",
			Extensions: []string{".js", ".cjs", ".mjs"},
			Templates: QueryTemplates{
				Definition: `
(function_declaration name: (identifier) @name) @definition
(method_definition name: (property_identifier) @name) @definition
(class_declaration name: (identifier) @name) @definition
`,
				Call: `
(call_expression function: (identifier) @callee) @call
(call_expression function: (member_expression object: (_) @qualifier property: (property_identifier) @callee)) @call
`,
				Import: `
(import_statement source: (string) @path) @import
`,
			},
		},
		"typescript": {
			Name:       "typescript",
			Grammar:    "typescript",
			Extensions: []string{".ts"},
			Templates: QueryTemplates{
				Definition: `
(function_declaration name: (identifier) @name) @definition
(method_definition name: (property_identifier) @name) @definition
(class_declaration name: (type_identifier) @name) @definition
`,
				Call: `
(call_expression function: (identifier) @callee) @call
(call_expression function: (member_expression object: (_) @qualifier property: (property_identifier) @callee)) @call
`,
				Import: `
(import_statement source: (string) @path) @import
`,
			},
		},
		"tsx": {
			Name:       "tsx",
			Grammar:    "tsx",
			Extensions: []string{".tsx"},
			Templates: QueryTemplates{
				Definition: `
(function_declaration name: (identifier) @name) @definition
(method_definition name: (property_identifier) @name) @definition
(class_declaration name: (type_identifier) @name) @definition
`,
				Call: `
(call_expression function: (identifier) @callee) @call
(call_expression function: (member_expression object: (_) @qualifier property: (property_identifier) @callee)) @call
`,
				Import: `
(import_statement source: (string) @path) @import
`,
			},
		},
		"java": {
			Name:       "java",
			Grammar:    "java",
			Extensions: []string{".java"},
			Templates: QueryTemplates{
				Definition: `
(method_declaration name: (identifier) @name) @definition
(constructor_declaration name: (identifier) @name) @definition
(class_declaration name: (identifier) @name) @definition
(interface_declaration name: (identifier) @name) @definition
`,
				Call: `
(method_invocation !object name: (identifier) @callee) @call
(method_invocation object: (_) @qualifier name: (identifier) @callee) @call
`,
				Import: `
(import_declaration (scoped_identifier) @path) @import
`,
			},
		},
		"rust": {
			Name:       "rust",
			Grammar:    "rust",
			Extensions: []string{".rs"},
			Templates: QueryTemplates{
				Definition: `
(function_item name: (identifier) @name) @definition
`,
				Call: `
(call_expression function: (identifier) @callee) @call
(call_expression function: (field_expression value: (_) @qualifier field: (field_identifier) @callee)) @call
(call_expression function: (scoped_identifier path: (_) @qualifier name: (identifier) @callee)) @call
`,
				Import: `
(use_declaration argument: (_) @path) @import
`,
			},
		},
	}
}
