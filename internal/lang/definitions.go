package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/jward/arbor/internal/tree"
	"github.com/jward/arbor/internal/visit"
)

type ruleSets struct {
	expr, stmt, comment tree.TypeSet
}

type definition struct {
	name         string
	grammar      func() *sitter.Language
	files        []tree.ElementType
	declarations []tree.ElementType
	statements   []tree.ElementType
	expressions  []tree.ElementType
	comments     []tree.ElementType
	roles        func(s ruleSets) map[tree.ElementType][]tree.RoleRule
}

func (d *definition) build() (*Language, error) {
	s := ruleSets{
		expr:    tree.NewTypeSet(d.expressions...),
		stmt:    tree.NewTypeSet(d.statements...),
		comment: tree.NewTypeSet(d.comments...),
	}
	reg := tree.NewRegistry()
	for parent, rules := range d.roles(s) {
		if err := reg.Define(parent, rules...); err != nil {
			return nil, err
		}
	}
	cats := visit.NewCategoryMap(visit.CategoryUnknown).
		Assign(visit.CategoryStatement, d.statements...).
		Assign(visit.CategoryExpression, d.expressions...).
		Assign(visit.CategoryDeclaration, d.declarations...).
		Assign(visit.CategoryFile, d.files...).
		Assign(visit.CategoryComment, d.comments...)
	return &Language{
		Name:        d.name,
		Roles:       reg,
		Categories:  cats,
		Expressions: s.expr,
		Statements:  s.stmt,
		grammar:     d.grammar,
	}, nil
}

func set(types ...tree.ElementType) tree.TypeSet { return tree.NewTypeSet(types...) }

var definitions = []*definition{goDef, javaDef, javascriptDef, pythonDef}

var goDef = &definition{
	name:    "go",
	grammar: golang.GetLanguage,
	files:   []tree.ElementType{"source_file"},
	declarations: []tree.ElementType{
		"package_clause", "import_declaration", "function_declaration", "method_declaration",
		"type_declaration", "const_declaration", "var_declaration",
	},
	statements: []tree.ElementType{
		"block", "statement_list", "return_statement", "if_statement", "for_statement",
		"expression_switch_statement", "type_switch_statement", "select_statement",
		"expression_statement", "short_var_declaration", "assignment_statement",
		"inc_statement", "dec_statement", "go_statement", "defer_statement",
		"break_statement", "continue_statement", "goto_statement", "labeled_statement",
		"send_statement", "fallthrough_statement", "empty_statement",
	},
	expressions: []tree.ElementType{
		"expression_list", "identifier", "int_literal", "float_literal", "imaginary_literal",
		"rune_literal", "interpreted_string_literal", "raw_string_literal",
		"true", "false", "nil", "iota",
		"call_expression", "binary_expression", "unary_expression", "selector_expression",
		"index_expression", "slice_expression", "type_assertion_expression",
		"type_conversion_expression", "composite_literal", "func_literal",
		"parenthesized_expression",
	},
	comments: []tree.ElementType{"comment"},
	roles: func(s ruleSets) map[tree.ElementType][]tree.RoleRule {
		body := tree.UniqueLast(RoleBody, set("block"))
		comments := tree.Many(RoleComment, s.comment)
		return map[tree.ElementType][]tree.RoleRule{
			"return_statement": {
				tree.Unique(RoleReturnKeyword, set("return")),
				tree.Unique(RoleReturnValue, set("expression_list")),
				tree.UniqueLast(RoleClosingTerminator, set(";")),
			},
			"if_statement": {
				tree.Unique(RoleIfKeyword, set("if")),
				tree.Unique(RoleCondition, s.expr),
				tree.Unique(RoleThenBranch, set("block")),
				tree.Unique(RoleElseKeyword, set("else")),
			},
			"for_statement": {
				tree.Unique(RoleLoopKeyword, set("for")),
				body,
			},
			"function_declaration": {body},
			"method_declaration":   {body},
			"func_literal":         {body},
			"argument_list":        {tree.Many(RoleArgument, s.expr)},
			"source_file":          {comments},
			"block":                {comments},
			"statement_list":       {comments},
		}
	},
}

var javaDef = &definition{
	name:    "java",
	grammar: java.GetLanguage,
	files:   []tree.ElementType{"program"},
	declarations: []tree.ElementType{
		"package_declaration", "import_declaration", "class_declaration",
		"interface_declaration", "enum_declaration", "record_declaration",
		"annotation_type_declaration", "method_declaration", "constructor_declaration",
		"field_declaration",
	},
	statements: []tree.ElementType{
		"block", "return_statement", "if_statement", "while_statement", "for_statement",
		"enhanced_for_statement", "do_statement", "expression_statement",
		"local_variable_declaration", "throw_statement", "try_statement",
		"try_with_resources_statement", "switch_statement", "break_statement",
		"continue_statement", "labeled_statement", "synchronized_statement",
		"assert_statement", "yield_statement",
	},
	expressions: []tree.ElementType{
		"identifier", "decimal_integer_literal", "hex_integer_literal",
		"decimal_floating_point_literal", "string_literal", "character_literal",
		"true", "false", "null_literal", "this", "class_literal",
		"method_invocation", "object_creation_expression", "array_creation_expression",
		"binary_expression", "unary_expression", "update_expression",
		"assignment_expression", "field_access", "array_access", "ternary_expression",
		"cast_expression", "lambda_expression", "parenthesized_expression",
		"instanceof_expression", "method_reference", "switch_expression",
	},
	comments: []tree.ElementType{"line_comment", "block_comment"},
	roles: func(s ruleSets) map[tree.ElementType][]tree.RoleRule {
		loopBody := tree.UniqueLast(RoleBody, s.stmt)
		methodBody := tree.UniqueLast(RoleBody, set("block", "constructor_body"))
		comments := tree.Many(RoleComment, s.comment)
		return map[tree.ElementType][]tree.RoleRule{
			"return_statement": {
				tree.Unique(RoleReturnKeyword, set("return")),
				tree.Unique(RoleReturnValue, s.expr),
				tree.UniqueLast(RoleClosingTerminator, set(";")),
			},
			"if_statement": {
				tree.Unique(RoleIfKeyword, set("if")),
				tree.Unique(RoleCondition, set("parenthesized_expression")),
				tree.Unique(RoleThenBranch, s.stmt),
				tree.Unique(RoleElseKeyword, set("else")),
			},
			"while_statement": {
				tree.Unique(RoleLoopKeyword, set("while")),
				tree.Unique(RoleCondition, set("parenthesized_expression")),
				loopBody,
			},
			"for_statement": {
				tree.Unique(RoleLoopKeyword, set("for")),
				loopBody,
			},
			"enhanced_for_statement": {
				tree.Unique(RoleLoopKeyword, set("for")),
				loopBody,
			},
			"do_statement": {
				tree.Unique(RoleLoopKeyword, set("do")),
				tree.Unique(RoleBody, s.stmt),
				tree.Unique(RoleCondition, set("parenthesized_expression")),
				tree.UniqueLast(RoleClosingTerminator, set(";")),
			},
			"method_declaration":      {methodBody},
			"constructor_declaration": {methodBody},
			"argument_list":           {tree.Many(RoleArgument, s.expr)},
			"program":                 {comments},
			"block":                   {comments},
			"class_body":              {comments},
		}
	},
}

var javascriptDef = &definition{
	name:    "javascript",
	grammar: javascript.GetLanguage,
	files:   []tree.ElementType{"program"},
	declarations: []tree.ElementType{
		"import_statement", "export_statement", "function_declaration",
		"generator_function_declaration", "class_declaration", "lexical_declaration",
		"variable_declaration", "method_definition",
	},
	statements: []tree.ElementType{
		"statement_block", "return_statement", "if_statement", "for_statement",
		"for_in_statement", "while_statement", "do_statement", "expression_statement",
		"throw_statement", "try_statement", "switch_statement", "break_statement",
		"continue_statement", "labeled_statement", "empty_statement",
	},
	expressions: []tree.ElementType{
		"identifier", "number", "string", "template_string", "regex",
		"true", "false", "null", "undefined", "this",
		"call_expression", "member_expression", "subscript_expression",
		"binary_expression", "unary_expression", "update_expression",
		"assignment_expression", "augmented_assignment_expression",
		"ternary_expression", "arrow_function", "function_expression", "function",
		"object", "array", "new_expression", "parenthesized_expression",
		"await_expression", "sequence_expression",
	},
	comments: []tree.ElementType{"comment"},
	roles: func(s ruleSets) map[tree.ElementType][]tree.RoleRule {
		loopBody := tree.UniqueLast(RoleBody, s.stmt)
		fnBody := tree.UniqueLast(RoleBody, set("statement_block"))
		comments := tree.Many(RoleComment, s.comment)
		return map[tree.ElementType][]tree.RoleRule{
			"return_statement": {
				tree.Unique(RoleReturnKeyword, set("return")),
				tree.Unique(RoleReturnValue, s.expr),
				tree.UniqueLast(RoleClosingTerminator, set(";")),
			},
			"if_statement": {
				tree.Unique(RoleIfKeyword, set("if")),
				tree.Unique(RoleCondition, set("parenthesized_expression")),
				tree.Unique(RoleThenBranch, s.stmt),
				tree.Unique(RoleElseBranch, set("else_clause")),
			},
			"while_statement": {
				tree.Unique(RoleLoopKeyword, set("while")),
				tree.Unique(RoleCondition, set("parenthesized_expression")),
				loopBody,
			},
			"for_statement": {
				tree.Unique(RoleLoopKeyword, set("for")),
				loopBody,
			},
			"for_in_statement": {
				tree.Unique(RoleLoopKeyword, set("for")),
				loopBody,
			},
			"function_declaration":           {fnBody},
			"generator_function_declaration": {fnBody},
			"function_expression":            {fnBody},
			"function":                       {fnBody},
			"arrow_function":                 {fnBody},
			"method_definition":              {fnBody},
			"arguments":                      {tree.Many(RoleArgument, s.expr.Union(set("spread_element")))},
			"program":                        {comments},
			"statement_block":                {comments},
		}
	},
}

var pythonDef = &definition{
	name:    "python",
	grammar: python.GetLanguage,
	files:   []tree.ElementType{"module"},
	declarations: []tree.ElementType{
		"import_statement", "import_from_statement", "function_definition",
		"class_definition", "decorated_definition",
	},
	statements: []tree.ElementType{
		"block", "return_statement", "if_statement", "elif_clause", "else_clause",
		"for_statement", "while_statement", "try_statement", "with_statement",
		"expression_statement", "pass_statement", "break_statement",
		"continue_statement", "raise_statement", "assert_statement",
		"delete_statement", "global_statement", "nonlocal_statement",
	},
	expressions: []tree.ElementType{
		"identifier", "integer", "float", "string", "concatenated_string",
		"true", "false", "none",
		"call", "attribute", "subscript", "binary_operator", "boolean_operator",
		"comparison_operator", "not_operator", "unary_operator",
		"conditional_expression", "lambda", "list", "tuple", "dictionary", "set",
		"list_comprehension", "dictionary_comprehension", "set_comprehension",
		"generator_expression", "parenthesized_expression", "await", "expression_list",
	},
	comments: []tree.ElementType{"comment"},
	roles: func(s ruleSets) map[tree.ElementType][]tree.RoleRule {
		body := tree.Unique(RoleBody, set("block"))
		comments := tree.Many(RoleComment, s.comment)
		return map[tree.ElementType][]tree.RoleRule{
			"return_statement": {
				tree.Unique(RoleReturnKeyword, set("return")),
				tree.Unique(RoleReturnValue, s.expr),
			},
			"if_statement": {
				tree.Unique(RoleIfKeyword, set("if")),
				tree.Unique(RoleCondition, s.expr),
				tree.Unique(RoleThenBranch, set("block")),
				tree.Unique(RoleElseBranch, set("else_clause")),
			},
			"while_statement": {
				tree.Unique(RoleLoopKeyword, set("while")),
				tree.Unique(RoleCondition, s.expr),
				body,
			},
			"for_statement": {
				tree.Unique(RoleLoopKeyword, set("for")),
				body,
			},
			"function_definition": {body},
			"argument_list": {
				tree.Many(RoleArgument, s.expr.Union(set("keyword_argument", "list_splat", "dictionary_splat"))),
			},
			"module": {comments},
			"block":  {comments},
		}
	},
}
