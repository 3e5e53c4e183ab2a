package ros2msg

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

/*
Grammar for ROS2 .msg definitions:
https://docs.ros.org/en/iron/Concepts/Basic/About-Interfaces.html

This is for msg files only, no action or service support. Definitions taken
from MCAP schema records carry their dependencies in "MSG:" sections, as in
ROS1. On top of the ROS1 syntax, ROS2 adds bounded strings (string<=N),
bounded sequences (T[<=N]) and field default values.
*/

////////////////////////////////////////////////////////////////////////////////

// nolint:gochecknoglobals
var (
	Lexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "Newline", Pattern: `[ \t\r]*\n[\s]*`},
		{Name: "Separator", Pattern: `={3,}`},
		{Name: "ConstantValue", Pattern: `=[^\n]*`},
		{Name: "String", Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`},
		{Name: "Float", Pattern: `[+-]?([0-9]+\.[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?|[+-]?[0-9]+[eE][+-]?[0-9]+`},
		{Name: "Integer", Pattern: `[+-]?[0-9]+`},
		{Name: "Word", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "LEQ", Pattern: `<=`},
		{Name: "Punct", Pattern: `[\[\]/:,]`},
	})

	DefinitionParser = participle.MustBuild[Definition](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace", "Newline", "Comment"),
		participle.UseLookahead(1000),
	)
)

// Definition is the parsed text of a message definition.
type Definition struct {
	Elements     []Element    `parser:"@@*"`
	Dependencies []Dependency `parser:"@@*"`
}

// Dependency is the definition of one type the top-level type depends on.
type Dependency struct {
	Type     string    `parser:"Separator 'MSG' ':' @(Word ('/' Word)*)"`
	Elements []Element `parser:"@@*"`
}

// Element is a field declaration with an optional default, or a constant
// when Constant is set.
type Element struct {
	Type     Type     `parser:"@@"`
	Name     string   `parser:"@Word"`
	Constant *string  `parser:"@ConstantValue?"`
	Default  *Literal `parser:"@@?"`
}

// Type is a field type reference. StringBound is set for bounded strings;
// Bounded marks a bounded sequence, whose bound is then held in Size.
type Type struct {
	Name        string `parser:"@(Word ('/' Word)*)"`
	StringBound int    `parser:"(LEQ @Integer)?"`
	Array       bool   `parser:"@'['?"`
	Bounded     bool   `parser:"@LEQ?"`
	Size        int    `parser:"((@Integer ']') | ']')?"`
}

// Literal is a default value. Strings keep their quotes.
type Literal struct {
	String *string   `parser:"  @String"`
	Float  *float64  `parser:"| @Float"`
	Int    *int64    `parser:"| @Integer"`
	Bool   *string   `parser:"| @('true' | 'false' | 'True' | 'False')"`
	List   bool      `parser:"| @'['"`
	Items  []Literal `parser:"  (@@ (',' @@)*)? ']'"`
}
