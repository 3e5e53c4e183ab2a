package ros1msg

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

/*
Grammar for ROS1 message definitions as they appear in bag connection headers
and MCAP schema records: the fields of the top-level type, followed by one
section per dependency. Each section starts with a line of "=" and a
"MSG: pkg/Type" header.

Constants are recognized so that they can be skipped. The value of a constant
runs to the end of its line, comment characters included, which is how
roscpp treats string constants.
*/

////////////////////////////////////////////////////////////////////////////////

// nolint:gochecknoglobals
var (
	Lexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "Newline", Pattern: `[ \t\r]*\n[\s]*`},
		{Name: "Separator", Pattern: `={3,}`},
		{Name: "ConstantValue", Pattern: `=[^\n]*`},
		{Name: "Integer", Pattern: `[0-9]+`},
		{Name: "Word", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Punct", Pattern: `[\[\]/:]`},
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

// Element is a field declaration, or a constant when Constant is set.
type Element struct {
	Type     Type    `parser:"@@"`
	Name     string  `parser:"@Word"`
	Constant *string `parser:"@ConstantValue?"`
}

// Type is a field type reference with an optional array suffix.
type Type struct {
	Name      string `parser:"@(Word ('/' Word)*)"`
	Array     bool   `parser:"@'['?"`
	FixedSize int    `parser:"((@Integer ']') | ']')?"`
}
