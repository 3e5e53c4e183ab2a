package ros1msg

import (
	"strings"

	"github.com/wkalt/robocodec/schema"
)

/*
Package ros1msg parses ROS1 message definitions into schemas for the CDR
codec.

Names are qualified the way roscpp qualifies them: a bare "Header" always
refers to std_msgs/Header, and any other unqualified type refers to a type in
the package of the definition that mentions it.
*/

////////////////////////////////////////////////////////////////////////////////

// Parse parses the ROS1 message definition of the type name, such as
// "sensor_msgs/PointCloud2". Every referenced type must be defined in the
// text.
func Parse(name string, msgdef []byte) (*schema.MessageSchema, error) {
	ast, err := DefinitionParser.ParseBytes(name, msgdef)
	if err != nil {
		return nil, schema.NewParseError("ros1 message definition "+name, "syntax error", err)
	}
	s := schema.NewMessageSchema(name)
	s.AddType(transformType(name, ast.Elements))
	for _, dep := range ast.Dependencies {
		s.AddType(transformType(dep.Type, dep.Elements))
	}
	if err := s.Validate(); err != nil {
		return nil, schema.NewParseError("ros1 message definition "+name, "unresolved schema", err)
	}
	return s, nil
}

func transformType(name string, elements []Element) *schema.MessageType {
	t := schema.NewMessageType(name)
	pkg := packageOf(name)
	for _, element := range elements {
		if element.Constant != nil {
			continue
		}
		t.AddField(schema.Field{Name: element.Name, Type: transformFieldType(pkg, element.Type)})
	}
	return t
}

func transformFieldType(pkg string, t Type) schema.FieldType {
	var base schema.FieldType
	if p, ok := schema.ParsePrimitiveType(t.Name); ok {
		base = schema.NewPrimitive(p)
	} else {
		base = schema.NewNested(Qualify(pkg, t.Name))
	}
	if t.Array {
		return schema.NewArray(base, t.FixedSize)
	}
	return base
}

// Qualify returns the fully qualified name of a type referenced from a
// definition in package pkg.
func Qualify(pkg string, name string) string {
	switch {
	case strings.Contains(name, "/"):
		return name
	case name == "Header":
		return "std_msgs/Header"
	case pkg == "":
		return name
	default:
		return pkg + "/" + name
	}
}

func packageOf(name string) string {
	if i := strings.Index(name, "/"); i > 0 {
		return name[:i]
	}
	return ""
}
