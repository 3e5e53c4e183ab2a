package ros2msg

import (
	"strconv"
	"strings"

	"github.com/wkalt/robocodec/schema"
	"github.com/wkalt/robocodec/util"
)

/*
Package ros2msg parses ROS2 message definitions into schemas for the CDR codec
and renders schemas back into definition text.

Unqualified type names refer to the package of the definition that mentions
them. Defaults are kept on the schema fields as int64, float64, bool, string
or []any; they do not affect encoding.
*/

////////////////////////////////////////////////////////////////////////////////

// separator is the line MCAP writers put between dependency sections.
const separator = "================================================================================"

// Parse parses the ROS2 message definition of the type name, such as
// "sensor_msgs/msg/PointCloud2". Every referenced type must be defined in the
// text.
func Parse(name string, msgdef []byte) (*schema.MessageSchema, error) {
	ast, err := DefinitionParser.ParseBytes(name, msgdef)
	if err != nil {
		return nil, schema.NewParseError("ros2 message definition "+name, "syntax error", err)
	}
	s := schema.NewMessageSchema(name)
	root, err := transformType(name, ast.Elements)
	if err != nil {
		return nil, err
	}
	s.AddType(root)
	for _, dep := range ast.Dependencies {
		t, err := transformType(dep.Type, dep.Elements)
		if err != nil {
			return nil, err
		}
		s.AddType(t)
	}
	if err := s.Validate(); err != nil {
		return nil, schema.NewParseError("ros2 message definition "+name, "unresolved schema", err)
	}
	return s, nil
}

func transformType(name string, elements []Element) (*schema.MessageType, error) {
	t := schema.NewMessageType(name)
	pkg := packageOf(name)
	for _, element := range elements {
		if element.Constant != nil {
			continue
		}
		field := schema.Field{Name: element.Name, Type: transformFieldType(pkg, element.Type)}
		if element.Default != nil {
			v, err := literalValue(*element.Default)
			if err != nil {
				return nil, schema.NewParseError("default of "+name+"."+element.Name, "invalid literal", err)
			}
			field.Default = v
		}
		t.AddField(field)
	}
	return t, nil
}

func transformFieldType(pkg string, t Type) schema.FieldType {
	var base schema.FieldType
	if p, ok := schema.ParsePrimitiveType(t.Name); ok {
		base = schema.NewPrimitive(p)
		if t.StringBound > 0 {
			base.Bounded = true
			base.SizeBound = t.StringBound
		}
	} else {
		base = schema.NewNested(qualify(pkg, t.Name))
	}
	if !t.Array {
		return base
	}
	if t.Bounded {
		array := schema.NewArray(base, 0)
		array.Bounded = true
		array.SizeBound = t.Size
		return array
	}
	return schema.NewArray(base, t.Size)
}

func qualify(pkg string, name string) string {
	if strings.Contains(name, "/") || pkg == "" {
		return name
	}
	return pkg + "/" + name
}

func packageOf(name string) string {
	if i := strings.Index(name, "/"); i > 0 {
		return name[:i]
	}
	return ""
}

func literalValue(l Literal) (any, error) {
	switch {
	case l.String != nil:
		return unquote(*l.String)
	case l.Float != nil:
		return *l.Float, nil
	case l.Int != nil:
		return *l.Int, nil
	case l.Bool != nil:
		return strings.EqualFold(*l.Bool, "true"), nil
	default:
		items := make([]any, 0, len(l.Items))
		for _, item := range l.Items {
			v, err := literalValue(item)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	}
}

func unquote(s string) (string, error) {
	if strings.HasPrefix(s, "'") {
		s = `"` + strings.ReplaceAll(strings.ReplaceAll(s[1:len(s)-1], `\'`, `'`), `"`, `\"`) + `"`
	}
	return strconv.Unquote(s)
}

// Format renders a schema as ROS2 message definition text: the fields of the
// root type followed by a section for each other type, in name order. Parsing
// the output under the schema's name yields an equal schema.
func Format(s *schema.MessageSchema) (string, error) {
	root, err := s.Root()
	if err != nil {
		return "", err
	}
	sb := &strings.Builder{}
	writeFields(sb, root)
	for _, key := range util.Okeys(s.Types) {
		t := s.Types[key]
		if t == root {
			continue
		}
		sb.WriteString(separator + "\nMSG: " + t.Name + "\n")
		writeFields(sb, t)
	}
	return sb.String(), nil
}

func writeFields(sb *strings.Builder, t *schema.MessageType) {
	for _, f := range t.Fields {
		sb.WriteString(f.Type.String() + " " + f.Name)
		if f.Default != nil {
			sb.WriteString(" " + formatLiteral(f.Default))
		}
		sb.WriteString("\n")
	}
}

func formatLiteral(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case bool:
		return strconv.FormatBool(v)
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = formatLiteral(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return ""
	}
}
