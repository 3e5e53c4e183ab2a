package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wkalt/robocodec/schema"
)

func field(name string, t schema.FieldType) schema.Field {
	return schema.Field{Name: name, Type: t}
}

func TestPrimitiveLayout(t *testing.T) {
	cases := []struct {
		primitive schema.PrimitiveType
		alignment int
		size      int
		fixed     bool
	}{
		{schema.BOOL, 1, 1, true},
		{schema.INT8, 1, 1, true},
		{schema.UINT16, 2, 2, true},
		{schema.INT32, 4, 4, true},
		{schema.FLOAT32, 4, 4, true},
		{schema.UINT64, 8, 8, true},
		{schema.FLOAT64, 8, 8, true},
		{schema.STRING, 4, 0, false},
		{schema.WSTRING, 4, 0, false},
		{schema.BYTE, 1, 1, true},
		{schema.CHAR, 1, 1, true},
		{schema.TIME, 4, 8, true},
		{schema.DURATION, 4, 8, true},
	}
	for _, c := range cases {
		t.Run(c.primitive.String(), func(t *testing.T) {
			require.Equal(t, c.alignment, c.primitive.Alignment())
			size, fixed := c.primitive.Size()
			require.Equal(t, c.fixed, fixed)
			require.Equal(t, c.size, size)
		})
	}
}

func TestPrimitiveJSON(t *testing.T) {
	for _, p := range []schema.PrimitiveType{schema.INT8, schema.WSTRING, schema.DURATION} {
		data, err := json.Marshal(p)
		require.NoError(t, err)
		var out schema.PrimitiveType
		require.NoError(t, json.Unmarshal(data, &out))
		require.Equal(t, p, out)
	}
	var p schema.PrimitiveType
	require.Error(t, json.Unmarshal([]byte(`"complex128"`), &p))
}

func TestParsePrimitiveType(t *testing.T) {
	cases := []struct {
		assertion string
		input     string
		expected  schema.PrimitiveType
		ok        bool
	}{
		{"canonical name", "uint32", schema.UINT32, true},
		{"double alias", "double", schema.FLOAT64, true},
		{"float alias", "float", schema.FLOAT32, true},
		{"boolean alias", "boolean", schema.BOOL, true},
		{"unknown", "Header", 0, false},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			p, ok := schema.ParsePrimitiveType(c.input)
			require.Equal(t, c.ok, ok)
			require.Equal(t, c.expected, p)
		})
	}
}

func TestFieldTypeAlignment(t *testing.T) {
	cases := []struct {
		assertion string
		fieldType schema.FieldType
		expected  int
	}{
		{"primitive", schema.NewPrimitive(schema.INT16), 2},
		{"dynamic array uses element alignment", schema.NewArray(schema.NewPrimitive(schema.FLOAT64), 0), 8},
		{"fixed array uses element alignment", schema.NewArray(schema.NewPrimitive(schema.UINT8), 3), 1},
		{"nested is always 4", schema.NewNested("geometry_msgs/Point"), 4},
		{"array of nested", schema.NewArray(schema.NewNested("pkg/T"), 0), 4},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			require.Equal(t, c.expected, c.fieldType.Alignment())
		})
	}
}

func TestMaxAlignment(t *testing.T) {
	empty := schema.NewMessageType("pkg/Empty")
	require.Equal(t, 1, empty.MaxAlignment)

	mt := schema.NewMessageType("pkg/T",
		field("a", schema.NewPrimitive(schema.UINT8)),
		field("b", schema.NewPrimitive(schema.INT32)),
	)
	require.Equal(t, 4, mt.MaxAlignment)
	mt.AddField(field("c", schema.NewArray(schema.NewPrimitive(schema.FLOAT64), 0)))
	require.Equal(t, 8, mt.MaxAlignment)
}

func newSchema(name string, types ...*schema.MessageType) *schema.MessageSchema {
	s := schema.NewMessageSchema(name)
	for _, t := range types {
		s.AddType(t)
	}
	return s
}

func TestResolveType(t *testing.T) {
	s := newSchema("pkg/msg/Root",
		schema.NewMessageType("pkg/msg/Root", field("h", schema.NewNested("std_msgs/Header"))),
		schema.NewMessageType("std_msgs/msg/Header", field("frame_id", schema.NewPrimitive(schema.STRING))),
		schema.NewMessageType("geometry_msgs/Point", field("x", schema.NewPrimitive(schema.FLOAT64))),
	)
	cases := []struct {
		assertion string
		name      string
		expected  string
	}{
		{"exact match", "pkg/msg/Root", "pkg/msg/Root"},
		{"idl separators", "pkg::msg::Root", "pkg/msg/Root"},
		{"adds msg segment", "std_msgs/Header", "std_msgs/msg/Header"},
		{"removes msg segment", "geometry_msgs/msg/Point", "geometry_msgs/Point"},
		{"short name", "Header", "std_msgs/msg/Header"},
		{"short name without msg segment", "Point", "geometry_msgs/Point"},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			mt, err := s.ResolveType(c.name)
			require.NoError(t, err)
			require.Equal(t, c.expected, mt.Name)
		})
	}

	t.Run("not found", func(t *testing.T) {
		_, err := s.ResolveType("nav_msgs/Odometry")
		require.ErrorIs(t, err, schema.TypeNotFoundError{})
		require.Equal(t, "type not found: 'nav_msgs/Odometry'", err.Error())
	})
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s := newSchema("pkg/A",
			schema.NewMessageType("pkg/A", field("b", schema.NewArray(schema.NewNested("B"), 0))),
			schema.NewMessageType("pkg/B", field("x", schema.NewPrimitive(schema.INT8))),
		)
		require.NoError(t, s.Validate())
	})
	t.Run("dangling reference", func(t *testing.T) {
		s := newSchema("pkg/A",
			schema.NewMessageType("pkg/A", field("b", schema.NewNested("pkg/Missing"))),
		)
		require.ErrorIs(t, s.Validate(), schema.TypeNotFoundError{})
	})
	t.Run("missing root", func(t *testing.T) {
		s := newSchema("pkg/A")
		require.ErrorIs(t, s.Validate(), schema.TypeNotFoundError{})
	})
	t.Run("field without type", func(t *testing.T) {
		s := newSchema("pkg/A", schema.NewMessageType("pkg/A", field("b", schema.FieldType{})))
		require.ErrorIs(t, s.Validate(), schema.InvalidSchemaError{})
	})
}

func TestRenamePackage(t *testing.T) {
	s := newSchema("genie_msgs/msg/Root",
		schema.NewMessageType("genie_msgs/msg/Root",
			field("child", schema.NewNested("genie_msgs/msg/Child")),
			field("children", schema.NewArray(schema.NewNested("genie_msgs::msg::Child"), 0)),
			field("stamp", schema.NewNested("std_msgs/msg/Header")),
		),
		schema.NewMessageType("genie_msgs/msg/Child", field("x", schema.NewPrimitive(schema.INT32))),
		schema.NewMessageType("std_msgs/msg/Header", field("frame_id", schema.NewPrimitive(schema.STRING))),
	)
	renamed := s.RenamePackage("genie_msgs", "robo_msgs")

	require.Equal(t, "robo_msgs/msg/Root", renamed.Name)
	require.Equal(t, "robo_msgs", renamed.Package)
	require.ElementsMatch(t,
		[]string{"robo_msgs/msg/Root", "robo_msgs/msg/Child", "std_msgs/msg/Header"},
		keys(renamed.Types),
	)
	root, err := renamed.Root()
	require.NoError(t, err)
	require.Equal(t, "robo_msgs/msg/Child", root.Fields[0].Type.Nested)
	require.Equal(t, "robo_msgs::msg::Child", root.Fields[1].Type.Items.Nested)
	require.Equal(t, "std_msgs/msg/Header", root.Fields[2].Type.Nested)
	require.NoError(t, renamed.Validate())

	// the original is unchanged
	require.Equal(t, "genie_msgs/msg/Root", s.Name)
	original, err := s.Root()
	require.NoError(t, err)
	require.Equal(t, "genie_msgs::msg::Child", original.Fields[1].Type.Items.Nested)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestFieldTypeString(t *testing.T) {
	bounded := schema.NewArray(schema.NewPrimitive(schema.INT32), 0)
	bounded.Bounded = true
	bounded.SizeBound = 5
	cases := []struct {
		assertion string
		fieldType schema.FieldType
		expected  string
	}{
		{"primitive", schema.NewPrimitive(schema.FLOAT32), "float32"},
		{"dynamic array", schema.NewArray(schema.NewPrimitive(schema.UINT8), 0), "uint8[]"},
		{"fixed array", schema.NewArray(schema.NewNested("pkg/T"), 3), "pkg/T[3]"},
		{"bounded array", bounded, "int32[<=5]"},
		{"bounded string", schema.FieldType{Primitive: schema.STRING, Bounded: true, SizeBound: 10}, "string<=10"},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			require.Equal(t, c.expected, c.fieldType.String())
		})
	}
}
