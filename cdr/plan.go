package cdr

import (
	"fmt"
	"strings"

	"github.com/wkalt/robocodec/schema"
)

/*
A decode plan is a message type compiled into a flat list of operations. The
plan carries everything the executor needs: alignments are resolved, nested
types are inlined between DecodeNested and EndScope, and array element types
are described up front so the executor never consults the schema for fields of
the compiled type itself.

Each operation carries its full dotted field path for error reporting, plus the
final path segment it inserts under in the current scope.
*/

////////////////////////////////////////////////////////////////////////////////

// OpCode identifies a decode operation.
type OpCode uint8

const (
	OpAlign OpCode = iota + 1
	OpReadPrimitive
	OpReadString
	OpReadBytes
	OpReadTime
	OpReadDuration
	OpReadArray
	OpDecodeNested
	OpEndScope
)

func (o OpCode) String() string {
	switch o {
	case OpAlign:
		return "Align"
	case OpReadPrimitive:
		return "ReadPrimitive"
	case OpReadString:
		return "ReadString"
	case OpReadBytes:
		return "ReadBytes"
	case OpReadTime:
		return "ReadTime"
	case OpReadDuration:
		return "ReadDuration"
	case OpReadArray:
		return "ReadArray"
	case OpDecodeNested:
		return "DecodeNested"
	case OpEndScope:
		return "EndScope"
	default:
		return "unknown"
	}
}

// ElementKind identifies the shape of an array element.
type ElementKind uint8

const (
	ElemPrimitive ElementKind = iota + 1
	ElemString
	ElemBytes
	ElemNested
)

// ElementType describes the elements of an array.
type ElementType struct {
	Kind      ElementKind
	Primitive schema.PrimitiveType // ElemPrimitive only
	TypeName  string               // ElemNested only
	alignment int
}

// Alignment returns the alignment of a single element.
func (e ElementType) Alignment() int {
	switch e.Kind {
	case ElemPrimitive:
		return e.Primitive.Alignment()
	case ElemNested:
		return e.alignment
	default:
		return 4
	}
}

func (e ElementType) String() string {
	switch e.Kind {
	case ElemPrimitive:
		return e.Primitive.String()
	case ElemString:
		return "string"
	case ElemBytes:
		return "bytes"
	case ElemNested:
		return e.TypeName
	default:
		return "unknown"
	}
}

// Op is a single decode operation. Which fields are meaningful depends on
// the code.
type Op struct {
	Code      OpCode
	Alignment int                  // OpAlign
	Path      string               // dotted field path
	Name      string               // last path segment
	Primitive schema.PrimitiveType // OpReadPrimitive
	Element   ElementType          // OpReadArray
	Count     int                  // OpReadArray, when Fixed
	Fixed     bool                 // OpReadArray
	TypeName  string               // OpDecodeNested
}

func (op Op) String() string {
	switch op.Code {
	case OpAlign:
		return fmt.Sprintf("Align(%d)", op.Alignment)
	case OpReadPrimitive:
		return fmt.Sprintf("ReadPrimitive(%s: %s)", op.Path, op.Primitive)
	case OpReadArray:
		count := "dynamic"
		if op.Fixed {
			count = fmt.Sprintf("%d", op.Count)
		}
		return fmt.Sprintf("ReadArray(%s: %s, %s)", op.Path, op.Element, count)
	case OpDecodeNested:
		return fmt.Sprintf("DecodeNested(%s: %s)", op.Path, op.TypeName)
	case OpEndScope:
		return "EndScope"
	default:
		return fmt.Sprintf("%s(%s)", op.Code, op.Path)
	}
}

// Plan is a compiled decode plan for one message type. Plans are immutable
// once compiled and may be shared between goroutines.
type Plan struct {
	TypeName string
	Ops      []Op
}

// String returns a listing of the plan, one operation per line.
func (p *Plan) String() string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "plan for %s (%d ops)\n", p.TypeName, len(p.Ops))
	depth := 0
	for i, op := range p.Ops {
		if op.Code == OpEndScope {
			depth--
		}
		fmt.Fprintf(sb, "%4d  %s%s\n", i, strings.Repeat("  ", max(depth, 0)), op)
		if op.Code == OpDecodeNested {
			depth++
		}
	}
	return sb.String()
}
