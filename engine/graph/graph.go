package graph

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/sinapsi/engine/math"
)

// DataVersion is the graph format version written by this package.
const DataVersion uint32 = 1

// DataTypeID is the serialize context id of Data.
var DataTypeID = uuid.MustParse("6f8a1b0e-9c44-4d73-b1d5-7e2a0c9f4e88")

// Data is the runtime form of a node graph: what the editor authors and the
// graph system executes. It round trips through object streams unchanged.
type Data struct {
	Name         string
	Version      uint32
	Nodes        []*Node
	Connections  []*Connection
	Variables    []*Variable
	Dependencies []uuid.UUID
}

type Node struct {
	ID         uuid.UUID
	Type       string
	Name       string
	Position   math.Vec2
	Properties map[string]string
}

// Connection wires the FromSlot output of one node into the ToSlot input of
// another. Execution follows connections from source to target.
type Connection struct {
	From     uuid.UUID
	FromSlot string
	To       uuid.UUID
	ToSlot   string
}

type VariableType int

const (
	VariableTypeBool VariableType = iota
	VariableTypeInt
	VariableTypeFloat
	VariableTypeString
	VariableTypeVec2
	VariableTypeVec3
	VariableTypeVec4
)

var variableTypeNames = map[VariableType]string{
	VariableTypeBool:   "bool",
	VariableTypeInt:    "int",
	VariableTypeFloat:  "float",
	VariableTypeString: "string",
	VariableTypeVec2:   "vec2",
	VariableTypeVec3:   "vec3",
	VariableTypeVec4:   "vec4",
}

func (vt VariableType) String() string {
	if name, found := variableTypeNames[vt]; found {
		return name
	}
	return "unknown"
}

func VariableTypeFromString(s string) (VariableType, error) {
	for vt, name := range variableTypeNames {
		if name == s {
			return vt, nil
		}
	}
	return 0, fmt.Errorf("unknown variable type %q", s)
}

// Variable is a named graph input. Only the field matching Type is
// meaningful, the others stay at their zero value.
type Variable struct {
	Name  string
	Type  VariableType
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Vec2  math.Vec2
	Vec3  math.PackedVector3f
	Vec4  math.Vec4
}

// Value returns the field selected by Type.
func (v *Variable) Value() interface{} {
	switch v.Type {
	case VariableTypeBool:
		return v.Bool
	case VariableTypeInt:
		return v.Int
	case VariableTypeFloat:
		return v.Float
	case VariableTypeString:
		return v.Str
	case VariableTypeVec2:
		return v.Vec2
	case VariableTypeVec3:
		return v.Vec3
	case VariableTypeVec4:
		return v.Vec4
	}
	return nil
}

func NewData(name string) *Data {
	return &Data{
		Name:    name,
		Version: DataVersion,
	}
}

func (d *Data) FindNode(id uuid.UUID) *Node {
	for _, node := range d.Nodes {
		if node.ID == id {
			return node
		}
	}
	return nil
}

func (d *Data) FindVariable(name string) *Variable {
	for _, variable := range d.Variables {
		if variable.Name == name {
			return variable
		}
	}
	return nil
}
