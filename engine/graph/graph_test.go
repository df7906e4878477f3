package graph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/spaghettifunk/sinapsi/engine/math"
)

func newTestGraph() (*Data, []uuid.UUID) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	d := NewData("test")
	d.Nodes = []*Node{
		{ID: ids[0], Type: "event", Name: "start"},
		{ID: ids[1], Type: "print", Name: "left", Position: math.NewVec2(100, 0)},
		{ID: ids[2], Type: "print", Name: "right", Position: math.NewVec2(100, 50)},
		{ID: ids[3], Type: "join", Name: "end"},
	}
	d.Connections = []*Connection{
		{From: ids[0], FromSlot: "out", To: ids[1], ToSlot: "in"},
		{From: ids[0], FromSlot: "out", To: ids[2], ToSlot: "in"},
		{From: ids[1], FromSlot: "out", To: ids[3], ToSlot: "a"},
		{From: ids[2], FromSlot: "out", To: ids[3], ToSlot: "b"},
	}
	d.Variables = []*Variable{
		{Name: "speed", Type: VariableTypeFloat, Float: 2.5},
		{Name: "spawn", Type: VariableTypeVec3, Vec3: math.NewPackedVector3[float32](1, 2, 3)},
	}
	return d, ids
}

func TestValidateAcceptsWellFormedGraph(t *testing.T) {
	d, _ := newTestGraph()
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		corrupt func(*Data, []uuid.UUID)
	}{
		{"empty name", func(d *Data, ids []uuid.UUID) { d.Name = "" }},
		{"zero version", func(d *Data, ids []uuid.UUID) { d.Version = 0 }},
		{"future version", func(d *Data, ids []uuid.UUID) { d.Version = DataVersion + 1 }},
		{"nil node id", func(d *Data, ids []uuid.UUID) { d.Nodes[1].ID = uuid.Nil }},
		{"duplicate node id", func(d *Data, ids []uuid.UUID) { d.Nodes[1].ID = ids[0] }},
		{"missing node type", func(d *Data, ids []uuid.UUID) { d.Nodes[2].Type = "" }},
		{"unknown connection source", func(d *Data, ids []uuid.UUID) { d.Connections[0].From = uuid.New() }},
		{"unknown connection target", func(d *Data, ids []uuid.UUID) { d.Connections[0].To = uuid.New() }},
		{"self connection", func(d *Data, ids []uuid.UUID) { d.Connections[0].To = d.Connections[0].From }},
		{"unnamed variable", func(d *Data, ids []uuid.UUID) { d.Variables[0].Name = "" }},
		{"duplicate variable", func(d *Data, ids []uuid.UUID) { d.Variables[1].Name = d.Variables[0].Name }},
		{"unknown variable type", func(d *Data, ids []uuid.UUID) { d.Variables[0].Type = VariableType(99) }},
		{"nil dependency", func(d *Data, ids []uuid.UUID) { d.Dependencies = []uuid.UUID{uuid.Nil} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, ids := newTestGraph()
			tc.corrupt(d, ids)
			if err := d.Validate(); !errors.Is(err, ErrInvalidGraph) {
				t.Errorf("Validate error = %v, want %v", err, ErrInvalidGraph)
			}
		})
	}
}

func TestExecutionOrderDiamond(t *testing.T) {
	d, ids := newTestGraph()
	order, err := d.ExecutionOrder()
	if err != nil {
		t.Fatalf("ExecutionOrder: %v", err)
	}
	want := []uuid.UUID{ids[0], ids[1], ids[2], ids[3]}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestExecutionOrderWithoutConnectionsKeepsDeclarationOrder(t *testing.T) {
	d, ids := newTestGraph()
	d.Connections = nil
	order, err := d.ExecutionOrder()
	if err != nil {
		t.Fatalf("ExecutionOrder: %v", err)
	}
	if diff := cmp.Diff(ids, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestExecutionOrderCycle(t *testing.T) {
	d, ids := newTestGraph()
	d.Connections = append(d.Connections, &Connection{From: ids[3], FromSlot: "out", To: ids[0], ToSlot: "in"})
	if _, err := d.ExecutionOrder(); !errors.Is(err, ErrCycle) {
		t.Errorf("ExecutionOrder error = %v, want %v", err, ErrCycle)
	}
}

func TestFindHelpers(t *testing.T) {
	d, ids := newTestGraph()
	if node := d.FindNode(ids[2]); node == nil || node.Name != "right" {
		t.Errorf("FindNode = %+v", node)
	}
	if node := d.FindNode(uuid.New()); node != nil {
		t.Errorf("FindNode(unknown) = %+v, want nil", node)
	}
	if variable := d.FindVariable("speed"); variable == nil || variable.Float != 2.5 {
		t.Errorf("FindVariable = %+v", variable)
	}
	if variable := d.FindVariable("missing"); variable != nil {
		t.Errorf("FindVariable(missing) = %+v, want nil", variable)
	}
}

func TestVariableTypeNames(t *testing.T) {
	for vt, want := range map[VariableType]string{
		VariableTypeBool: "bool",
		VariableTypeVec3: "vec3",
	} {
		if got := vt.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
		parsed, err := VariableTypeFromString(want)
		if err != nil {
			t.Fatalf("VariableTypeFromString(%q): %v", want, err)
		}
		if parsed != vt {
			t.Errorf("VariableTypeFromString(%q) = %v, want %v", want, parsed, vt)
		}
	}
	if _, err := VariableTypeFromString("matrix"); err == nil {
		t.Error("VariableTypeFromString accepted an unknown name")
	}
}

func TestVariableValue(t *testing.T) {
	v := &Variable{Name: "spawn", Type: VariableTypeVec3, Vec3: math.NewPackedVector3[float32](1, 2, 3)}
	packed, ok := v.Value().(math.PackedVector3f)
	if !ok {
		t.Fatalf("Value type = %T, want PackedVector3f", v.Value())
	}
	if packed.ToVec3() != math.NewVec3(1, 2, 3) {
		t.Errorf("Value = %+v", packed)
	}

	v = &Variable{Name: "flag", Type: VariableTypeBool, Bool: true}
	if got, ok := v.Value().(bool); !ok || !got {
		t.Errorf("Value = %v (%T)", v.Value(), v.Value())
	}
}
