package handlers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/spaghettifunk/sinapsi/engine/assets"
	"github.com/spaghettifunk/sinapsi/engine/graph"
	"github.com/spaghettifunk/sinapsi/engine/math"
)

const sampleGraphSource = `
graph "patrol" {
  version = 1

  depends_on = ["b2c3d4e5-f6a7-4b89-9c0d-1e2f3a4b5c6d"]

  variable "enabled" {
    type    = "bool"
    default = true
  }

  variable "laps" {
    type    = "int"
    default = 3
  }

  variable "speed" {
    type    = "float"
    default = 2.5
  }

  variable "greeting" {
    type    = "string"
    default = "hello"
  }

  variable "spawn" {
    type    = "vec3"
    default = [1, 2, 3]
  }

  node "start" {
    type     = "event"
    position = [0, 0]
  }

  node "log" {
    type     = "print"
    position = [120, 40]
    properties = {
      message = "patrolling"
    }
  }

  connection {
    from      = "start"
    from_slot = "out"
    to        = "log"
    to_slot   = "in"
  }
}
`

func TestCompileGraphSource(t *testing.T) {
	data, err := CompileGraphSource([]byte(sampleGraphSource), "patrol.sgraph.hcl")
	if err != nil {
		t.Fatalf("CompileGraphSource: %v", err)
	}

	if data.Name != "patrol" {
		t.Errorf("name = %q, want %q", data.Name, "patrol")
	}
	if data.Version != 1 {
		t.Errorf("version = %d, want 1", data.Version)
	}
	if len(data.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(data.Nodes))
	}
	if len(data.Connections) != 1 {
		t.Fatalf("connections = %d, want 1", len(data.Connections))
	}

	start := data.Nodes[0]
	log := data.Nodes[1]
	if start.Name != "start" || start.Type != "event" {
		t.Errorf("start node = %+v", start)
	}
	if log.Position != math.NewVec2(120, 40) {
		t.Errorf("log position = %+v", log.Position)
	}
	if log.Properties["message"] != "patrolling" {
		t.Errorf("log properties = %v", log.Properties)
	}

	conn := data.Connections[0]
	if conn.From != start.ID || conn.To != log.ID {
		t.Errorf("connection endpoints not resolved: %+v", conn)
	}
	if conn.FromSlot != "out" || conn.ToSlot != "in" {
		t.Errorf("connection slots = %q -> %q", conn.FromSlot, conn.ToSlot)
	}

	if v := data.FindVariable("enabled"); v == nil || !v.Bool {
		t.Errorf("enabled = %+v", v)
	}
	if v := data.FindVariable("laps"); v == nil || v.Int != 3 {
		t.Errorf("laps = %+v", v)
	}
	if v := data.FindVariable("speed"); v == nil || v.Float != 2.5 {
		t.Errorf("speed = %+v", v)
	}
	if v := data.FindVariable("greeting"); v == nil || v.Str != "hello" {
		t.Errorf("greeting = %+v", v)
	}
	if v := data.FindVariable("spawn"); v == nil || v.Vec3 != math.NewPackedVector3[float32](1, 2, 3) {
		t.Errorf("spawn = %+v", v)
	}

	wantDep := uuid.MustParse("b2c3d4e5-f6a7-4b89-9c0d-1e2f3a4b5c6d")
	if len(data.Dependencies) != 1 || data.Dependencies[0] != wantDep {
		t.Errorf("dependencies = %v, want [%s]", data.Dependencies, wantDep)
	}

	if err := data.Validate(); err != nil {
		t.Errorf("compiled graph fails validation: %v", err)
	}
}

func TestCompileGraphSourceErrors(t *testing.T) {
	cases := []struct {
		name    string
		source  string
		wantErr string
	}{
		{
			"malformed hcl",
			`graph "x" {`,
			"failed to parse",
		},
		{
			"no graph block",
			`# just a comment`,
			"exactly one graph block",
		},
		{
			"duplicate node",
			`graph "x" {
  node "a" { type = "event" }
  node "a" { type = "print" }
}`,
			"duplicate node",
		},
		{
			"unknown connection target",
			`graph "x" {
  node "a" { type = "event" }
  connection {
    from = "a"
    to   = "ghost"
  }
}`,
			"unknown node",
		},
		{
			"bad variable type",
			`graph "x" {
  node "a" { type = "event" }
  variable "v" { type = "matrix" }
}`,
			"unknown variable type",
		},
		{
			"vec3 arity",
			`graph "x" {
  node "a" { type = "event" }
  variable "v" {
    type    = "vec3"
    default = [1, 2]
  }
}`,
			"expected 3 numbers",
		},
		{
			"bad dependency id",
			`graph "x" {
  node "a" { type = "event" }
  depends_on = ["not-a-uuid"]
}`,
			"invalid dependency id",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CompileGraphSource([]byte(tc.source), tc.name+".sgraph.hcl")
			if err == nil {
				t.Fatal("CompileGraphSource accepted a bad source")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestSourceHandlerLoadFromFile(t *testing.T) {
	h := NewSourceAssetHandler()

	path := filepath.Join(t.TempDir(), "patrol.sgraph.hcl")
	if err := os.WriteFile(path, []byte(sampleGraphSource), 0600); err != nil {
		t.Fatal(err)
	}

	data, err := h.CreateAsset(uuid.New(), SourceAssetType)
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	asset := &assets.Asset{ID: uuid.New(), Type: SourceAssetType, Data: data}

	if err := h.LoadAssetDataFromFile(asset, path, nil); err != nil {
		t.Fatalf("LoadAssetDataFromFile: %v", err)
	}
	compiled := asset.Data.(*SourceAsset).Data
	if compiled.Name != "patrol" {
		t.Errorf("name = %q, want %q", compiled.Name, "patrol")
	}
	if len(compiled.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(compiled.Nodes))
	}
}

func TestSourceHandlerSaveUnsupported(t *testing.T) {
	h := NewSourceAssetHandler()
	asset := &assets.Asset{ID: uuid.New(), Type: SourceAssetType, Data: &SourceAsset{Data: graph.NewData("x")}}
	if err := h.SaveAssetData(asset, os.Stderr); err == nil {
		t.Fatal("SaveAssetData should be unsupported")
	}
}

func TestSourceHandlerMetadata(t *testing.T) {
	h := NewSourceAssetHandler()
	if got := h.Extensions(); len(got) != 1 || got[0] != ".sgraph.hcl" {
		t.Errorf("Extensions = %v", got)
	}
	if h.DisplayName() != "Graph Source" {
		t.Errorf("DisplayName = %q", h.DisplayName())
	}
	if _, err := h.CreateAsset(uuid.New(), RuntimeAssetType); err == nil {
		t.Error("CreateAsset accepted a foreign asset type")
	}
}
