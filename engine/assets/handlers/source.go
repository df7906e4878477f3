package handlers

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/spaghettifunk/sinapsi/engine/assets"
	"github.com/spaghettifunk/sinapsi/engine/graph"
	"github.com/spaghettifunk/sinapsi/engine/math"
)

// SourceAssetType identifies hand authored graph sources.
var SourceAssetType = uuid.MustParse("c97d12aa-4f80-4b6f-a1e8-5f2d3b9c0e64")

// SourceAsset is a graph compiled from its HCL authoring form.
type SourceAsset struct {
	Data *graph.Data
}

func (sa *SourceAsset) AssetType() assets.AssetType {
	return SourceAssetType
}

func (sa *SourceAsset) Graph() *graph.Data {
	return sa.Data
}

// hclGraphFile represents the top-level structure of a graph source file for decoding.
type hclGraphFile struct {
	Graphs []*hclGraph `hcl:"graph,block"`
}

type hclGraph struct {
	Name        string           `hcl:"name,label"`
	Version     int64            `hcl:"version,optional"`
	DependsOn   []string         `hcl:"depends_on,optional"`
	Variables   []*hclVariable   `hcl:"variable,block"`
	Nodes       []*hclNode       `hcl:"node,block"`
	Connections []*hclConnection `hcl:"connection,block"`
}

type hclVariable struct {
	Name    string    `hcl:"name,label"`
	Type    string    `hcl:"type"`
	Default cty.Value `hcl:"default,optional"`
}

type hclNode struct {
	Name       string            `hcl:"name,label"`
	Type       string            `hcl:"type"`
	Position   []float64         `hcl:"position,optional"`
	Properties map[string]string `hcl:"properties,optional"`
}

type hclConnection struct {
	From     string `hcl:"from"`
	FromSlot string `hcl:"from_slot,optional"`
	To       string `hcl:"to"`
	ToSlot   string `hcl:"to_slot,optional"`
}

// SourceAssetHandler compiles HCL graph sources into runtime graph data.
// Saving is one way: sources are authored by hand, the engine only reads them.
type SourceAssetHandler struct{}

func NewSourceAssetHandler() *SourceAssetHandler {
	return &SourceAssetHandler{}
}

func (h *SourceAssetHandler) CreateAsset(id uuid.UUID, assetType assets.AssetType) (assets.AssetData, error) {
	if assetType != SourceAssetType {
		return nil, fmt.Errorf("source handler asked to create unknown asset type %s", assetType)
	}
	return &SourceAsset{Data: graph.NewData("")}, nil
}

func (h *SourceAssetHandler) LoadAssetData(asset *assets.Asset, stream io.ReadSeeker, filter assets.LoadFilter) error {
	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return err
	}
	src, err := io.ReadAll(stream)
	if err != nil {
		return err
	}
	filename := asset.Path
	if filename == "" {
		filename = "<stream>.sgraph.hcl"
	}
	return h.loadInto(asset, src, filename, filter)
}

func (h *SourceAssetHandler) LoadAssetDataFromFile(asset *assets.Asset, path string, filter assets.LoadFilter) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return h.loadInto(asset, src, path, filter)
}

func (h *SourceAssetHandler) loadInto(asset *assets.Asset, src []byte, filename string, filter assets.LoadFilter) error {
	sourceAsset, ok := asset.Data.(*SourceAsset)
	if !ok {
		return fmt.Errorf("asset %s does not hold a source graph", asset.ID)
	}

	data, err := CompileGraphSource(src, filename)
	if err != nil {
		return err
	}
	if filter != nil {
		kept := data.Dependencies[:0]
		for _, dep := range data.Dependencies {
			if filter(assets.AssetRef{ID: dep, Type: RuntimeAssetType}) {
				kept = append(kept, dep)
			}
		}
		data.Dependencies = kept
	}
	sourceAsset.Data = data
	return nil
}

func (h *SourceAssetHandler) SaveAssetData(asset *assets.Asset, w io.Writer) error {
	return fmt.Errorf("source graphs are authored by hand, saving is not supported")
}

func (h *SourceAssetHandler) DestroyAsset(data assets.AssetData) error {
	sourceAsset, ok := data.(*SourceAsset)
	if !ok {
		return fmt.Errorf("source handler asked to destroy foreign asset data %T", data)
	}
	sourceAsset.Data = nil
	return nil
}

func (h *SourceAssetHandler) HandledTypes() []assets.AssetType {
	return []assets.AssetType{SourceAssetType}
}

func (h *SourceAssetHandler) Extensions() []string {
	return []string{".sgraph.hcl"}
}

func (h *SourceAssetHandler) DisplayName() string {
	return "Graph Source"
}

func (h *SourceAssetHandler) Group() string {
	return "Scripting"
}

// CompileGraphSource parses one HCL graph source and compiles it into
// validated runtime graph data. The file must hold exactly one graph block.
func CompileGraphSource(src []byte, filename string) (*graph.Data, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse graph source %s: %s", filename, diags.Error())
	}

	var parsed hclGraphFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode graph source %s: %s", filename, diags.Error())
	}
	if len(parsed.Graphs) != 1 {
		return nil, fmt.Errorf("graph source %s must hold exactly one graph block, found %d", filename, len(parsed.Graphs))
	}

	data, err := compileGraph(parsed.Graphs[0])
	if err != nil {
		return nil, fmt.Errorf("graph source %s: %w", filename, err)
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("graph source %s: %w", filename, err)
	}
	return data, nil
}

func compileGraph(hg *hclGraph) (*graph.Data, error) {
	data := graph.NewData(hg.Name)
	if hg.Version != 0 {
		data.Version = uint32(hg.Version)
	}

	// Labels become ids here. Connections reference nodes by label, the
	// compiled graph references them by id.
	idsByName := make(map[string]uuid.UUID, len(hg.Nodes))
	for _, hn := range hg.Nodes {
		if _, exists := idsByName[hn.Name]; exists {
			return nil, fmt.Errorf("duplicate node %q", hn.Name)
		}
		node := &graph.Node{
			ID:         uuid.New(),
			Type:       hn.Type,
			Name:       hn.Name,
			Properties: hn.Properties,
		}
		if len(hn.Position) > 0 {
			if len(hn.Position) != 2 {
				return nil, fmt.Errorf("node %q position needs 2 numbers, got %d", hn.Name, len(hn.Position))
			}
			node.Position = math.NewVec2(float32(hn.Position[0]), float32(hn.Position[1]))
		}
		idsByName[hn.Name] = node.ID
		data.Nodes = append(data.Nodes, node)
	}

	for _, hc := range hg.Connections {
		from, found := idsByName[hc.From]
		if !found {
			return nil, fmt.Errorf("connection references unknown node %q", hc.From)
		}
		to, found := idsByName[hc.To]
		if !found {
			return nil, fmt.Errorf("connection references unknown node %q", hc.To)
		}
		data.Connections = append(data.Connections, &graph.Connection{
			From:     from,
			FromSlot: hc.FromSlot,
			To:       to,
			ToSlot:   hc.ToSlot,
		})
	}

	for _, hv := range hg.Variables {
		variable, err := compileVariable(hv)
		if err != nil {
			return nil, err
		}
		data.Variables = append(data.Variables, variable)
	}

	for _, dep := range hg.DependsOn {
		id, err := uuid.Parse(dep)
		if err != nil {
			return nil, fmt.Errorf("invalid dependency id %q: %w", dep, err)
		}
		data.Dependencies = append(data.Dependencies, id)
	}
	return data, nil
}

func compileVariable(hv *hclVariable) (*graph.Variable, error) {
	vt, err := graph.VariableTypeFromString(hv.Type)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", hv.Name, err)
	}
	variable := &graph.Variable{Name: hv.Name, Type: vt}
	if hv.Default.IsNull() {
		return variable, nil
	}

	switch vt {
	case graph.VariableTypeBool:
		if hv.Default.Type() != cty.Bool {
			return nil, fmt.Errorf("variable %q default is not a bool", hv.Name)
		}
		variable.Bool = hv.Default.True()
	case graph.VariableTypeInt:
		if hv.Default.Type() != cty.Number {
			return nil, fmt.Errorf("variable %q default is not a number", hv.Name)
		}
		n, _ := hv.Default.AsBigFloat().Int64()
		variable.Int = n
	case graph.VariableTypeFloat:
		if hv.Default.Type() != cty.Number {
			return nil, fmt.Errorf("variable %q default is not a number", hv.Name)
		}
		f, _ := hv.Default.AsBigFloat().Float64()
		variable.Float = f
	case graph.VariableTypeString:
		if hv.Default.Type() != cty.String {
			return nil, fmt.Errorf("variable %q default is not a string", hv.Name)
		}
		variable.Str = hv.Default.AsString()
	case graph.VariableTypeVec2:
		elems, err := numberList(hv.Default, 2)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", hv.Name, err)
		}
		variable.Vec2 = math.NewVec2(float32(elems[0]), float32(elems[1]))
	case graph.VariableTypeVec3:
		elems, err := numberList(hv.Default, 3)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", hv.Name, err)
		}
		variable.Vec3 = math.NewPackedVector3[float32](float32(elems[0]), float32(elems[1]), float32(elems[2]))
	case graph.VariableTypeVec4:
		elems, err := numberList(hv.Default, 4)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", hv.Name, err)
		}
		variable.Vec4 = math.NewVec4(float32(elems[0]), float32(elems[1]), float32(elems[2]), float32(elems[3]))
	}
	return variable, nil
}

func numberList(v cty.Value, want int) ([]float64, error) {
	if !v.CanIterateElements() {
		return nil, fmt.Errorf("expected a list of %d numbers", want)
	}
	out := make([]float64, 0, want)
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		if ev.Type() != cty.Number {
			return nil, fmt.Errorf("expected a list of numbers")
		}
		f, _ := ev.AsBigFloat().Float64()
		out = append(out, f)
	}
	if len(out) != want {
		return nil, fmt.Errorf("expected %d numbers, got %d", want, len(out))
	}
	return out, nil
}
