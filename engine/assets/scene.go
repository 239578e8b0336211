package assets

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/math"
	"github.com/spaghettifunk/parcel/engine/renderer/metadata"
	"github.com/spaghettifunk/parcel/engine/resources"
	"github.com/spaghettifunk/parcel/engine/systems"
)

const (
	SHAPE_PLANE = "plane"
	SHAPE_CUBE  = "cube"
	SHAPE_QUAD  = "quad"
	SHAPE_MESH  = "mesh"
	SHAPE_GROUP = "group"
)

// Scene is a TOML scene description. Every top-level object names the
// renderer it is registered with.
type Scene struct {
	Name    string              `toml:"name"`
	Objects []ObjectDescription `toml:"objects"`
}

// ObjectDescription describes one procedural renderable. Vectors are
// written as arrays; missing ones take their identity value.
type ObjectDescription struct {
	Name     string `toml:"name"`
	Renderer string `toml:"renderer"`
	Shape    string `toml:"shape"`
	Skin     string `toml:"skin"`

	Position        []float32 `toml:"position"`
	RotationAxis    []float32 `toml:"rotation_axis"`
	RotationDegrees float32   `toml:"rotation_degrees"`
	Scale           []float32 `toml:"scale"`

	// Size is width, height and depth. Segments and Tiling only apply to planes.
	Size     []float32 `toml:"size"`
	Segments []uint32  `toml:"segments"`
	Tiling   []float32 `toml:"tiling"`

	// Topology and Vertices describe a custom mesh. A vertex is x, y, z and
	// optionally u, v.
	Topology string      `toml:"topology"`
	Vertices [][]float32 `toml:"vertices"`

	Children []ObjectDescription `toml:"children"`
}

// LoadScene reads and parses the scene file at path.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene '%s': %w", path, err)
	}
	scene, err := ParseScene(data)
	if err != nil {
		return nil, fmt.Errorf("scene '%s': %w", path, err)
	}
	return scene, nil
}

// ParseScene decodes a scene description. Unknown keys are rejected.
func ParseScene(data []byte) (*Scene, error) {
	scene := &Scene{}
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(scene); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("line %d column %d: %s: %w", row, col, decodeErr.Error(), core.ErrInvalidScene)
		}
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return nil, fmt.Errorf("%s: %w", strictErr.String(), core.ErrInvalidScene)
		}
		return nil, fmt.Errorf("%s: %w", err.Error(), core.ErrInvalidScene)
	}
	for i, object := range scene.Objects {
		if object.Renderer == "" {
			return nil, fmt.Errorf("object %d ('%s') has no renderer: %w", i, object.Name, core.ErrInvalidScene)
		}
	}
	return scene, nil
}

// Build creates the renderable described by o for the given layout.
func (o *ObjectDescription) Build(layout string) (metadata.Renderable, error) {
	transform, err := o.transform()
	if err != nil {
		return nil, err
	}
	skin := metadata.SkinID(o.Skin)

	switch o.Shape {
	case SHAPE_GROUP, "":
		if o.Shape == "" && len(o.Children) == 0 {
			return nil, fmt.Errorf("object '%s' has no shape: %w", o.Name, core.ErrInvalidScene)
		}
		node := resources.NewNode(o.Name)
		node.Transform = transform
		node.Skin = skin
		for i := range o.Children {
			child, err := o.Children[i].Build(layout)
			if err != nil {
				return nil, fmt.Errorf("'%s' child %d: %w", o.Name, i, err)
			}
			node.Add(child)
		}
		return node, nil

	case SHAPE_PLANE, SHAPE_CUBE:
		size := floats(o.Size, 1, 1, 1)
		tiling := floats(o.Tiling, 1, 1)
		var config *resources.GeometryConfig
		if o.Shape == SHAPE_PLANE {
			segments := uints(o.Segments, 1, 1)
			config = resources.GeneratePlane(o.Name, size[0], size[1], segments[0], segments[1], tiling[0], tiling[1])
		} else {
			config = resources.GenerateCube(o.Name, size[0], size[1], size[2], tiling[0], tiling[1])
		}
		switch layout {
		case systems.LAYOUT_LIT:
			mesh := resources.NewMesh(config, skin)
			mesh.Transform = transform
			return mesh, nil
		case systems.LAYOUT_INDEXED_LIT:
			mesh := resources.NewIndexedMesh(config, skin)
			mesh.Transform = transform
			return mesh, nil
		}

	case SHAPE_QUAD:
		if layout == systems.LAYOUT_SPRITE {
			size := floats(o.Size, 1, 1)
			sprite := resources.NewSprite(o.Name, 0, 0, size[0], size[1], skin)
			sprite.Transform = transform
			return sprite, nil
		}

	case SHAPE_MESH:
		if layout == systems.LAYOUT_LIT {
			topology, ok := metadata.ParsePrimitiveType(o.Topology)
			if !ok {
				return nil, fmt.Errorf("object '%s' has unknown topology '%s': %w", o.Name, o.Topology, core.ErrInvalidScene)
			}
			vertices, err := o.vertices()
			if err != nil {
				return nil, err
			}
			mesh := resources.NewMeshFromVertices(o.Name, topology, vertices, skin)
			mesh.Transform = transform
			return mesh, nil
		}

	default:
		return nil, fmt.Errorf("object '%s' has unknown shape '%s': %w", o.Name, o.Shape, core.ErrInvalidScene)
	}
	return nil, fmt.Errorf("shape '%s' of object '%s' cannot be drawn by a '%s' renderer: %w", o.Shape, o.Name, layout, core.ErrInvalidScene)
}

func (o *ObjectDescription) transform() (*math.Transform, error) {
	if len(o.Position) > 3 || len(o.Scale) > 3 || len(o.RotationAxis) > 3 {
		return nil, fmt.Errorf("object '%s' has a vector with more than 3 components: %w", o.Name, core.ErrInvalidScene)
	}
	p := floats(o.Position, 0, 0, 0)
	s := floats(o.Scale, 1, 1, 1)
	rotation := math.NewQuatIdentity()
	if o.RotationDegrees != 0 {
		a := floats(o.RotationAxis, 0, 1, 0)
		rotation = math.NewQuatFromAxisAngle(math.NewVec3(a[0], a[1], a[2]), math.DegToRad(o.RotationDegrees), true)
	}
	return math.TransformFromPositionRotationScale(math.NewVec3(p[0], p[1], p[2]), rotation, math.NewVec3(s[0], s[1], s[2])), nil
}

func (o *ObjectDescription) vertices() ([]math.Vertex3D, error) {
	out := make([]math.Vertex3D, 0, len(o.Vertices))
	for i, v := range o.Vertices {
		if len(v) != 3 && len(v) != 5 {
			return nil, fmt.Errorf("object '%s' vertex %d has %d components, want 3 or 5: %w", o.Name, i, len(v), core.ErrInvalidScene)
		}
		vertex := math.Vertex3D{Position: math.NewVec3(v[0], v[1], v[2])}
		if len(v) == 5 {
			vertex.Texcoord = math.NewVec2(v[3], v[4])
		}
		out = append(out, vertex)
	}
	return out, nil
}

// floats fills the components missing from values with defaults.
func floats(values []float32, defaults ...float32) []float32 {
	out := append([]float32(nil), defaults...)
	copy(out, values)
	return out
}

func uints(values []uint32, defaults ...uint32) []uint32 {
	out := append([]uint32(nil), defaults...)
	copy(out, values)
	return out
}
