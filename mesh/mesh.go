// Package mesh provides the bundled implementation of the geometry source
// consumed by the movement core: a triangle soup organized into instances,
// each with a uniform-grid index over float32 vertex storage. Instances can
// be translated between steps, which is how moving platforms are modelled.
//
// Mutation (adding geometry, moving instances, changing the liquid level) is
// a load-time or externally synchronized concern; during concurrent character
// stepping the mesh must be treated as an immutable snapshot.
package mesh

import (
	"github.com/chewxy/math32"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/geo"
	"github.com/strideworks/stride/vmath"
)

// gridCellSize is the edge length of a broadphase grid cell. Triangles are
// binned by their bounds; a cell keeps indexes into the instance's triangle
// slice.
const gridCellSize float32 = 4.0

type tri32 struct {
	a, b, c mgl32.Vec3
}

func (t tri32) bounds() cube.BBox {
	min := mgl32.Vec3{
		math32.Min(t.a[0], math32.Min(t.b[0], t.c[0])),
		math32.Min(t.a[1], math32.Min(t.b[1], t.c[1])),
		math32.Min(t.a[2], math32.Min(t.b[2], t.c[2])),
	}
	max := mgl32.Vec3{
		math32.Max(t.a[0], math32.Max(t.b[0], t.c[0])),
		math32.Max(t.a[1], math32.Max(t.b[1], t.c[1])),
		math32.Max(t.a[2], math32.Max(t.b[2], t.c[2])),
	}
	return cube.Box(min[0], min[1], min[2], max[0], max[1], max[2])
}

type cellKey [3]int32

// instance is a set of triangles sharing a handle, a kind and a world origin.
type instance struct {
	handle geo.Handle
	kind   geo.GeomKind
	origin mgl64.Vec3

	tris   []tri32
	bounds cube.BBox
	cells  map[cellKey][]int32
}

// Mesh is a registry of geometry instances implementing geo.Source,
// geo.TransformSource and geo.LiquidSource.
type Mesh struct {
	instances *orderedmap.OrderedMap[geo.Handle, *instance]
	next      geo.Handle

	liquidHeight float64
	hasLiquid    bool
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{
		instances: orderedmap.NewOrderedMap[geo.Handle, *instance](),
		next:      geo.NoHandle + 1,
	}
}

// AddTriangles registers a triangle soup; verts holds three vertices per
// triangle. The returned handle stays stable for the mesh's lifetime.
func (m *Mesh) AddTriangles(kind geo.GeomKind, verts []mgl32.Vec3) geo.Handle {
	inst := &instance{
		handle: m.next,
		kind:   kind,
		cells:  make(map[cellKey][]int32),
	}
	m.next++

	for i := 0; i+2 < len(verts); i += 3 {
		inst.tris = append(inst.tris, tri32{a: verts[i], b: verts[i+1], c: verts[i+2]})
	}
	inst.index()
	m.instances.Set(inst.handle, inst)
	return inst.handle
}

// AddQuad registers a quad as two triangles. Vertices are given in winding
// order; the face normal follows the right-hand rule.
func (m *Mesh) AddQuad(kind geo.GeomKind, a, b, c, d mgl32.Vec3) geo.Handle {
	return m.AddTriangles(kind, []mgl32.Vec3{a, b, c, a, c, d})
}

// AddBox registers an axis-aligned box decomposed into twelve triangles with
// outward-facing normals.
func (m *Mesh) AddBox(kind geo.GeomKind, min, max mgl64.Vec3) geo.Handle {
	lo := vmath.Vec64To32(min)
	hi := vmath.Vec64To32(max)
	v := [8]mgl32.Vec3{
		{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]}, {hi[0], lo[1], hi[2]}, {lo[0], lo[1], hi[2]},
		{lo[0], hi[1], lo[2]}, {hi[0], hi[1], lo[2]}, {hi[0], hi[1], hi[2]}, {lo[0], hi[1], hi[2]},
	}
	return m.AddTriangles(kind, []mgl32.Vec3{
		v[4], v[5], v[6], v[4], v[6], v[7], // top (+Y)
		v[0], v[3], v[2], v[0], v[2], v[1], // bottom (-Y)
		v[3], v[7], v[6], v[3], v[6], v[2], // +Z
		v[0], v[1], v[5], v[0], v[5], v[4], // -Z
		v[1], v[2], v[6], v[1], v[6], v[5], // +X
		v[0], v[4], v[7], v[0], v[7], v[3], // -X
	})
}

// SetOrigin moves an instance to the given world origin. Local vertex data is
// untouched; triangles are reported translated.
func (m *Mesh) SetOrigin(h geo.Handle, origin mgl64.Vec3) {
	if inst, ok := m.instances.Get(h); ok {
		inst.origin = origin
	}
}

// SurfaceOrigin implements geo.TransformSource.
func (m *Mesh) SurfaceOrigin(h geo.Handle) (mgl64.Vec3, bool) {
	inst, ok := m.instances.Get(h)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return inst.origin, true
}

// SetLiquidHeight sets a global liquid surface height.
func (m *Mesh) SetLiquidHeight(y float64) {
	m.liquidHeight = y
	m.hasLiquid = true
}

// ClearLiquid removes the liquid surface.
func (m *Mesh) ClearLiquid() {
	m.hasLiquid = false
}

// LiquidHeight implements geo.LiquidSource.
func (m *Mesh) LiquidHeight(x, z float64) (float64, bool) {
	if !m.hasLiquid {
		return 0, false
	}
	return m.liquidHeight, true
}

// Collect implements geo.Source. Instances are visited in registration order
// and triangles in index order, keeping iteration deterministic.
func (m *Mesh) Collect(min, max mgl64.Vec3, fn func(geo.Tri) bool) {
	for el := m.instances.Front(); el != nil; el = el.Next() {
		inst := el.Value
		if len(inst.tris) == 0 {
			continue
		}
		localMin := vmath.Vec64To32(min.Sub(inst.origin))
		localMax := vmath.Vec64To32(max.Sub(inst.origin))
		query := cube.Box(localMin[0], localMin[1], localMin[2], localMax[0], localMax[1], localMax[2])
		if !inst.bounds.IntersectsWith(query) {
			continue
		}
		if !inst.collect(query, inst.origin, fn) {
			return
		}
	}
}

func (inst *instance) index() {
	if len(inst.tris) == 0 {
		return
	}
	inst.bounds = inst.tris[0].bounds()
	for i, t := range inst.tris {
		b := t.bounds()
		inst.bounds = unionBox(inst.bounds, b)
		for _, key := range cellsFor(b) {
			inst.cells[key] = append(inst.cells[key], int32(i))
		}
	}
}

// collect visits the triangles indexed under the query's cells. Deduping is
// kept per call so collection stays safe for concurrent readers.
func (inst *instance) collect(query cube.BBox, origin mgl64.Vec3, fn func(geo.Tri) bool) bool {
	seen := make(map[int32]struct{})
	for _, key := range cellsFor(query) {
		for _, idx := range inst.cells[key] {
			if _, ok := seen[idx]; ok {
				continue
			}
			seen[idx] = struct{}{}
			t := inst.tris[idx]
			if !t.bounds().IntersectsWith(query) {
				continue
			}
			world := geo.Tri{
				A:       vmath.Vec32To64(t.a).Add(origin),
				B:       vmath.Vec32To64(t.b).Add(origin),
				C:       vmath.Vec32To64(t.c).Add(origin),
				Surface: geo.SurfaceRef{Handle: inst.handle, Triangle: int(idx)},
				Kind:    inst.kind,
			}
			if !fn(world) {
				return false
			}
		}
	}
	return true
}

func cellsFor(b cube.BBox) []cellKey {
	min, max := b.Min(), b.Max()
	x0 := int32(math32.Floor(min[0] / gridCellSize))
	y0 := int32(math32.Floor(min[1] / gridCellSize))
	z0 := int32(math32.Floor(min[2] / gridCellSize))
	x1 := int32(math32.Floor(max[0] / gridCellSize))
	y1 := int32(math32.Floor(max[1] / gridCellSize))
	z1 := int32(math32.Floor(max[2] / gridCellSize))

	var keys []cellKey
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				keys = append(keys, cellKey{x, y, z})
			}
		}
	}
	return keys
}

func unionBox(a, b cube.BBox) cube.BBox {
	amin, amax := a.Min(), a.Max()
	bmin, bmax := b.Min(), b.Max()
	return cube.Box(
		math32.Min(amin[0], bmin[0]), math32.Min(amin[1], bmin[1]), math32.Min(amin[2], bmin[2]),
		math32.Max(amax[0], bmax[0]), math32.Max(amax[1], bmax[1]), math32.Max(amax[2], bmax[2]),
	)
}
