package geo

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/vmath"
)

// CachedSource adapts a Source into a Sweeper. It keeps a locally cached
// working set of candidate triangles for a temporal box covering the whole
// frame's motion, refreshed only when a query departs the cached bounds, so
// candidate collection is amortized across the iterations of the sweep loop.
//
// The arena is keyed by SurfaceRef and iterated in insertion order, which
// keeps query results deterministic for a given snapshot.
type CachedSource struct {
	src    Source
	growth float64

	arena *orderedmap.OrderedMap[SurfaceRef, Tri]
	tris  []Tri

	min, max mgl64.Vec3
	valid    bool

	// Refreshes counts cache rebuilds, exposed for tests and diagnostics.
	Refreshes int
}

// NewCachedSource returns a caching adapter over the given source. growth is
// the factor by which primed bounds are inflated about their center; values
// below 1 are treated as 1 (no growth).
func NewCachedSource(src Source, growth float64) *CachedSource {
	if growth < 1 {
		growth = 1
	}
	return &CachedSource{
		src:    src,
		growth: growth,
		arena:  orderedmap.NewOrderedMap[SurfaceRef, Tri](),
	}
}

// Prime announces the bounds of upcoming queries. The working set is rebuilt
// only if it does not already cover them, so callers may prime every step
// while the cache refreshes only when the motion leaves the grown bounds.
func (c *CachedSource) Prime(min, max mgl64.Vec3) {
	c.ensure(min, max)
}

func (c *CachedSource) rebuild(min, max mgl64.Vec3) {
	center := min.Add(max).Mul(0.5)
	half := max.Sub(min).Mul(0.5 * c.growth)
	c.min = center.Sub(half)
	c.max = center.Add(half)
	c.valid = true
	c.Refreshes++

	c.arena = orderedmap.NewOrderedMap[SurfaceRef, Tri]()
	c.tris = c.tris[:0]
	c.src.Collect(c.min, c.max, func(t Tri) bool {
		if _, ok := c.arena.Get(t.Surface); !ok {
			c.arena.Set(t.Surface, t)
			c.tris = append(c.tris, t)
		}
		return true
	})
}

// Invalidate drops the working set, forcing the next query to refresh. Call
// it after mutating the underlying source between steps.
func (c *CachedSource) Invalidate() {
	c.valid = false
}

func (c *CachedSource) contains(min, max mgl64.Vec3) bool {
	if !c.valid {
		return false
	}
	for i := range 3 {
		if min[i] < c.min[i] || max[i] > c.max[i] {
			return false
		}
	}
	return true
}

func (c *CachedSource) ensure(min, max mgl64.Vec3) {
	if !c.contains(min, max) {
		c.rebuild(min, max)
	}
}

// Sweep implements Sweeper.
func (c *CachedSource) Sweep(vol Volume, dir mgl64.Vec3, maxDist float64, f Filter) (Contact, bool) {
	min, max := vol.Bounds()
	end := dir.Mul(maxDist)
	min = vmath.MinVec64(min, min.Add(end))
	max = vmath.MaxVec64(max, max.Add(end))
	c.ensure(min, max)
	return SweepTris(vol, dir, maxDist, c.tris, f)
}

// Overlap implements Sweeper.
func (c *CachedSource) Overlap(vol Volume, f Filter) []Contact {
	min, max := vol.Bounds()
	c.ensure(min, max)
	return OverlapTris(vol, c.tris, f)
}
