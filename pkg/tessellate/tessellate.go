// Package tessellate turns placed kernel solids into triangle meshes and
// answers contact queries from mesh samples. One mesh is produced per part.
package tessellate

import (
	"fmt"
	"sync"

	"github.com/chazu/cadmcp/pkg/bounds"
	"github.com/chazu/cadmcp/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
)

// Part is a named solid. Parts without a solid (curves, points) produce no
// mesh.
type Part struct {
	ID    string
	Name  string
	Solid kernel.Solid
}

// label prefers the part's name and falls back to its id.
func (p Part) label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Tessellate produces one triangle mesh per solid part using the provided
// geometry kernel. Parts are never mutated.
func Tessellate(parts []Part, k kernel.Kernel) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for _, p := range parts {
		if p.Solid == nil {
			continue
		}
		mesh, err := k.ToMesh(p.Solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for part %s: %w", p.label(), err)
		}
		mesh.Name = p.label()
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Sampler caches surface samples per solid. Solids are immutable, so a
// cached sample set stays valid for the solid's lifetime.
type Sampler struct {
	k kernel.Kernel

	mu    sync.Mutex
	cache map[kernel.Solid][]mgl64.Vec3
}

// NewSampler returns a Sampler tessellating with k.
func NewSampler(k kernel.Kernel) *Sampler {
	return &Sampler{k: k, cache: make(map[kernel.Solid][]mgl64.Vec3)}
}

// Samples returns the distinct mesh vertices of p's solid.
func (s *Sampler) Samples(p Part) ([]mgl64.Vec3, error) {
	if p.Solid == nil {
		return nil, nil
	}
	s.mu.Lock()
	pts, ok := s.cache[p.Solid]
	s.mu.Unlock()
	if ok {
		return pts, nil
	}

	meshes, err := Tessellate([]Part{p}, s.k)
	if err != nil {
		return nil, err
	}
	mesh := meshes[0]
	seen := make(map[[3]float32]bool, mesh.VertexCount())
	for i := 0; i < mesh.VertexCount(); i++ {
		key := [3]float32{mesh.Vertices[3*i], mesh.Vertices[3*i+1], mesh.Vertices[3*i+2]}
		if seen[key] {
			continue
		}
		seen[key] = true
		pts = append(pts, mesh.Vertex(i))
	}

	s.mu.Lock()
	s.cache[p.Solid] = pts
	s.mu.Unlock()
	return pts, nil
}

// Contact reports whether the surfaces of a and b come within tol of each
// other. The test is symmetric: samples of each solid are evaluated against
// the other's distance field. The contact point is the mean of all samples
// within tol.
func (s *Sampler) Contact(a, b Part, tol float64) (mgl64.Vec3, bool, error) {
	if a.Solid == nil || b.Solid == nil {
		return mgl64.Vec3{}, false, nil
	}
	var sum mgl64.Vec3
	n := 0
	for _, pair := range [2][2]Part{{a, b}, {b, a}} {
		pts, err := s.Samples(pair[0])
		if err != nil {
			return mgl64.Vec3{}, false, err
		}
		other := pair[1].Solid
		near := grow(other.BoundingBox(), tol)
		for _, p := range pts {
			if !inside(near, p) {
				continue
			}
			if other.Evaluate(p) <= tol {
				sum = sum.Add(p)
				n++
			}
		}
	}
	if n == 0 {
		return mgl64.Vec3{}, false, nil
	}
	return sum.Mul(1 / float64(n)), true, nil
}

func grow(b bounds.Box, d float64) bounds.Box {
	pad := mgl64.Vec3{d, d, d}
	return bounds.Box{Min: b.Min.Sub(pad), Max: b.Max.Add(pad)}
}

func inside(b bounds.Box, p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}
