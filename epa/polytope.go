package epa

import (
	"container/heap"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/gjk"
)

// face is a triangle of the polytope. Vertices are indices into polytope.vertices,
// wound counter-clockwise seen from outside.
type face struct {
	v      [3]int
	normal mgl64.Vec3
	// lambda are the barycentric weights of the origin projected on the face plane
	lambda [3]float64
	// distance from the origin to its projection, +Inf when the projection falls outside the face
	distance float64
	obsolete bool
}

// faceQueue is a min-heap of faces ordered by distance.
type faceQueue []*face

func (q faceQueue) Len() int           { return len(q) }
func (q faceQueue) Less(i, j int) bool { return q[i].distance < q[j].distance }
func (q faceQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *faceQueue) Push(x any) {
	*q = append(*q, x.(*face))
}

func (q *faceQueue) Pop() any {
	old := *q
	n := len(old)
	f := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]

	return f
}

// polytope is the expanding hull of Minkowski difference vertices.
type polytope struct {
	vertices []gjk.Vertex
	faces    []*face
	queue    faceQueue
	// interior is a point strictly inside the hull, used to orient new faces
	interior mgl64.Vec3
}

type edge struct {
	from, to int
}

// newPolytope builds the initial tetrahedron. It fails on a flat tetrahedron.
func newPolytope(tetra [4]gjk.Vertex) (*polytope, bool) {
	y0 := tetra[0].Point
	e1 := tetra[1].Point.Sub(y0)
	e2 := tetra[2].Point.Sub(y0)
	e3 := tetra[3].Point.Sub(y0)
	volume := math.Abs(e1.Dot(e2.Cross(e3)))
	if volume <= degenerateTolerance*e1.Len()*e2.Len()*e3.Len() || math.IsNaN(volume) {
		return nil, false
	}

	p := &polytope{
		vertices: append(make([]gjk.Vertex, 0, 16), tetra[:]...),
		faces:    make([]*face, 0, 32),
		queue:    make(faceQueue, 0, 32),
	}
	for _, v := range tetra {
		p.interior = p.interior.Add(v.Point)
	}
	p.interior = p.interior.Mul(0.25)

	p.addFace(0, 1, 2)
	p.addFace(0, 2, 3)
	p.addFace(0, 3, 1)
	p.addFace(1, 3, 2)

	return p, true
}

// addFace creates the face (i, j, k), flips it outward if needed and queues it.
func (p *polytope) addFace(i, j, k int) {
	y0 := p.vertices[i].Point
	normal := p.vertices[j].Point.Sub(y0).Cross(p.vertices[k].Point.Sub(y0))
	if normal.Dot(y0.Sub(p.interior)) < 0 {
		j, k = k, j
		normal = normal.Mul(-1)
	}

	f := &face{v: [3]int{i, j, k}, distance: math.Inf(1)}
	if length := normal.Len(); length > 0 {
		f.normal = normal.Mul(1.0 / length)
		p.project(f)
	}

	p.faces = append(p.faces, f)
	heap.Push(&p.queue, f)
}

// project solves the 3x3 system giving the barycentric weights of the point of
// the face plane closest to the origin:
//
//	λ0 + λ1 + λ2 = 1
//	(Σ λi yi) · e1 = 0
//	(Σ λi yi) · e2 = 0
//
// A negative weight means the origin projects outside the face, which then keeps
// an infinite distance.
func (p *polytope) project(f *face) {
	y0 := p.vertices[f.v[0]].Point
	y1 := p.vertices[f.v[1]].Point
	y2 := p.vertices[f.v[2]].Point
	e1 := y1.Sub(y0)
	e2 := y2.Sub(y0)

	M := mgl64.Mat3FromCols(
		mgl64.Vec3{1, e1.Dot(y0), e2.Dot(y0)},
		mgl64.Vec3{1, e1.Dot(y1), e2.Dot(y1)},
		mgl64.Vec3{1, e1.Dot(y2), e2.Dot(y2)},
	)
	det := M.Det()
	if math.Abs(det) <= degenerateTolerance*e1.LenSqr()*e2.LenSqr() {
		return
	}

	lambda := M.Inv().Mul3x1(mgl64.Vec3{1, 0, 0})
	for _, l := range lambda {
		if l < -barycentricTolerance || math.IsNaN(l) {
			return
		}
	}

	f.lambda = [3]float64{lambda[0], lambda[1], lambda[2]}
	closest := y0.Mul(lambda[0]).Add(y1.Mul(lambda[1])).Add(y2.Mul(lambda[2]))
	f.distance = closest.Dot(f.normal)
}

// pop returns the live face nearest to the origin.
func (p *polytope) pop() (*face, bool) {
	for p.queue.Len() > 0 {
		f := heap.Pop(&p.queue).(*face)
		if !f.obsolete {
			return f, true
		}
	}

	return nil, false
}

// expand adds w to the hull: faces that see w are removed and the hole is
// closed with faces joining the horizon edges to w.
func (p *polytope) expand(w gjk.Vertex) {
	index := len(p.vertices)
	p.vertices = append(p.vertices, w)

	// directed edges of visible faces; an edge shared by two visible faces cancels out
	horizon := make([]edge, 0, 12)
	for _, f := range p.faces {
		if f.obsolete {
			continue
		}
		if f.normal.Dot(w.Point.Sub(p.vertices[f.v[0]].Point)) <= 0 {
			continue
		}

		f.obsolete = true
		for e := 0; e < 3; e++ {
			current := edge{from: f.v[e], to: f.v[(e+1)%3]}
			shared := false
			for h, existing := range horizon {
				if existing.from == current.to && existing.to == current.from {
					horizon = append(horizon[:h], horizon[h+1:]...)
					shared = true
					break
				}
			}
			if !shared {
				horizon = append(horizon, current)
			}
		}
	}

	live := p.faces[:0]
	for _, f := range p.faces {
		if !f.obsolete {
			live = append(live, f)
		}
	}
	p.faces = live

	for _, e := range horizon {
		p.addFace(e.from, e.to, index)
	}
}

// witnesses interpolates the closest points on A and B from a face.
func (p *polytope) witnesses(f *face) (mgl64.Vec3, mgl64.Vec3) {
	var pa, pb mgl64.Vec3
	for i := 0; i < 3; i++ {
		v := p.vertices[f.v[i]]
		pa = pa.Add(v.A.Mul(f.lambda[i]))
		pb = pb.Add(v.B.Mul(f.lambda[i]))
	}

	return pa, pb
}
