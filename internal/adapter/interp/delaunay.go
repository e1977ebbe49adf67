package interp

import (
	"fmt"
	"math"

	"github.com/fogleman/delaunay"
)

// barycentricEps tolerates points a rounding error outside a triangle.
const barycentricEps = 1e-10

// Triangulation is a 2-D linear interpolant over scattered samples.
type Triangulation struct {
	points []delaunay.Point
	values []float64
	tris   []int
	boxes  []box
}

type box struct{ minX, minY, maxX, maxY float64 }

// NewTriangulation triangulates the samples (xs[i], ys[i]) -> vals[i]. It
// fails for fewer than three samples or collinear samples.
func NewTriangulation(xs, ys, vals []float64) (*Triangulation, error) {
	if len(xs) != len(ys) || len(xs) != len(vals) {
		return nil, fmt.Errorf("length mismatch: %d xs, %d ys, %d values", len(xs), len(ys), len(vals))
	}
	if len(xs) < 3 {
		return nil, fmt.Errorf("need at least 3 samples, got %d", len(xs))
	}
	pts := make([]delaunay.Point, len(xs))
	for i := range xs {
		pts[i] = delaunay.Point{X: xs[i], Y: ys[i]}
	}
	tri, err := delaunay.Triangulate(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to triangulate: %w", err)
	}
	if len(tri.Triangles) == 0 {
		return nil, fmt.Errorf("samples are collinear")
	}

	t := &Triangulation{points: pts, values: vals, tris: tri.Triangles}
	t.boxes = make([]box, len(t.tris)/3)
	for k := range t.boxes {
		a, b, c := pts[t.tris[3*k]], pts[t.tris[3*k+1]], pts[t.tris[3*k+2]]
		t.boxes[k] = box{
			minX: math.Min(a.X, math.Min(b.X, c.X)),
			minY: math.Min(a.Y, math.Min(b.Y, c.Y)),
			maxX: math.Max(a.X, math.Max(b.X, c.X)),
			maxY: math.Max(a.Y, math.Max(b.Y, c.Y)),
		}
	}
	return t, nil
}

// At evaluates the interpolant at (x, y), NaN outside the convex hull.
func (t *Triangulation) At(x, y float64) float64 {
	for k, bb := range t.boxes {
		if x < bb.minX-barycentricEps || x > bb.maxX+barycentricEps ||
			y < bb.minY-barycentricEps || y > bb.maxY+barycentricEps {
			continue
		}
		ia, ib, ic := t.tris[3*k], t.tris[3*k+1], t.tris[3*k+2]
		l1, l2, l3, ok := barycentric(t.points[ia], t.points[ib], t.points[ic], x, y)
		if !ok {
			continue
		}
		return weighted(t.values[ia], l1) + weighted(t.values[ib], l2) + weighted(t.values[ic], l3)
	}
	return math.NaN()
}

func barycentric(a, b, c delaunay.Point, x, y float64) (l1, l2, l3 float64, ok bool) {
	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if det == 0 {
		return 0, 0, 0, false
	}
	l1 = ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / det
	l2 = ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / det
	l3 = 1 - l1 - l2
	if l1 < -barycentricEps || l2 < -barycentricEps || l3 < -barycentricEps {
		return 0, 0, 0, false
	}
	return l1, l2, l3, true
}

// weighted drops vertices whose weight vanishes so that NaN samples on the
// far side of an edge do not leak into the result.
func weighted(v, w float64) float64 {
	if math.Abs(w) <= barycentricEps {
		return 0
	}
	return v * w
}

// Scattered2D interpolates samples at each output point. When the samples
// cannot be triangulated it falls back per point: an exact sample match
// returns the sample, a point on the line through collinear samples is
// interpolated linearly between its neighbours, anything else is NaN.
func Scattered2D(xs, ys, vals, outX, outY []float64) []float64 {
	out := make([]float64, len(outX))
	if tri, err := NewTriangulation(xs, ys, vals); err == nil {
		for i := range outX {
			out[i] = tri.At(outX[i], outY[i])
		}
		return out
	}
	for i := range outX {
		out[i] = collinearAt(xs, ys, vals, outX[i], outY[i])
	}
	return out
}

func collinearAt(xs, ys, vals []float64, x, y float64) float64 {
	for i := range xs {
		if xs[i] == x && ys[i] == y {
			return vals[i]
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}

	// Parametrise along the samples' direction of largest extent.
	x0, y0 := xs[0], ys[0]
	far := 0
	for i := range xs {
		if math.Hypot(xs[i]-x0, ys[i]-y0) > math.Hypot(xs[far]-x0, ys[far]-y0) {
			far = i
		}
	}
	dx, dy := xs[far]-x0, ys[far]-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.NaN()
	}
	ux, uy := dx/length, dy/length
	for i := range xs {
		if math.Abs((xs[i]-x0)*uy-(ys[i]-y0)*ux) > barycentricEps*length {
			return math.NaN()
		}
	}
	if math.Abs((x-x0)*uy-(y-y0)*ux) > barycentricEps*length {
		return math.NaN()
	}

	params := make([]float64, len(xs))
	for i := range xs {
		params[i] = (xs[i]-x0)*ux + (ys[i]-y0)*uy
	}
	line, err := NewLinear(params, vals)
	if err != nil {
		return math.NaN()
	}
	return line.At((x-x0)*ux + (y-y0)*uy)
}
