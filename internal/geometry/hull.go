package geometry

import "math"

// ConvexHull computes the convex hull of a set of points using the
// monotone chain algorithm. Returns the hull in CCW order without
// duplicating the first point at the end.
func ConvexHull(pts []Point) []Point {
	n := len(pts)
	if n <= 1 {
		return append([]Point(nil), pts...)
	}
	p := make([]Point, n)
	copy(p, pts)
	sortPoints(p)
	p = removeDuplicatePoints(p)
	n = len(p)
	if n <= 1 {
		return append([]Point(nil), p...)
	}
	lower := buildLowerHull(p)
	upper := buildUpperHull(p)
	hull := make([]Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)
	return hull
}

func removeDuplicatePoints(p []Point) []Point {
	q := p[:0]
	var last Point
	hasLast := false
	for _, pt := range p {
		if !hasLast || pt.X != last.X || pt.Y != last.Y {
			q = append(q, pt)
			last = pt
			hasLast = true
		}
	}
	return q
}

func buildLowerHull(p []Point) []Point {
	lower := make([]Point, 0, len(p))
	for _, pt := range p {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], pt) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, pt)
	}
	return lower
}

func buildUpperHull(p []Point) []Point {
	upper := make([]Point, 0, len(p))
	for i := len(p) - 1; i >= 0; i-- {
		pt := p[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], pt) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, pt)
	}
	return upper
}

func sortPoints(p []Point) {
	// insertion sort; candidate point sets are small
	for i := 1; i < len(p); i++ {
		v := p[i]
		j := i - 1
		for j >= 0 && (p[j].X > v.X || (p[j].X == v.X && p[j].Y > v.Y)) {
			p[j+1] = p[j]
			j--
		}
		p[j+1] = v
	}
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// PolygonArea returns the absolute area of a simple polygon.
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// MinimumAreaRectangle computes the minimum-area enclosing rectangle using a
// rotating calipers approach over the convex hull. Returns 4 points in CCW
// order, or nil for empty input.
func MinimumAreaRectangle(pts []Point) []Point {
	if len(pts) == 0 {
		return nil
	}
	hull := ConvexHull(pts)
	if len(hull) == 0 {
		return nil
	}
	if len(hull) == 1 {
		p := hull[0]
		return []Point{{p.X, p.Y}, {p.X + 1, p.Y}, {p.X + 1, p.Y + 1}, {p.X, p.Y + 1}}
	}
	if len(hull) == 2 {
		a, b := hull[0], hull[1]
		return []Point{a, b, {b.X, b.Y + 1}, {a.X, a.Y + 1}}
	}
	return findMinimumAreaRectangle(hull)
}

func findMinimumAreaRectangle(hull []Point) []Point {
	bestArea := math.Inf(1)
	var bestU, bestV Point
	var bestMinS, bestMaxS, bestMinT, bestMaxT float64
	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		dx := b.X - a.X
		dy := b.Y - a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		ux, uy := dx/l, dy/l
		vx, vy := -uy, ux
		minS, maxS := math.Inf(1), math.Inf(-1)
		minT, maxT := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			s := p.X*ux + p.Y*uy
			t := p.X*vx + p.Y*vy
			if s < minS {
				minS = s
			}
			if s > maxS {
				maxS = s
			}
			if t < minT {
				minT = t
			}
			if t > maxT {
				maxT = t
			}
		}
		area := (maxS - minS) * (maxT - minT)
		if area < bestArea {
			bestArea = area
			bestU = Point{ux, uy}
			bestV = Point{vx, vy}
			bestMinS, bestMaxS, bestMinT, bestMaxT = minS, maxS, minT, maxT
		}
	}
	c0 := Point{X: bestU.X*bestMinS + bestV.X*bestMinT, Y: bestU.Y*bestMinS + bestV.Y*bestMinT}
	c1 := Point{X: bestU.X*bestMaxS + bestV.X*bestMinT, Y: bestU.Y*bestMaxS + bestV.Y*bestMinT}
	c2 := Point{X: bestU.X*bestMaxS + bestV.X*bestMaxT, Y: bestU.Y*bestMaxS + bestV.Y*bestMaxT}
	c3 := Point{X: bestU.X*bestMinS + bestV.X*bestMaxT, Y: bestU.Y*bestMinS + bestV.Y*bestMaxT}
	return []Point{c0, c1, c2, c3}
}
