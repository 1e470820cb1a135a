package detector

import (
	"github.com/cardfolio/cardscan/internal/geometry"
)

// component holds the statistics of one 4-connected mask component.
type component struct {
	count    int
	minX     int
	minY     int
	maxX     int
	maxY     int
	boundary []geometry.Point // pixels with at least one background neighbor
}

// connectedComponents labels 4-connected components in the 0/1 mask and
// collects per-component statistics and boundary pixels.
func connectedComponents(mask []byte, w, h int) []component {
	visited := make([]bool, w*h)
	var comps []component
	var queue []int

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if mask[idx] == 0 || visited[idx] {
				continue
			}
			comps = append(comps, traverseComponent(mask, visited, w, h, idx, queue[:0]))
		}
	}
	return comps
}

// traverseComponent runs a BFS from the seed index and gathers stats.
func traverseComponent(mask []byte, visited []bool, w, h, seed int, queue []int) component {
	st := component{minX: seed % w, minY: seed / w, maxX: seed % w, maxY: seed / w}
	visited[seed] = true
	queue = append(queue, seed)

	for len(queue) > 0 {
		ci := queue[0]
		queue = queue[1:]
		cx, cy := ci%w, ci/w

		st.count++
		if cx < st.minX {
			st.minX = cx
		}
		if cy < st.minY {
			st.minY = cy
		}
		if cx > st.maxX {
			st.maxX = cx
		}
		if cy > st.maxY {
			st.maxY = cy
		}

		onBoundary := false
		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				onBoundary = true
				continue
			}
			ni := ny*w + nx
			if mask[ni] == 0 {
				onBoundary = true
				continue
			}
			if !visited[ni] {
				visited[ni] = true
				queue = append(queue, ni)
			}
		}
		if onBoundary {
			st.boundary = append(st.boundary, geometry.Point{X: float64(cx), Y: float64(cy)})
		}
	}
	return st
}
