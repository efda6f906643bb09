// Package pathorder picks a visiting order for a set of polygons that
// keeps travel short: starting from a point, repeatedly go to the closest
// unvisited polygon. Closed polygons are entered at their vertex nearest
// to the arrival point; two-point lines may be run in either direction.
package pathorder

import "github.com/chazu/strata/pkg/geom"

// Order is the result of Optimize. Order lists polygon indices in visiting
// order; Start[i] is the vertex polygon i is entered at. Empty polygons
// are left out of Order.
type Order struct {
	Order []int
	Start []int
}

func dist2(a, b geom.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return dx*dx + dy*dy
}

func nearestVertex(p geom.Polygon, to geom.Point) int {
	best, bestDist := -1, 0.0
	for j, pt := range p {
		if d := dist2(pt, to); best < 0 || d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

// exit returns where the head ends up after printing p entered at start.
func exit(p geom.Polygon, start int) geom.Point {
	if len(p) <= 2 {
		return p[(start+1)%len(p)]
	}
	return p[start]
}

// Optimize orders polys greedily by nearest entry point from start.
func Optimize(start geom.Point, polys []geom.Polygon) Order {
	res := Order{Start: make([]int, len(polys))}
	for i, p := range polys {
		res.Start[i] = nearestVertex(p, start)
	}

	picked := make([]bool, len(polys))
	p0 := start
	for range polys {
		best, bestDist := -1, 0.0
		for i, p := range polys {
			if picked[i] || len(p) == 0 {
				continue
			}
			if len(p) == 2 {
				for end := 0; end < 2; end++ {
					if d := dist2(p[end], p0); best < 0 || d < bestDist {
						best, bestDist = i, d
						res.Start[i] = end
					}
				}
				continue
			}
			if d := dist2(p[res.Start[i]], p0); best < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		if best < 0 {
			break
		}
		picked[best] = true
		res.Order = append(res.Order, best)
		p0 = exit(polys[best], res.Start[best])
	}

	// Entry points were fixed against the start point; refine them along
	// the chosen route.
	p0 = start
	for _, nr := range res.Order {
		res.Start[nr] = nearestVertex(polys[nr], p0)
		p0 = exit(polys[nr], res.Start[nr])
	}
	return res
}
