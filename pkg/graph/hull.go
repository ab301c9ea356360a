package graph

import (
	"fmt"
	"math"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// GroupKey selects how nodes are partitioned into visual groups.
type GroupKey string

const (
	GroupByPath   GroupKey = "path"
	GroupByStatus GroupKey = "status"
)

func ParseGroupKey(s string) (GroupKey, error) {
	switch GroupKey(s) {
	case "", GroupByPath:
		return GroupByPath, nil
	case GroupByStatus:
		return GroupByStatus, nil
	default:
		return "", fmt.Errorf("unknown group key %q", s)
	}
}

// AssignGroups sets Group on every node.
func (g *Graph) AssignGroups(key GroupKey) {
	for _, n := range g.Nodes {
		n.Group = groupOf(n, key)
	}
}

func groupOf(n *Node, key GroupKey) string {
	if key == GroupByStatus {
		code := n.Data.StatusCode
		if code < 100 || code > 599 {
			return "unknown"
		}
		return fmt.Sprintf("%dxx", code/100)
	}

	u, err := url.Parse(n.ID)
	if err != nil {
		return "/"
	}
	// only directories form a section; a bare file sits with the root
	p := strings.TrimPrefix(u.Path, "/")
	if i := strings.Index(p, "/"); i > 0 {
		return "/" + p[:i]
	}
	return "/"
}

// Groups returns node ids per group, both sorted.
func (g *Graph) Groups() map[string][]string {
	groups := make(map[string][]string)
	for _, n := range g.Nodes {
		groups[n.Group] = append(groups[n.Group], n.ID)
	}
	for k := range groups {
		sort.Strings(groups[k])
	}
	return groups
}

// Point is a position in layout space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ConvexHull returns the hull of points in counter-clockwise order, starting
// from the lowest-x point, with collinear points removed. Fewer than three
// distinct points are returned as they are.
func ConvexHull(points []Point) []Point {
	pts := make([]Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	uniq := make([]Point, 0, len(pts))
	flat := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		if len(uniq) == 0 || p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
			flat = append(flat, p.X, p.Y)
		}
	}
	if len(uniq) < 3 {
		return uniq
	}

	var coords []geom.Coord
	switch h := xy.ConvexHull(geom.NewMultiPointFlat(geom.XY, flat)).(type) {
	case *geom.Polygon:
		ring := h.LinearRing(0).Coords()
		coords = ring[:len(ring)-1]
	case *geom.LineString:
		coords = h.Coords()
	default:
		return nil
	}

	hull := make([]Point, len(coords))
	for i, c := range coords {
		hull[i] = Point{X: c.X(), Y: c.Y()}
	}
	return normalizeRing(hull)
}

// normalizeRing orders a hull counter-clockwise from its lowest-x point.
func normalizeRing(hull []Point) []Point {
	if len(hull) == 0 {
		return hull
	}
	area := 0.0
	for i, a := range hull {
		b := hull[(i+1)%len(hull)]
		area += a.X*b.Y - b.X*a.Y
	}
	if area < 0 {
		slices.Reverse(hull)
	}

	first := 0
	for i, p := range hull {
		if p.X < hull[first].X || (p.X == hull[first].X && p.Y < hull[first].Y) {
			first = i
		}
	}
	return append(hull[first:], hull[:first]...)
}

// Hull outlines one group of nodes.
type Hull struct {
	Group  string   `json:"group"`
	Nodes  []string `json:"nodes"`
	Points []Point  `json:"points"`
}

// Hulls computes one outline per group with at least two nodes. Each node
// contributes a ring of points at its radius plus padding so the outline
// encloses the drawn circles rather than their centers.
func (g *Graph) Hulls(padding float64) []Hull {
	groups := g.Groups()
	names := make([]string, 0, len(groups))
	for name, ids := range groups {
		if len(ids) >= 2 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	const ring = 8
	hulls := make([]Hull, 0, len(names))
	for _, name := range names {
		var pts []Point
		for _, id := range groups[name] {
			n := g.Nodes[g.index[id]]
			r := n.Radius + padding
			for k := 0; k < ring; k++ {
				a := 2 * math.Pi * float64(k) / ring
				pts = append(pts, Point{X: n.X + r*math.Cos(a), Y: n.Y + r*math.Sin(a)})
			}
		}
		hulls = append(hulls, Hull{Group: name, Nodes: groups[name], Points: ConvexHull(pts)})
	}
	return hulls
}
