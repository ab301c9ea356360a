package graph

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/graph/layout"
)

type LayoutOptions struct {
	Updates   int
	Repulsion float64
	Rate      float64
	Theta     float64
	Margin    float64
	Seed      uint64
}

func (o LayoutOptions) withDefaults() LayoutOptions {
	if o.Updates == 0 {
		o.Updates = 60
	}
	if o.Repulsion == 0 {
		o.Repulsion = 1
	}
	if o.Rate == 0 {
		o.Rate = 0.05
	}
	if o.Theta == 0 {
		o.Theta = 0.2
	}
	if o.Margin == 0 {
		o.Margin = 40
	}
	if o.Seed == 0 {
		o.Seed = 1
	}
	return o
}

// Layout places nodes with the Eades force-directed algorithm and scales the
// result into a width x height viewport.
func (g *Graph) Layout(width, height float64, opts LayoutOptions) {
	if len(g.Nodes) == 0 {
		return
	}
	opts = opts.withDefaults()

	undirected, _ := g.gonum()
	eades := layout.EadesR2{
		Updates:   opts.Updates,
		Repulsion: opts.Repulsion,
		Rate:      opts.Rate,
		Theta:     opts.Theta,
		Src:       rand.NewPCG(opts.Seed, opts.Seed),
	}
	optimizer := layout.NewOptimizerR2(undirected, eades.Update)
	for optimizer.Update() {
	}

	placed := false
	for _, n := range g.Nodes {
		pos := optimizer.Coord2(int64(n.Index))
		n.X, n.Y = pos.X, pos.Y
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
			n.X, n.Y = 0, 0
		}
		if n.X != 0 || n.Y != 0 {
			placed = true
		}
	}
	// the optimizer only writes coordinates once an update moves something
	if !placed {
		g.circle()
	}

	g.fit(width, height, opts.Margin)
}

func (g *Graph) circle() {
	if len(g.Nodes) == 1 {
		g.Nodes[0].X, g.Nodes[0].Y = 0, 0
		return
	}
	for i, n := range g.Nodes {
		a := 2 * math.Pi * float64(i) / float64(len(g.Nodes))
		n.X, n.Y = math.Cos(a), math.Sin(a)
	}
}

// fit scales positions into the viewport keeping the aspect ratio.
func (g *Graph) fit(width, height, margin float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range g.Nodes {
		minX, maxX = min(minX, n.X), max(maxX, n.X)
		minY, maxY = min(minY, n.Y), max(maxY, n.Y)
	}

	innerW := math.Max(width-2*margin, 1)
	innerH := math.Max(height-2*margin, 1)
	spanX, spanY := maxX-minX, maxY-minY

	scale := 0.0
	switch {
	case spanX > 0 && spanY > 0:
		scale = math.Min(innerW/spanX, innerH/spanY)
	case spanX > 0:
		scale = innerW / spanX
	case spanY > 0:
		scale = innerH / spanY
	}

	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	for _, n := range g.Nodes {
		n.X = width/2 + (n.X-cx)*scale
		n.Y = height/2 + (n.Y-cy)*scale
	}
}
