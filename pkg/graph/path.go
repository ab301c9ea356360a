package graph

import (
	"fmt"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// ShortestPath returns the node ids on a fewest-hop route between from and
// to, following links in either direction.
func (g *Graph) ShortestPath(from, to string) ([]string, error) {
	src, err := g.Node(from)
	if err != nil {
		return nil, err
	}
	dst, err := g.Node(to)
	if err != nil {
		return nil, err
	}
	if src.Index == dst.Index {
		return []string{src.ID}, nil
	}

	undirected, _ := g.gonum()
	nodes, _ := path.DijkstraFromTo(simple.Node(src.Index), simple.Node(dst.Index), undirected)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoPath, from, to)
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = g.Nodes[n.ID()].ID
	}
	return ids, nil
}

// PathToRoot routes from id to the site root.
func (g *Graph) PathToRoot(id string) ([]string, error) {
	root, err := g.Root()
	if err != nil {
		return nil, err
	}
	return g.ShortestPath(id, root.ID)
}

// PathEdges returns the indexes of edges joining consecutive ids of a path.
func (g *Graph) PathEdges(ids []string) []int {
	on := make(map[[2]int]bool, len(ids))
	for i := 1; i < len(ids); i++ {
		a, b := g.index[ids[i-1]], g.index[ids[i]]
		on[[2]int{a, b}] = true
		on[[2]int{b, a}] = true
	}

	var edges []int
	for idx, e := range g.Edges {
		if on[[2]int{e.Source, e.Target}] {
			edges = append(edges, idx)
		}
	}
	return edges
}
