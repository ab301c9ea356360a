// Package graph derives the page graph from a crawl snapshot and implements
// the interactive operations of the explorer: neighborhood highlighting,
// shortest paths, hull grouping, node sizing and force-directed layout.
package graph

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/xhad/sitegraph/internal/models"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	ErrUnknownNode = errors.New("unknown node")
	ErrNoPath      = errors.New("no path between nodes")
)

// Node is a crawled (or merely linked) page.
type Node struct {
	ID        string           `json:"id"`
	Index     int              `json:"index"`
	Data      *models.PageData `json:"-"`
	Known     bool             `json:"known"`
	Group     string           `json:"group"`
	InDegree  int              `json:"in_degree"`
	OutDegree int              `json:"out_degree"`
	X         float64          `json:"x"`
	Y         float64          `json:"y"`
	Radius    float64          `json:"r"`
}

// Degree is the number of edge endpoints on the node.
func (n *Node) Degree() int {
	return n.InDegree + n.OutDegree
}

// Edge is an internal link between two node indexes.
type Edge struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

type Graph struct {
	Nodes []*Node
	Edges []Edge

	index map[string]int

	once       sync.Once
	undirected *simple.UndirectedGraph
	directed   *simple.DirectedGraph
}

// Build derives nodes and edges in a single pass over the sorted keys. Every
// entry in internal_links becomes an edge, duplicates included, and link
// targets that were never crawled become nodes with empty data.
func Build(site models.SiteStructure) *Graph {
	g := &Graph{index: make(map[string]int)}

	for _, source := range site.URLs() {
		src := g.ensure(source, site)
		page := site[source]
		if page == nil {
			continue
		}
		for _, target := range page.InternalLinks {
			dst := g.ensure(target, site)
			g.Edges = append(g.Edges, Edge{Source: src, Target: dst})
			g.Nodes[src].OutDegree++
			g.Nodes[dst].InDegree++
		}
	}

	for _, n := range g.Nodes {
		n.Radius = DefaultRadius
	}
	g.AssignGroups(GroupByPath)
	return g
}

func (g *Graph) ensure(id string, site models.SiteStructure) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	data, known := site[id]
	if data == nil {
		data = &models.PageData{}
		known = false
	}
	i := len(g.Nodes)
	g.Nodes = append(g.Nodes, &Node{ID: id, Index: i, Data: data, Known: known})
	g.index[id] = i
	return i
}

// Clone copies the nodes so sizes, groups and positions can change without
// touching g. Edges and page data are shared.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		Nodes: make([]*Node, len(g.Nodes)),
		Edges: g.Edges,
		index: g.index,
	}
	for i, n := range g.Nodes {
		cp := *n
		c.Nodes[i] = &cp
	}
	return c
}

// Len is the number of nodes.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// Node returns the node with the given URL.
func (g *Graph) Node(id string) (*Node, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return g.Nodes[i], nil
}

// Resolve finds a node ignoring a trailing slash.
func (g *Graph) Resolve(id string) (*Node, error) {
	trimmed := strings.TrimRight(id, "/")
	for _, key := range []string{id, trimmed, trimmed + "/"} {
		if i, ok := g.index[key]; ok {
			return g.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
}

// ConnectionCount is the number of edges touching id.
func (g *Graph) ConnectionCount(id string) int {
	i, ok := g.index[id]
	if !ok {
		return 0
	}
	count := 0
	for _, e := range g.Edges {
		if e.Source == i || e.Target == i {
			count++
		}
	}
	return count
}

// Neighbors returns id and every node sharing an edge with it, sorted.
func (g *Graph) Neighbors(id string) ([]string, error) {
	h, err := g.Highlight(id)
	if err != nil {
		return nil, err
	}
	return h.Nodes, nil
}

// Highlight is the set of elements left undimmed when a node is selected.
type Highlight struct {
	Selected string   `json:"selected"`
	Nodes    []string `json:"nodes"`
	Edges    []int    `json:"edges"`
}

func (h Highlight) HasNode(id string) bool {
	i := sort.SearchStrings(h.Nodes, id)
	return i < len(h.Nodes) && h.Nodes[i] == id
}

func (h Highlight) HasEdge(idx int) bool {
	i := sort.SearchInts(h.Edges, idx)
	return i < len(h.Edges) && h.Edges[i] == idx
}

// Highlight computes the neighborhood of id. Nodes and edges outside it are
// dimmed by the view.
func (g *Graph) Highlight(id string) (Highlight, error) {
	i, ok := g.index[id]
	if !ok {
		return Highlight{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	nodes := map[string]bool{id: true}
	edges := []int{}
	for idx, e := range g.Edges {
		switch i {
		case e.Source:
			nodes[g.Nodes[e.Target].ID] = true
		case e.Target:
			nodes[g.Nodes[e.Source].ID] = true
		default:
			continue
		}
		edges = append(edges, idx)
	}

	h := Highlight{Selected: id, Edges: edges}
	for n := range nodes {
		h.Nodes = append(h.Nodes, n)
	}
	sort.Strings(h.Nodes)
	return h, nil
}

// Root is the node with the shortest URL path, ties broken lexically.
func (g *Graph) Root() (*Node, error) {
	if len(g.Nodes) == 0 {
		return nil, ErrUnknownNode
	}
	best := g.Nodes[0]
	bestLen := pathLen(best.ID)
	for _, n := range g.Nodes[1:] {
		l := pathLen(n.ID)
		if l < bestLen || (l == bestLen && n.ID < best.ID) {
			best, bestLen = n, l
		}
	}
	return best, nil
}

func pathLen(id string) int {
	u, err := url.Parse(id)
	if err != nil {
		return len(id)
	}
	p := strings.Trim(u.Path, "/")
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return len(p)
}

// gonum returns the undirected and directed gonum views of the graph. Self
// links are dropped since simple graphs reject them.
func (g *Graph) gonum() (*simple.UndirectedGraph, *simple.DirectedGraph) {
	g.once.Do(func() {
		g.undirected = simple.NewUndirectedGraph()
		g.directed = simple.NewDirectedGraph()
		for _, n := range g.Nodes {
			g.undirected.AddNode(simple.Node(n.Index))
			g.directed.AddNode(simple.Node(n.Index))
		}
		for _, e := range g.Edges {
			if e.Source == e.Target {
				continue
			}
			u, v := simple.Node(e.Source), simple.Node(e.Target)
			g.undirected.SetEdge(g.undirected.NewEdge(u, v))
			g.directed.SetEdge(g.directed.NewEdge(u, v))
		}
	})
	return g.undirected, g.directed
}
