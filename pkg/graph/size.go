package graph

import (
	"fmt"

	"gonum.org/v1/gonum/graph/network"
)

const (
	DefaultRadius = 10.0
	MinRadius     = 6.0
	MaxRadius     = 30.0
)

// SizeMode selects the metric that drives node radius.
type SizeMode string

const (
	SizeUniform      SizeMode = "uniform"
	SizeConnections  SizeMode = "connections"
	SizeInbound      SizeMode = "inbound"
	SizePageRank     SizeMode = "pagerank"
	SizeWordCount    SizeMode = "word_count"
	SizeResponseTime SizeMode = "response_time"
	SizeIssues       SizeMode = "issues"
)

// SizeModes lists the modes in cycling order.
var SizeModes = []SizeMode{
	SizeUniform,
	SizeConnections,
	SizeInbound,
	SizePageRank,
	SizeWordCount,
	SizeResponseTime,
	SizeIssues,
}

func ParseSizeMode(s string) (SizeMode, error) {
	if s == "" {
		return SizeUniform, nil
	}
	for _, m := range SizeModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown size mode %q", s)
}

// NextSizeMode returns the mode after m, wrapping around.
func NextSizeMode(m SizeMode) SizeMode {
	for i, mode := range SizeModes {
		if mode == m {
			return SizeModes[(i+1)%len(SizeModes)]
		}
	}
	return SizeModes[0]
}

// Metric returns the raw per-node value for mode, indexed like Nodes.
func (g *Graph) Metric(mode SizeMode) []float64 {
	values := make([]float64, len(g.Nodes))

	if mode == SizePageRank {
		if len(g.Nodes) == 0 {
			return values
		}
		_, directed := g.gonum()
		for id, rank := range network.PageRank(directed, 0.85, 1e-6) {
			values[id] = rank
		}
		return values
	}

	for i, n := range g.Nodes {
		switch mode {
		case SizeConnections:
			values[i] = float64(n.Degree())
		case SizeInbound:
			values[i] = float64(n.InDegree)
		case SizeWordCount:
			values[i] = float64(n.Data.WordCount)
		case SizeResponseTime:
			values[i] = n.Data.ResponseTime
		case SizeIssues:
			values[i] = float64(n.Data.IssueCount())
		}
	}
	return values
}

// ApplySizes maps the metric for mode linearly onto [MinRadius, MaxRadius].
// When every node has the same value all radii fall back to DefaultRadius.
func (g *Graph) ApplySizes(mode SizeMode) {
	values := g.Metric(mode)
	if len(values) == 0 {
		return
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	for i, n := range g.Nodes {
		if mode == SizeUniform || hi == lo {
			n.Radius = DefaultRadius
			continue
		}
		n.Radius = MinRadius + (values[i]-lo)/(hi-lo)*(MaxRadius-MinRadius)
	}
}
