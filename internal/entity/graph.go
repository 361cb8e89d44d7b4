package entity

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// Graph is an undirected relation over entity IDs. Every edge is stored in
// both directions, so Connected(a, b) == Connected(b, a) always holds.
type Graph struct {
	mu  sync.RWMutex
	adj map[string]map[string]struct{}
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{adj: make(map[string]map[string]struct{})}
}

// Connect links a and b. Connecting an existing pair is a no-op.
func (g *Graph) Connect(a, b string) error {
	if a == b {
		return fmt.Errorf("entity: connect %s: %w", a, domain.ErrSelfConnection)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.link(a, b)
	g.link(b, a)
	return nil
}

func (g *Graph) link(from, to string) {
	set, ok := g.adj[from]
	if !ok {
		set = make(map[string]struct{})
		g.adj[from] = set
	}
	set[to] = struct{}{}
}

// Connected reports whether a and b share an edge.
func (g *Graph) Connected(a, b string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.adj[a][b]
	return ok
}

// Neighbors returns the IDs connected to id in sorted order.
func (g *Graph) Neighbors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.adj[id]))
	for n := range g.adj[id] {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Edges returns the number of undirected edges.
func (g *Graph) Edges() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, set := range g.adj {
		n += len(set)
	}
	return n / 2
}
