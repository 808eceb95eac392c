package topology

import (
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// Hops returns the hop distance from one host to every host it can reach.
// Links are treated as undirected, unreachable hosts are absent from the
// result.
func (d *Descriptor) Hops(from NodeID) map[NodeID]int {
	ids := make(map[NodeID]int64, len(d.Nodes))
	names := make(map[int64]NodeID, len(d.Nodes))
	g := simple.NewUndirectedGraph()
	for i, node := range d.Nodes {
		ids[node] = int64(i)
		names[int64(i)] = node
		g.AddNode(simple.Node(i))
	}

	src, ok := ids[from]
	if !ok {
		return map[NodeID]int{}
	}

	for _, link := range d.Links {
		if link.From == link.To {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(ids[link.From]), T: simple.Node(ids[link.To])})
	}

	tree := path.DijkstraFrom(simple.Node(src), g)
	hops := make(map[NodeID]int, len(d.Nodes))
	for id, name := range names {
		w := tree.WeightTo(id)
		if math.IsInf(w, 1) {
			continue
		}
		hops[name] = int(w)
	}
	return hops
}

// Unreachable returns the targets that have no path from the given host.
func (d *Descriptor) Unreachable(from NodeID, targets []NodeID) []NodeID {
	hops := d.Hops(from)
	var missing []NodeID
	for _, t := range targets {
		if _, ok := hops[t]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}
