// Package roadnet models the road links between catalog intersections and
// orders corridors by shortest path.
package roadnet

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/AaronLay10/SentientSignals/internal/errors"
)

// Node is an intersection placed on the map.
type Node struct {
	ID       string
	Location orb.Point
}

// Link is an undirected road segment between two intersections.
type Link struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Road string `json:"road,omitempty" yaml:"road,omitempty"`
}

// Route is an ordered corridor.
type Route struct {
	IntersectionIDs []string `json:"intersection_ids"`
	LengthKm        float64  `json:"length_km"`
}

// Graph is a weighted road network. Edge weights are geodesic lengths in km.
type Graph struct {
	g     *simple.WeightedUndirectedGraph
	ids   map[string]int64
	names map[int64]string
}

// New builds the road network. Every link endpoint must be a known node.
func New(nodes []Node, links []Link) (*Graph, error) {
	gr := &Graph{
		g:     simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		ids:   make(map[string]int64, len(nodes)),
		names: make(map[int64]string, len(nodes)),
	}
	locs := make(map[string]orb.Point, len(nodes))

	for i, n := range nodes {
		if _, dup := gr.ids[n.ID]; dup {
			return nil, errors.NewAlreadyExistsError("intersection", n.ID)
		}
		id := int64(i)
		gr.ids[n.ID] = id
		gr.names[id] = n.ID
		locs[n.ID] = n.Location
		gr.g.AddNode(simple.Node(id))
	}

	for _, l := range links {
		from, ok := gr.ids[l.From]
		if !ok {
			return nil, errors.IntersectionNotFound(l.From)
		}
		to, ok := gr.ids[l.To]
		if !ok {
			return nil, errors.IntersectionNotFound(l.To)
		}
		if from == to {
			return nil, errors.NewInvalidArgumentError("links", "self link on "+l.From)
		}
		km := geo.DistanceHaversine(locs[l.From], locs[l.To]) / 1000
		gr.g.SetWeightedEdge(gr.g.NewWeightedEdge(simple.Node(from), simple.Node(to), km))
	}
	return gr, nil
}

// Route returns the shortest corridor from one intersection to another.
func (gr *Graph) Route(from, to string) (Route, error) {
	src, ok := gr.ids[from]
	if !ok {
		return Route{}, errors.IntersectionNotFound(from)
	}
	dst, ok := gr.ids[to]
	if !ok {
		return Route{}, errors.IntersectionNotFound(to)
	}
	if src == dst {
		return Route{IntersectionIDs: []string{from}}, nil
	}

	shortest := path.DijkstraFrom(simple.Node(src), gr.g)
	nodes, weight := shortest.To(dst)
	if len(nodes) == 0 {
		return Route{}, errors.NewInvalidArgumentError("to", "no road path from "+from+" to "+to)
	}

	route := Route{LengthKm: math.Round(weight*100) / 100}
	for _, n := range nodes {
		route.IntersectionIDs = append(route.IntersectionIDs, gr.names[n.ID()])
	}
	return route, nil
}
