package roadnet

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/SentientSignals/internal/errors"
)

func testGraph(t *testing.T) *Graph {
	t.Helper()
	nodes := []Node{
		{ID: "INT_001", Location: orb.Point{80.2664, 13.0351}},
		{ID: "INT_002", Location: orb.Point{80.2788, 13.0353}},
		{ID: "INT_003", Location: orb.Point{80.2614, 13.0309}},
		{ID: "INT_004", Location: orb.Point{80.2527, 13.0269}},
		{ID: "INT_005", Location: orb.Point{80.3015, 13.0249}},
		{ID: "INT_006", Location: orb.Point{80.4000, 13.1000}},
	}
	links := []Link{
		{From: "INT_004", To: "INT_003", Road: "Residency Road"},
		{From: "INT_003", To: "INT_001", Road: "MG Road"},
		{From: "INT_001", To: "INT_002", Road: "Old Airport Road"},
		{From: "INT_002", To: "INT_005", Road: "Whitefield Road"},
		{From: "INT_004", To: "INT_005", Road: "Outer Ring Road"},
	}
	g, err := New(nodes, links)
	require.NoError(t, err)
	return g
}

func TestRoute_PrefersShorterChain(t *testing.T) {
	g := testGraph(t)

	route, err := g.Route("INT_004", "INT_002")
	require.NoError(t, err)
	assert.Equal(t, []string{"INT_004", "INT_003", "INT_001", "INT_002"}, route.IntersectionIDs)
	assert.InDelta(t, 3.1, route.LengthKm, 0.3)
}

func TestRoute_DirectLink(t *testing.T) {
	g := testGraph(t)

	route, err := g.Route("INT_004", "INT_005")
	require.NoError(t, err)
	assert.Equal(t, []string{"INT_004", "INT_005"}, route.IntersectionIDs)
	assert.InDelta(t, 5.3, route.LengthKm, 0.3)
}

func TestRoute_Errors(t *testing.T) {
	g := testGraph(t)

	_, err := g.Route("INT_404", "INT_001")
	assert.ErrorIs(t, err, errors.ErrIntersectionNotFound)

	_, err = g.Route("INT_001", "INT_006")
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestRoute_SameNode(t *testing.T) {
	g := testGraph(t)

	route, err := g.Route("INT_003", "INT_003")
	require.NoError(t, err)
	assert.Equal(t, []string{"INT_003"}, route.IntersectionIDs)
	assert.Zero(t, route.LengthKm)
}

func TestNew_RejectsUnknownEndpoint(t *testing.T) {
	_, err := New([]Node{{ID: "A"}}, []Link{{From: "A", To: "B"}})
	assert.True(t, errors.IsNotFound(err))
}
