package flowgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddNode_Panics(t *testing.T) {
	tests := []struct {
		name string
		id   nodeID
		fn   NodeFunc[trail]
		msg  string
	}{
		{"empty id", "", visit("x"), "flowgraph: node ID cannot be empty"},
		{"reserved END", "END", visit("x"), "flowgraph: node ID cannot be reserved word 'END'"},
		{"reserved lower end", "end", visit("x"), "flowgraph: node ID cannot be reserved word 'END'"},
		{"reserved __end__", END, visit("x"), "flowgraph: node ID cannot be reserved word 'END'"},
		{"whitespace", "a b", visit("x"), "flowgraph: node ID cannot contain whitespace"},
		{"tab", "a\tb", visit("x"), "flowgraph: node ID cannot contain whitespace"},
		{"nil fn", "a", nil, "flowgraph: node function cannot be nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PanicsWithValue(t, tt.msg, func() {
				NewGraph[nodeID, trail]().AddNode(tt.id, tt.fn)
			})
		})
	}
}

func TestAddNode_Duplicate(t *testing.T) {
	g := NewGraph[nodeID, trail]().AddNode("a", visit("a"))
	assert.PanicsWithValue(t, "flowgraph: duplicate node ID: a", func() {
		g.AddNode("a", visit("a"))
	})
}

func TestAddConditionalEdge_NilRouter(t *testing.T) {
	assert.PanicsWithValue(t, "flowgraph: router function cannot be nil", func() {
		NewGraph[nodeID, trail]().AddConditionalEdge("a", nil, "b")
	})
}

func TestGraph_Chaining(t *testing.T) {
	g := NewGraph[nodeID, trail]()
	assert.Same(t, g, g.AddNode("a", visit("a")))
	assert.Same(t, g, g.AddEdge("a", END))
	assert.Same(t, g, g.AddConditionalEdge("a", routeTo(END), END))
	assert.Same(t, g, g.SetEntry("a"))
	assert.Same(t, g, g.SetFallback(degrade))
}

func TestCompiledGraph_Introspection(t *testing.T) {
	compiled, err := NewGraph[nodeID, trail]().
		AddNode("analyze", visit("analyze")).
		AddNode("choose", visit("choose")).
		AddNode("weather", visit("weather")).
		AddNode("direct", visit("direct")).
		AddNode("compose", visit("compose")).
		AddEdge("analyze", "choose").
		AddConditionalEdge("choose", routeTo("direct"), "weather", "direct").
		AddEdge("weather", "compose").
		AddEdge("direct", END).
		AddEdge("compose", END).
		SetEntry("analyze").
		Compile()
	assert.NoError(t, err)

	assert.Equal(t, nodeID("analyze"), compiled.EntryPoint())
	assert.Equal(t, []nodeID{"analyze", "choose", "weather", "direct", "compose"}, compiled.NodeIDs())
	assert.True(t, compiled.HasNode("weather"))
	assert.False(t, compiled.HasNode("missing"))

	assert.Equal(t, []nodeID{"choose"}, compiled.Successors("analyze"))
	assert.Nil(t, compiled.Successors("choose"))
	assert.Nil(t, compiled.Successors(END))
	assert.Equal(t, []nodeID{"weather", "direct"}, compiled.Targets("choose"))
	assert.Nil(t, compiled.Targets("analyze"))
	assert.True(t, compiled.IsConditional("choose"))
	assert.False(t, compiled.IsConditional("analyze"))
	assert.Equal(t, []nodeID{"choose"}, compiled.Predecessors("weather"))
	assert.Empty(t, compiled.Predecessors("analyze"))

	assert.Equal(t, []Edge[nodeID]{
		{From: "analyze", To: "choose"},
		{From: "choose", To: "weather", Conditional: true},
		{From: "choose", To: "direct", Conditional: true},
		{From: "weather", To: "compose"},
		{From: "direct", To: END},
		{From: "compose", To: END},
	}, compiled.Edges())
}

func TestCompiledGraph_NodeIDsIsACopy(t *testing.T) {
	compiled, err := NewGraph[nodeID, trail]().
		AddNode("a", visit("a")).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	assert.NoError(t, err)

	ids := compiled.NodeIDs()
	ids[0] = "mutated"
	assert.Equal(t, []nodeID{"a"}, compiled.NodeIDs())
}
