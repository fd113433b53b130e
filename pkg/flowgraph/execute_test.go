package flowgraph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, g *Graph[nodeID, trail]) *CompiledGraph[nodeID, trail] {
	t.Helper()
	compiled, err := g.Compile()
	require.NoError(t, err)
	return compiled
}

func TestRun_LinearFlow(t *testing.T) {
	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("a", visit("a")).
		AddNode("b", visit("b")).
		AddNode("c", visit("c")).
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", END).
		SetEntry("a"))

	result, err := compiled.Run(testCtx(), trail{})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, result.Trail)
}

func TestRun_PartialUpdatesMerge(t *testing.T) {
	var seen trail
	observe := func(_ Context, s trail) (trail, error) {
		seen = s
		return trail{Note: "observed"}, nil
	}

	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("set", setValue(41)).
		AddNode("inc", increment).
		AddNode("observe", observe).
		AddEdge("set", "inc").
		AddEdge("inc", "observe").
		AddEdge("observe", END).
		SetEntry("set"))

	result, err := compiled.Run(testCtx(), trail{Trail: []string{"start"}})

	require.NoError(t, err)
	require.NotNil(t, seen.Value)
	assert.Equal(t, 42, *seen.Value)
	assert.Equal(t, 42, *result.Value, "unset fields in later updates must not erase earlier values")
	assert.Equal(t, "observed", result.Note)
	assert.Equal(t, []string{"start"}, result.Trail)
}

func TestRun_LastWriteWins(t *testing.T) {
	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("first", setValue(1)).
		AddNode("second", setValue(2)).
		AddEdge("first", "second").
		AddEdge("second", END).
		SetEntry("first"))

	result, err := compiled.Run(testCtx(), trail{})

	require.NoError(t, err)
	assert.Equal(t, 2, *result.Value)
}

func TestRun_ConditionalRouting(t *testing.T) {
	router := func(_ Context, s trail) nodeID {
		if s.Value != nil && *s.Value > 10 {
			return "big"
		}
		return "small"
	}

	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("start", visit("start")).
		AddNode("big", visit("big")).
		AddNode("small", visit("small")).
		AddConditionalEdge("start", router, "big", "small").
		AddEdge("big", END).
		AddEdge("small", END).
		SetEntry("start"))

	tests := []struct {
		value int
		want  []string
	}{
		{value: 50, want: []string{"start", "big"}},
		{value: 5, want: []string{"start", "small"}},
	}
	for _, tt := range tests {
		result, err := compiled.Run(testCtx(), trail{Value: intPtr(tt.value)})
		require.NoError(t, err)
		assert.Equal(t, tt.want, result.Trail)
	}
}

func TestRun_RouterSeesMergedState(t *testing.T) {
	var routed *int
	router := func(_ Context, s trail) nodeID {
		routed = s.Value
		return END
	}

	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("set", setValue(7)).
		AddConditionalEdge("set", router, END).
		SetEntry("set"))

	_, err := compiled.Run(testCtx(), trail{})
	require.NoError(t, err)
	require.NotNil(t, routed)
	assert.Equal(t, 7, *routed)
}

func TestRun_RouterErrors(t *testing.T) {
	tests := []struct {
		name     string
		returned nodeID
		want     error
	}{
		{"empty result", "", ErrInvalidRouterResult},
		{"undeclared existing node", "other", ErrRouterTargetNotDeclared},
		{"unknown node", "ghost", ErrRouterTargetNotDeclared},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			after := false
			compiled := mustCompile(t, NewGraph[nodeID, trail]().
				AddNode("start", visit("start")).
				AddNode("declared", visit("declared")).
				AddNode("other", func(Context, trail) (trail, error) {
					after = true
					return trail{}, nil
				}).
				AddConditionalEdge("start", routeTo(tt.returned), "declared").
				AddEdge("declared", END).
				AddEdge("other", END).
				SetEntry("start").
				SetFallback(degrade))

			result, err := compiled.Run(testCtx(), trail{})

			var routerErr *RouterError
			require.ErrorAs(t, err, &routerErr)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, "start", routerErr.FromNode)
			assert.Equal(t, string(tt.returned), routerErr.Returned)
			assert.Equal(t, []string{"start"}, result.Trail)
			assert.False(t, after, "undeclared target must never execute")
		})
	}
}

func TestRun_RouterPanic(t *testing.T) {
	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("start", visit("start")).
		AddNode("declared", visit("declared")).
		AddConditionalEdge("start", func(Context, trail) nodeID {
			panic("router exploded")
		}, "declared").
		AddEdge("declared", END).
		SetEntry("start").
		SetFallback(degrade))

	var (
		result trail
		err    error
	)
	require.NotPanics(t, func() {
		result, err = compiled.Run(testCtx(), trail{})
	})

	var routerErr *RouterError
	require.ErrorAs(t, err, &routerErr)
	assert.ErrorIs(t, err, ErrRouterPanic)
	assert.Contains(t, err.Error(), "router exploded")
	assert.Equal(t, "start", routerErr.FromNode)
	assert.Equal(t, []string{"start"}, result.Trail)
}

func TestRun_NodeErrorWithoutFallback(t *testing.T) {
	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("a", visit("a")).
		AddNode("fail", failing(errBoom, trail{Note: "partial"})).
		AddNode("c", visit("c")).
		AddEdge("a", "fail").
		AddEdge("fail", "c").
		AddEdge("c", END).
		SetEntry("a"))

	result, err := compiled.Run(testCtx(), trail{})

	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "fail", nodeErr.NodeID)
	assert.Equal(t, "execute", nodeErr.Op)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"a"}, result.Trail)
	assert.Equal(t, "partial", result.Note)
}

func TestRun_FallbackDegradesAndContinues(t *testing.T) {
	var fallbackNode nodeID
	var fallbackErr error
	fallback := func(ctx Context, node nodeID, s trail, err error) trail {
		fallbackNode, fallbackErr = node, err
		return degrade(ctx, node, s, err)
	}
	router := func(_ Context, s trail) nodeID {
		if s.Failed {
			return "recover"
		}
		return "normal"
	}

	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("fail", failing(errBoom, trail{Trail: []string{"fail-partial"}})).
		AddNode("normal", visit("normal")).
		AddNode("recover", visit("recover")).
		AddConditionalEdge("fail", router, "normal", "recover").
		AddEdge("normal", END).
		AddEdge("recover", END).
		SetEntry("fail").
		SetFallback(fallback))

	result, err := compiled.Run(testCtx(), trail{})

	require.NoError(t, err)
	assert.Equal(t, nodeID("fail"), fallbackNode)
	var nodeErr *NodeError
	assert.ErrorAs(t, fallbackErr, &nodeErr)
	assert.True(t, result.Failed)
	assert.Equal(t, "fail: node fail: execute: boom", result.Note)
	assert.Equal(t, []string{"fail-partial", "recover"}, result.Trail)
}

func TestRun_PanicRecovery(t *testing.T) {
	t.Run("without fallback", func(t *testing.T) {
		compiled := mustCompile(t, NewGraph[nodeID, trail]().
			AddNode("a", visit("a")).
			AddNode("panic", panicking("kaboom")).
			AddEdge("a", "panic").
			AddEdge("panic", END).
			SetEntry("a"))

		result, err := compiled.Run(testCtx(), trail{})

		var panicErr *PanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, "panic", panicErr.NodeID)
		assert.Equal(t, "kaboom", panicErr.Value)
		assert.Contains(t, panicErr.Stack, "goroutine")
		assert.Equal(t, []string{"a"}, result.Trail)
	})

	t.Run("with fallback", func(t *testing.T) {
		compiled := mustCompile(t, NewGraph[nodeID, trail]().
			AddNode("panic", panicking(errors.New("kaboom"))).
			AddNode("after", visit("after")).
			AddEdge("panic", "after").
			AddEdge("after", END).
			SetEntry("panic").
			SetFallback(degrade))

		result, err := compiled.Run(testCtx(), trail{})

		require.NoError(t, err)
		assert.True(t, result.Failed)
		assert.Contains(t, result.Note, "panicked: kaboom")
		assert.Equal(t, []string{"after"}, result.Trail)
	})
}

func TestRun_MaxIterations(t *testing.T) {
	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("loop", increment).
		AddConditionalEdge("loop", routeTo("loop"), "loop", END).
		SetEntry("loop"))

	result, err := compiled.Run(testCtx(), trail{}, WithMaxIterations(5))

	var maxErr *MaxIterationsError
	require.ErrorAs(t, err, &maxErr)
	assert.ErrorIs(t, err, ErrMaxIterations)
	assert.Equal(t, 5, maxErr.Max)
	assert.Equal(t, "loop", maxErr.LastNodeID)
	assert.Equal(t, 5, *result.Value)
}

func TestRun_LoopTerminates(t *testing.T) {
	router := func(_ Context, s trail) nodeID {
		if *s.Value >= 3 {
			return END
		}
		return "loop"
	}
	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("loop", increment).
		AddConditionalEdge("loop", router, "loop", END).
		SetEntry("loop"))

	result, err := compiled.Run(testCtx(), trail{})
	require.NoError(t, err)
	assert.Equal(t, 3, *result.Value)
}

func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopper := func(Context, trail) (trail, error) {
		cancel()
		return trail{Trail: []string{"stopper"}}, nil
	}

	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("stopper", stopper).
		AddNode("next", visit("next")).
		AddEdge("stopper", "next").
		AddEdge("next", END).
		SetEntry("stopper"))

	result, err := compiled.Run(NewContext(ctx), trail{})

	var cancelErr *CancellationError
	require.ErrorAs(t, err, &cancelErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "next", cancelErr.NodeID)
	assert.Equal(t, []string{"stopper"}, result.Trail)
}

func TestRun_DeadlineExceeded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("a", visit("a")).
		AddEdge("a", END).
		SetEntry("a"))

	_, err := compiled.Run(NewContext(ctx), trail{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_NilContext(t *testing.T) {
	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("a", visit("a")).
		AddEdge("a", END).
		SetEntry("a"))

	_, err := compiled.Run(nil, trail{})
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestRun_NodeContext(t *testing.T) {
	var gotRun, gotNode string
	inspect := func(ctx Context, _ trail) (trail, error) {
		gotRun, gotNode = ctx.RunID(), ctx.NodeID()
		assert.NotNil(t, ctx.Logger())
		return trail{}, nil
	}

	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("inspect", inspect).
		AddEdge("inspect", END).
		SetEntry("inspect"))

	_, err := compiled.Run(NewContext(context.Background(), WithContextRunID("ctx-run")), trail{})
	require.NoError(t, err)
	assert.Equal(t, "ctx-run", gotRun)
	assert.Equal(t, "inspect", gotNode)

	_, err = compiled.Run(testCtx(), trail{}, WithRunID("option-run"))
	require.NoError(t, err)
	assert.Equal(t, "option-run", gotRun)
}

func TestRun_ConcurrentRunsAreIsolated(t *testing.T) {
	compiled := mustCompile(t, NewGraph[nodeID, trail]().
		AddNode("inc", increment).
		AddEdge("inc", END).
		SetEntry("inc"))

	results := make(chan int, 20)
	for i := 0; i < 20; i++ {
		go func(i int) {
			r, err := compiled.Run(testCtx(), trail{Value: intPtr(i)})
			assert.NoError(t, err)
			results <- *r.Value - i
		}(i)
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, 1, <-results)
	}
}

func TestNewContext_Defaults(t *testing.T) {
	ctx := NewContext(context.Background(), WithLogger(nil), WithContextRunID(""))
	assert.NotEmpty(t, ctx.RunID())
	assert.NotNil(t, ctx.Logger())
	assert.Empty(t, ctx.NodeID())
}
