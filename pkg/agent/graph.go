package agent

import "github.com/randalmurphal/toolgraph/pkg/flowgraph"

// BuildGraph wires the reasoning steps:
//
//	analyze -> choose_tool -?-> invoke_weather    -> compose_answer -> END
//	                       -?-> invoke_calculator -> compose_answer
//	                       -?-> direct_answer     -> END
func BuildGraph(n *Nodes) (*flowgraph.CompiledGraph[Step, State], error) {
	return flowgraph.NewGraph[Step, State]().
		AddNode(StepAnalyze, n.Analyze).
		AddNode(StepChooseTool, n.ChooseTool).
		AddNode(StepInvokeWeather, n.InvokeWeather).
		AddNode(StepInvokeCalculator, n.InvokeCalculator).
		AddNode(StepDirectAnswer, n.DirectAnswer).
		AddNode(StepComposeAnswer, n.ComposeAnswer).
		SetEntry(StepAnalyze).
		AddEdge(StepAnalyze, StepChooseTool).
		AddConditionalEdge(StepChooseTool, Route, RouteTargets...).
		AddEdge(StepInvokeWeather, StepComposeAnswer).
		AddEdge(StepInvokeCalculator, StepComposeAnswer).
		AddEdge(StepDirectAnswer, flowgraph.END).
		AddEdge(StepComposeAnswer, flowgraph.END).
		SetFallback(Fallback).
		Compile()
}
