package agent

import "github.com/randalmurphal/toolgraph/pkg/flowgraph"

// RouteTargets are the steps Route may return.
var RouteTargets = []Step{StepInvokeWeather, StepInvokeCalculator, StepDirectAnswer}

// Route picks the step after choose_tool. A failed run always answers
// directly.
func Route(_ flowgraph.Context, s State) Step {
	if s.Failed() {
		return StepDirectAnswer
	}

	tool, _ := s.ToolName.Get()
	switch tool {
	case ToolWeather:
		return StepInvokeWeather
	case ToolCalculator:
		return StepInvokeCalculator
	case ToolDirectAnswer:
		return StepDirectAnswer
	default:
		return StepDirectAnswer
	}
}
