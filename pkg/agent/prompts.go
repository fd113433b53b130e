package agent

import "github.com/randalmurphal/toolgraph/pkg/flowgraph/llm"

var (
	analyzePrompt = llm.NewPrompt("analyze",
		"Question: {question}\nThink the problem through.")

	choosePrompt = llm.NewPrompt("choose_tool",
		"Question: {question}\nThoughts: {thoughts}\n"+
			"Choose the most appropriate tool among: {tools}. "+
			"Reply only with the tool name.")

	extractCityPrompt = llm.NewPrompt("extract_city",
		"Extract the city name from the question. Reply only with the city name.\n"+
			"Question: {question}")

	extractExpressionPrompt = llm.NewPrompt("extract_expression",
		"Extract the arithmetic expression from the question. Reply only with the "+
			"expression, using digits and the operators + - * / % and parentheses.\n"+
			"Question: {question}")

	directPrompt = llm.NewPrompt("direct_answer",
		"Question: {question}\nThoughts: {thoughts}\n"+
			"Give a direct answer without using any tools.")

	composePrompt = llm.NewPrompt("compose_answer",
		"Question: {question}\nThoughts: {thoughts}\n"+
			"Observation: {observation}\n"+
			"Write a complete and clear answer.")
)
