package agent

import (
	"strings"
)

// Version is the schema version stamped on every State.
const Version = 1

// State is the record threaded through the graph for one question. Nodes
// return partial States holding only the fields they produce.
type State struct {
	Version      int           `json:"version,omitempty"`
	Question     Opt[string]   `json:"question,omitzero"`
	Thoughts     Opt[string]   `json:"thoughts,omitzero"`
	ToolName     Opt[ToolName] `json:"tool_name,omitzero"`
	ToolInput    Opt[string]   `json:"tool_input,omitzero"`
	Observation  Opt[string]   `json:"observation,omitzero"`
	Answer       Opt[string]   `json:"answer,omitzero"`
	Error        Opt[bool]     `json:"error,omitzero"`
	ErrorMessage Opt[string]   `json:"error_message,omitzero"`
}

// NewState starts a run for question.
func NewState(question string) State {
	return State{Version: Version, Question: Some(question)}
}

// Merge overwrites every field set in u. Unset fields keep their value.
func (s State) Merge(u State) State {
	if u.Version != 0 {
		s.Version = u.Version
	}
	s.Question = s.Question.overlay(u.Question)
	s.Thoughts = s.Thoughts.overlay(u.Thoughts)
	s.ToolName = s.ToolName.overlay(u.ToolName)
	s.ToolInput = s.ToolInput.overlay(u.ToolInput)
	s.Observation = s.Observation.overlay(u.Observation)
	s.Answer = s.Answer.overlay(u.Answer)
	s.Error = s.Error.overlay(u.Error)
	s.ErrorMessage = s.ErrorMessage.overlay(u.ErrorMessage)
	return s
}

// Failed reports whether the fallback policy has marked the run.
func (s State) Failed() bool {
	return s.Error.Or(false)
}

// ToolName is the closed set of tools the agent can choose.
type ToolName string

const (
	ToolWeather      ToolName = "weather"
	ToolCalculator   ToolName = "calculator"
	ToolDirectAnswer ToolName = "direct_answer"
)

// ToolNames lists the choices offered to the model.
var ToolNames = []ToolName{ToolWeather, ToolCalculator, ToolDirectAnswer}

var toolAliases = map[string]ToolName{
	"weather":         ToolWeather,
	"weather_lookup":  ToolWeather,
	"recherche_météo": ToolWeather,
	"recherche_meteo": ToolWeather,
	"météo":           ToolWeather,
	"meteo":           ToolWeather,
	"calculator":      ToolCalculator,
	"calculatrice":    ToolCalculator,
	"calc":            ToolCalculator,
	"direct_answer":   ToolDirectAnswer,
	"direct":          ToolDirectAnswer,
	"réponse_directe": ToolDirectAnswer,
	"reponse_directe": ToolDirectAnswer,
}

// ParseToolName normalizes free-form model output to a ToolName. Output
// outside the enumeration becomes ToolDirectAnswer.
func ParseToolName(raw string) ToolName {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, "`'\"*_ \t\n")
	s = strings.TrimRight(s, ".!:;,")
	s = strings.Trim(s, "`'\"*_ ")
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '\t'
	}), "_")

	if name, ok := toolAliases[s]; ok {
		return name
	}
	return ToolDirectAnswer
}

// Step identifies a node of the agent graph.
type Step string

const (
	StepAnalyze          Step = "analyze"
	StepChooseTool       Step = "choose_tool"
	StepInvokeWeather    Step = "invoke_weather"
	StepInvokeCalculator Step = "invoke_calculator"
	StepDirectAnswer     Step = "direct_answer"
	StepComposeAnswer    Step = "compose_answer"
)
