package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpt(t *testing.T) {
	var unset Opt[string]
	_, ok := unset.Get()
	assert.False(t, ok)
	assert.False(t, unset.IsSet())
	assert.True(t, unset.IsZero())
	assert.Equal(t, "default", unset.Or("default"))

	set := Some("")
	v, ok := set.Get()
	assert.True(t, ok)
	assert.Equal(t, "", v)
	assert.Equal(t, "", set.Or("default"), "a set empty value is not replaced by the default")
}

func TestState_Merge(t *testing.T) {
	base := NewState("Weather in Paris?").Merge(State{
		Thoughts: Some("need weather"),
		ToolName: Some(ToolWeather),
	})

	t.Run("set fields overwrite", func(t *testing.T) {
		got := base.Merge(State{ToolName: Some(ToolCalculator), Observation: Some("Result: 4")})
		assert.Equal(t, ToolCalculator, got.ToolName.Or(""))
		assert.Equal(t, "Result: 4", got.Observation.Or(""))
	})

	t.Run("unset fields keep prior values", func(t *testing.T) {
		got := base.Merge(State{})
		assert.Equal(t, base, got)
		assert.Equal(t, "need weather", got.Thoughts.Or(""))
		assert.Equal(t, Version, got.Version)
	})

	t.Run("set zero values still overwrite", func(t *testing.T) {
		withErr := base.Merge(State{Error: Some(true)})
		got := withErr.Merge(State{Error: Some(false), ToolInput: Some("")})
		assert.False(t, got.Failed())
		assert.True(t, got.ToolInput.IsSet())
	})

	t.Run("merge does not alias", func(t *testing.T) {
		_ = base.Merge(State{Thoughts: Some("other")})
		assert.Equal(t, "need weather", base.Thoughts.Or(""))
	})
}

func TestState_JSON(t *testing.T) {
	s := NewState("15 * 32 + 48?").Merge(State{
		ToolName:  Some(ToolCalculator),
		ToolInput: Some(""),
		Error:     Some(false),
	})

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"version": 1,
		"question": "15 * 32 + 48?",
		"tool_name": "calculator",
		"tool_input": "",
		"error": false
	}`, string(data))

	var back State
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)

	var withNull State
	require.NoError(t, json.Unmarshal([]byte(`{"answer": null, "thoughts": "x"}`), &withNull))
	assert.False(t, withNull.Answer.IsSet())
	assert.Equal(t, "x", withNull.Thoughts.Or(""))
}

func TestParseToolName(t *testing.T) {
	tests := []struct {
		raw  string
		want ToolName
	}{
		{"weather", ToolWeather},
		{"  Weather\n", ToolWeather},
		{"`weather`", ToolWeather},
		{"**calculator**", ToolCalculator},
		{"Calculator.", ToolCalculator},
		{"\"direct_answer\"", ToolDirectAnswer},
		{"direct answer", ToolDirectAnswer},
		{"direct-answer", ToolDirectAnswer},
		{"recherche_météo", ToolWeather},
		{"calculatrice", ToolCalculator},
		{"réponse_directe", ToolDirectAnswer},
		{"", ToolDirectAnswer},
		{"search_web", ToolDirectAnswer},
		{"I would use the weather tool", ToolDirectAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseToolName(tt.raw))
		})
	}
}
