package jsonx_test

import (
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/recallos/pkg/utils/jsonx"
)

func TestExtractJSONFence(t *testing.T) {
	input := "Here is the plan you asked for:\n```json\n{\"task_type\": \"query\"}\n```\nLet me know if you need anything else."
	gt.Equal(t, jsonx.Extract(input), `{"task_type": "query"}`)
}

func TestExtractGenericFence(t *testing.T) {
	input := "```\n{\"search_depth\": 5}\n```"
	gt.Equal(t, jsonx.Extract(input), `{"search_depth": 5}`)
}

func TestExtractBareJSON(t *testing.T) {
	input := "  {\"primary_agent\": \"memory_agent\"}\n"
	gt.Equal(t, jsonx.Extract(input), `{"primary_agent": "memory_agent"}`)
}

func TestExtractPrefersJSONFence(t *testing.T) {
	input := "```\nnot json\n```\nand then\n```json\n{\"ok\": true}\n```"
	gt.Equal(t, jsonx.Extract(input), `{"ok": true}`)
}

func TestExtractUnclosedFenceFallsBack(t *testing.T) {
	input := "```json\n{\"ok\": true}"

	// An unclosed fence is not a fence; the whole body is returned and
	// the caller's json.Unmarshal decides whether it is usable.
	got := jsonx.Extract(input)
	gt.Equal(t, got, input)
}

func TestExtractedBodyParses(t *testing.T) {
	input := "The answer:\n```json\n{\n  \"task_type\": \"insight\",\n  \"agents_required\": [\"insights_agent\"]\n}\n```"

	var parsed struct {
		TaskType string   `json:"task_type"`
		Agents   []string `json:"agents_required"`
	}
	gt.NoError(t, json.Unmarshal([]byte(jsonx.Extract(input)), &parsed))
	gt.Equal(t, parsed.TaskType, "insight")
	gt.A(t, parsed.Agents).Length(1)
	gt.Equal(t, parsed.Agents[0], "insights_agent")
}
