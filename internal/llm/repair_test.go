package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/replypilot/internal/retry"
)

func TestRepairJSON_ValidPassesThrough(t *testing.T) {
	valid := `{"template": "YES_SEND", "signals": ["explicit_yes"]}`

	repaired, stats, err := RepairJSON(valid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.WasRepaired {
		t.Error("valid JSON flagged as repaired")
	}
	if repaired != valid {
		t.Error("valid JSON was modified")
	}
}

func TestRepairJSON_TrailingCommas(t *testing.T) {
	malformed := `{"template": "YES_SEND", "signals": ["explicit_yes",],}`

	repaired, stats, err := RepairJSON(malformed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stats.WasRepaired {
		t.Error("expected repair")
	}
	var probe map[string]interface{}
	if json.Unmarshal([]byte(repaired), &probe) != nil {
		t.Errorf("repaired JSON still invalid: %s", repaired)
	}
}

func TestRepairJSON_IncompleteObject(t *testing.T) {
	malformed := `{"template": "ASK_AGREEMENT", "signals": ["send_agreement"`

	repaired, _, err := RepairJSON(malformed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var probe map[string]interface{}
	if json.Unmarshal([]byte(repaired), &probe) != nil {
		t.Errorf("repaired JSON still invalid: %s", repaired)
	}
}

func TestRepairJSON_UnquotedKeys(t *testing.T) {
	malformed := `{template: "YES_SEND", signals: []}`

	repaired, stats, err := RepairJSON(malformed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsStrategy(stats.RepairStrategies, "key_quotes") {
		t.Errorf("strategies = %v", stats.RepairStrategies)
	}
	var probe map[string]interface{}
	if json.Unmarshal([]byte(repaired), &probe) != nil {
		t.Errorf("repaired JSON still invalid: %s", repaired)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"pure json", `{"a": 1}`, `{"a": 1}`},
		{"code fence", "Here you go:\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
		{"embedded", `The classification is {"a": 1} as requested.`, `{"a": 1}`},
		{"no json", "I could not classify this.", ""},
	}

	for _, tc := range cases {
		if got := ExtractJSON(tc.raw); got != tc.want {
			t.Errorf("%s: ExtractJSON = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseResponse_FencedAndRepaired(t *testing.T) {
	raw := "```json\n{\"template\": \"YES_SEND\", \"signals\": [\"explicit_yes\",]}\n```"

	var target struct {
		Template string   `json:"template"`
		Signals  []string `json:"signals"`
	}
	result, err := ParseResponse(raw, &target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || target.Template != "YES_SEND" || len(target.Signals) != 1 {
		t.Errorf("parse result: %+v target: %+v", result, target)
	}
}

type fakeGenerator struct {
	failures int
	calls    int
	output   string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("service unavailable")
	}
	return f.output, nil
}

func TestResilientClient_RetriesTransientFailures(t *testing.T) {
	gen := &fakeGenerator{failures: 2, output: `{"template": "YES_SEND"}`}
	rc := NewResilientClient(gen, retry.Config{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
	})

	resp := rc.Generate(context.Background(), Request{Prompt: "classify this"})
	if !resp.Success {
		t.Fatalf("expected success: %+v", resp)
	}
	if resp.AttemptsMade != 3 {
		t.Errorf("attempts = %d, want 3", resp.AttemptsMade)
	}
	if resp.Raw != gen.output {
		t.Errorf("raw = %q", resp.Raw)
	}
}

func containsStrategy(strategies []string, want string) bool {
	for _, s := range strategies {
		if s == want {
			return true
		}
	}
	return false
}
