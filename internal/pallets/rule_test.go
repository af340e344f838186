package pallets

import (
	"encoding/json"
	"testing"

	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
)

func TestParseRuleNilPayloads(t *testing.T) {
	t.Parallel()

	for _, raw := range []json.RawMessage{nil, json.RawMessage(""), json.RawMessage("null")} {
		rule, err := ParseRule(raw)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		if rule != nil {
			t.Fatalf("expected nil rule for %q, got %+v", raw, rule)
		}
	}
}

func TestParseRuleRejectsUnknownType(t *testing.T) {
	t.Parallel()

	_, err := ParseRule(json.RawMessage(`{"type":"weight_gte","value":100}`))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseRuleRejectsEmptyComposite(t *testing.T) {
	t.Parallel()

	_, err := ParseRule(json.RawMessage(`{"type":"and","rules":[]}`))
	if err == nil {
		t.Fatal("expected error for empty composite rule")
	}
}

func TestEvaluateLeaves(t *testing.T) {
	t.Parallel()

	bottles := Rule{Type: RuleBottlesGTE, Value: 720}
	if bottles.Evaluate(RuleStats{Bottles: 719}) {
		t.Fatal("719 bottles must not satisfy a 720 threshold")
	}
	if !bottles.Evaluate(RuleStats{Bottles: 720}) {
		t.Fatal("720 bottles must satisfy a 720 threshold")
	}

	profit := Rule{Type: RuleProfitGTE, Value: 500_000}
	if profit.Evaluate(RuleStats{ProfitCentsExVAT: 499_999}) {
		t.Fatal("profit below threshold must not satisfy the rule")
	}
	if !profit.Evaluate(RuleStats{ProfitCentsExVAT: 500_000}) {
		t.Fatal("profit at threshold must satisfy the rule")
	}
}

func TestEvaluateComposite(t *testing.T) {
	t.Parallel()

	raw := json.RawMessage(`{
		"type": "or",
		"rules": [
			{"type": "bottles_gte", "value": 720},
			{
				"type": "and",
				"rules": [
					{"type": "bottles_gte", "value": 600},
					{"type": "profit_gte", "value": 400000}
				]
			}
		]
	}`)
	rule, err := ParseRule(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		stats RuleStats
		want  bool
	}{
		{RuleStats{Bottles: 720}, true},
		{RuleStats{Bottles: 600, ProfitCentsExVAT: 400_000}, true},
		{RuleStats{Bottles: 600, ProfitCentsExVAT: 399_999}, false},
		{RuleStats{Bottles: 599, ProfitCentsExVAT: 999_999}, false},
	}
	for i, tc := range cases {
		if got := rule.Evaluate(tc.stats); got != tc.want {
			t.Fatalf("case %d: Evaluate(%+v) = %v, want %v", i, tc.stats, got, tc.want)
		}
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	t.Parallel()

	rule := Rule{Type: RuleBottlesGTE, Value: 12}
	stats := RuleStats{Bottles: 12}
	first := rule.Evaluate(stats)
	for i := 0; i < 5; i++ {
		if rule.Evaluate(stats) != first {
			t.Fatal("evaluation must be stable for unchanged stats")
		}
	}
}
