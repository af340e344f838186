package pallets

import (
	"encoding/json"

	pkgerrors "github.com/pactwine/pact-backend/pkg/errors"
)

// Completion rule node types. Rules are stored as jsonb on the pallet
// and interpreted recursively; evaluation is pure, so re-running it on
// the same fill always yields the same answer.
const (
	RuleBottlesGTE = "bottles_gte"
	RuleProfitGTE  = "profit_gte"
	RuleAnd        = "and"
	RuleOr         = "or"
)

// Rule is one node of a pallet completion rule tree. Value carries the
// threshold for leaf nodes; Rules carries the children of and/or nodes.
type Rule struct {
	Type  string `json:"type"`
	Value int64  `json:"value,omitempty"`
	Rules []Rule `json:"rules,omitempty"`
}

// RuleStats is the aggregated pallet state a rule is evaluated against.
type RuleStats struct {
	Bottles          int
	ProfitCentsExVAT int64
}

// DefaultRule is the completion rule applied when a pallet carries none:
// full when the bottle capacity is reached.
func DefaultRule(bottleCapacity int) Rule {
	return Rule{Type: RuleBottlesGTE, Value: int64(bottleCapacity)}
}

// ParseRule decodes a stored completion rule. Empty and null payloads
// yield a nil rule so the caller can fall back to the capacity default.
// A rule containing an unrecognized node type is rejected rather than
// silently mis-evaluated.
func ParseRule(raw json.RawMessage) (*Rule, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var rule Rule
	if err := json.Unmarshal(raw, &rule); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode completion rule")
	}
	if err := rule.validate(); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r Rule) validate() error {
	switch r.Type {
	case RuleBottlesGTE, RuleProfitGTE:
		if r.Value < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "completion rule threshold must not be negative")
		}
		return nil
	case RuleAnd, RuleOr:
		if len(r.Rules) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "composite completion rule needs at least one child")
		}
		for _, child := range r.Rules {
			if err := child.validate(); err != nil {
				return err
			}
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown completion rule type").WithDetails(map[string]any{
			"type": r.Type,
		})
	}
}

// Evaluate reports whether the stats satisfy the rule. Unknown node
// types evaluate to false; ParseRule rejects them up front, so hitting
// one here means the rule bypassed validation.
func (r Rule) Evaluate(stats RuleStats) bool {
	switch r.Type {
	case RuleBottlesGTE:
		return int64(stats.Bottles) >= r.Value
	case RuleProfitGTE:
		return stats.ProfitCentsExVAT >= r.Value
	case RuleAnd:
		for _, child := range r.Rules {
			if !child.Evaluate(stats) {
				return false
			}
		}
		return len(r.Rules) > 0
	case RuleOr:
		for _, child := range r.Rules {
			if child.Evaluate(stats) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
