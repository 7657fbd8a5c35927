package statement

import (
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/opinionmap/opinionmap/internal/domain"
)

// Rule is an optional boolean expression narrowing the active set further.
// Expressions see the parameters mod (number), is_meta (bool) and tid (number),
// e.g. "!is_meta" or "tid < 100 && mod >= 0".
type Rule struct {
	source string
	expr   *govaluate.EvaluableExpression
}

// ErrInvalidRule is returned when a rule fails to parse or evaluate to a boolean.
var ErrInvalidRule = fmt.Errorf("%w: invalid statement rule", domain.ErrConfiguration)

// NewRule compiles an expression. An empty expression yields a nil rule that
// matches everything.
func NewRule(expression string) (*Rule, error) {
	src := strings.TrimSpace(expression)
	if src == "" {
		return nil, nil
	}
	expr, err := govaluate.NewEvaluableExpression(src)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidRule, src, err)
	}
	return &Rule{source: src, expr: expr}, nil
}

// String returns the expression source.
func (r *Rule) String() string {
	if r == nil {
		return ""
	}
	return r.source
}

// Match evaluates the rule against a statement. A nil rule matches.
func (r *Rule) Match(s Statement) (bool, error) {
	if r == nil {
		return true, nil
	}
	params := map[string]interface{}{
		"mod":     float64(s.Moderation),
		"is_meta": s.IsMeta,
		"tid":     float64(s.ID),
	}
	result, err := r.expr.Evaluate(params)
	if err != nil {
		return false, fmt.Errorf("%w %q on statement %d: %v", ErrInvalidRule, r.source, s.ID, err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("%w %q: did not evaluate to boolean", ErrInvalidRule, r.source)
	}
	return b, nil
}

// Select computes the active set under mode and then keeps only statements
// matching rule. The result keeps the ascending order of ActiveIDs.
func Select(statements []Statement, mode Mode, rule *Rule) ([]int, error) {
	ids, err := ActiveIDs(statements, mode)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return ids, nil
	}
	byID := make(map[int]Statement, len(statements))
	for _, s := range statements {
		byID[s.ID] = s
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		ok, err := rule.Match(byID[id])
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, id)
		}
	}
	return out, nil
}
