package engine

import (
	"log/slog"
	"strconv"
	"strings"
)

// ConditionEvaluator evaluates the deliberately small condition grammar:
// ${...} substitution first, then the first literal occurrence of a
// comparison operator, then "and"/"or" (recursing on both sides), then
// boolean literals, then bare-variable truthiness. There is no operator
// precedence beyond this first-match split order; that is a documented
// limitation of the grammar, not something to fix here.
type ConditionEvaluator struct {
	l *slog.Logger
}

func NewConditionEvaluator(l *slog.Logger) *ConditionEvaluator {
	if l == nil {
		l = slog.Default()
	}
	return &ConditionEvaluator{l: l}
}

// comparison tokens in fixed priority order; first match wins.
var compareTokens = []string{" == ", " != ", " > ", " >= ", " < ", " <= "}

// Eval substitutes variables and evaluates the condition to a boolean.
// Unknown condition forms evaluate to false and are logged.
func (e *ConditionEvaluator) Eval(condition string, store *Store) bool {
	return e.eval(strings.TrimSpace(store.Expand(condition)), store)
}

func (e *ConditionEvaluator) eval(cond string, store *Store) bool {
	cond = strings.TrimSpace(cond)

	for _, tok := range compareTokens {
		if left, right, ok := splitFirst(cond, tok); ok {
			return compare(strings.TrimSpace(tok), ParseScalar(left), ParseScalar(right))
		}
	}

	if left, right, ok := splitFirstFold(cond, " and "); ok {
		return e.eval(left, store) && e.eval(right, store)
	}
	if left, right, ok := splitFirstFold(cond, " or "); ok {
		return e.eval(left, store) || e.eval(right, store)
	}

	switch strings.ToLower(cond) {
	case "true":
		return true
	case "false":
		return false
	}

	if v, ok := store.Get(cond); ok {
		return Truthy(v)
	}

	e.l.Warn("unknown condition format", "condition", cond)
	return false
}

// EvalValue evaluates a switch/case style expression to a scalar: a lone
// ${name} reference yields the bound value unchanged, anything else is
// substituted and literal-parsed.
func (e *ConditionEvaluator) EvalValue(expression string, store *Store) any {
	expression = strings.TrimSpace(expression)
	if strings.HasPrefix(expression, "${") && strings.HasSuffix(expression, "}") {
		inner := expression[2 : len(expression)-1]
		if !strings.ContainsAny(inner, "${}") {
			if v, ok := store.Get(inner); ok {
				return v
			}
			return nil
		}
	}
	return ParseScalar(store.Expand(expression))
}

func splitFirst(s, tok string) (left, right string, ok bool) {
	i := strings.Index(s, tok)
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(tok):]), true
}

func splitFirstFold(s, tok string) (left, right string, ok bool) {
	i := strings.Index(strings.ToLower(s), tok)
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(tok):]), true
}

// ParseScalar turns an operand string into a typed scalar: quoted text is a
// string literal, then integer, then float, then boolean, else raw string.
func ParseScalar(s string) any {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// compare applies a comparison operator with numeric coercion: when both
// sides look numeric they compare as floats, so 5 == "5" holds.
func compare(op string, left, right any) bool {
	if lf, lok := toFloat(left); lok {
		if rf, rok := toFloat(right); rok {
			switch op {
			case "==":
				return lf == rf
			case "!=":
				return lf != rf
			case ">":
				return lf > rf
			case ">=":
				return lf >= rf
			case "<":
				return lf < rf
			case "<=":
				return lf <= rf
			}
			return false
		}
	}

	if lb, ok := left.(bool); ok {
		if rb, ok := right.(bool); ok {
			switch op {
			case "==":
				return lb == rb
			case "!=":
				return lb != rb
			}
			return false
		}
	}

	ls, rs := FormatValue(left), FormatValue(right)
	switch op {
	case "==":
		return ls == rs
	case "!=":
		return ls != rs
	case ">":
		return ls > rs
	case ">=":
		return ls >= rs
	case "<":
		return ls < rs
	case "<=":
		return ls <= rs
	}
	return false
}

// equalValues is the switch/case match test: equality with the same numeric
// coercion the comparison operators use.
func equalValues(a, b any) bool {
	return compare("==", a, b)
}

// toFloat coerces numbers and numeric-looking strings to float64.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Truthy reports the boolean coercion used for bare-variable conditions:
// nil, false, zero, empty string/list/map are false, everything else true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	case []Match:
		return len(t) > 0
	default:
		return true
	}
}
