package engine

import (
	"log/slog"
	"testing"
)

func testEvaluator() (*ConditionEvaluator, *Store) {
	rec := NewRecorder(slog.LevelDebug)
	return NewConditionEvaluator(rec.Logger()), NewStore()
}

func TestEvalComparisons(t *testing.T) {
	eval, store := testEvaluator()
	store.Set("count", 5)
	store.Set("name", "alice")
	store.Set("ratio", 2.5)

	tests := []struct {
		condition string
		want      bool
	}{
		{"${count} == 5", true},
		{"${count} == '5'", true}, // numeric coercion
		{"${count} != 4", true},
		{"${count} > 4", true},
		{"${count} >= 5", true},
		{"${count} < 4", false},
		{"${count} <= 5", true},
		{"${ratio} > 2", true},
		{"${name} == 'alice'", true},
		{"${name} != 'bob'", true},
		{"${name} == 'bob'", false},
	}
	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			if got := eval.Eval(tt.condition, store); got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.condition, got, tt.want)
			}
		})
	}
}

func TestEvalBooleanCombinators(t *testing.T) {
	eval, store := testEvaluator()
	store.Set("a", 1)
	store.Set("flag", true)
	store.Set("off", false)

	tests := []struct {
		condition string
		want      bool
	}{
		{"true and flag", true},
		{"true and off", false},
		{"false or flag", true},
		{"false or off", false},
		{"TRUE AND flag", true}, // combinators are case-insensitive
		{"false Or flag", true},
		// Comparison operators split before connectives, so a connective to
		// the right of "==" is swallowed into the operand and the comparison
		// is false. The grammar has no precedence beyond first-match order.
		{"${a} == 1 and flag", false},
		{"${a} == 9 or flag", false},
	}
	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			if got := eval.Eval(tt.condition, store); got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.condition, got, tt.want)
			}
		})
	}
}

func TestEvalLiteralsAndTruthiness(t *testing.T) {
	eval, store := testEvaluator()
	store.Set("flag", true)
	store.Set("empty", "")
	store.Set("zero", 0)
	store.Set("items", []any{1})
	store.Set("names", []string{"a"})
	store.Set("nobody", []string{})

	tests := []struct {
		condition string
		want      bool
	}{
		{"true", true},
		{"False", false},
		{"flag", true},
		{"empty", false},
		{"zero", false},
		{"items", true},
		{"names", true},
		{"nobody", false},
		{"no_such_variable", false},
		{"complete gibberish here", false},
	}
	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			if got := eval.Eval(tt.condition, store); got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.condition, got, tt.want)
			}
		})
	}
}

func TestEvalUnknownFormatLogsWarning(t *testing.T) {
	rec := NewRecorder(slog.LevelDebug)
	eval := NewConditionEvaluator(rec.Logger())
	if eval.Eval("???", NewStore()) {
		t.Fatal("unknown condition evaluated true")
	}
	found := false
	for _, ev := range rec.Events() {
		if ev.Message == "unknown condition format" {
			found = true
		}
	}
	if !found {
		t.Fatal("unknown condition did not log a warning")
	}
}

func TestEvalValue(t *testing.T) {
	eval, store := testEvaluator()
	store.Set("v", 1)
	store.Set("s", "text")

	if got := eval.EvalValue("${v}", store); got != 1 {
		t.Errorf("lone reference returned %v (%T), want raw stored 1", got, got)
	}
	if got := eval.EvalValue("${s}", store); got != "text" {
		t.Errorf("lone reference returned %v, want text", got)
	}
	if got := eval.EvalValue("${v}0", store); got != 10 {
		t.Errorf("substituted expression returned %v, want 10", got)
	}
	if got := eval.EvalValue("'quoted'", store); got != "quoted" {
		t.Errorf("quoted literal returned %v, want quoted", got)
	}
	if got := eval.EvalValue("${missing}", store); got != nil {
		t.Errorf("missing reference returned %v, want nil", got)
	}
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"42", 42},
		{"3.5", 3.5},
		{"true", true},
		{"FALSE", false},
		{"'42'", "42"},
		{`"hi"`, "hi"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseScalar(tt.in); got != tt.want {
				t.Errorf("ParseScalar(%q) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
			}
		})
	}
}
