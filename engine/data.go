package engine

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Jeffail/gabs/v2"
	"github.com/expr-lang/expr"
)

func (e *Executor) doVariableSet(p *VariableSetParams, store *Store) error {
	value, err := e.resolveValue(p.Value, p.ValueType, store)
	if err != nil {
		return fmt.Errorf("variable %q: %w", p.VariableName, err)
	}
	store.Set(p.VariableName, value)
	e.l.Debug("variable set", "name", p.VariableName, "type", p.ValueType)
	return nil
}

// resolveValue applies the value_type conversion rules. Raw text always
// goes through ${} substitution first.
func (e *Executor) resolveValue(raw any, valueType string, store *Store) (any, error) {
	text := store.Expand(FormatValue(raw))
	switch valueType {
	case ValueString:
		return text, nil
	case ValueNumber:
		return ParseNumber(text)
	case ValueBoolean:
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "true", "yes", "y", "1":
			return true, nil
		default:
			return false, nil
		}
	case ValueExpression:
		result, err := expr.Eval(text, store.All())
		if err != nil {
			return nil, fmt.Errorf("expression %q: %w", text, err)
		}
		return result, nil
	case ValueJSON:
		parsed, err := gabs.ParseJSON([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("json value: %w", err)
		}
		return parsed.Data(), nil
	default:
		return nil, fmt.Errorf("unknown value type %q", valueType)
	}
}

func (e *Executor) doVariableIncrement(p *VariableIncrementParams, store *Store) error {
	current, ok := store.Get(p.VariableName)
	if !ok {
		current = 0
	}
	f, ok := toFloat(current)
	if !ok {
		return fmt.Errorf("variable %q holds non-numeric value %v", p.VariableName, current)
	}
	store.Set(p.VariableName, demote(f+p.IncrementBy))
	return nil
}

func (e *Executor) doStringOp(p *StringOpParams, store *Store) error {
	inputs := make([]string, 0, len(p.InputVariables))
	for _, name := range p.InputVariables {
		v, ok := store.Get(name)
		if !ok {
			return fmt.Errorf("input variable %q is not set", name)
		}
		inputs = append(inputs, FormatValue(v))
	}

	var result any
	switch p.Operation {
	case "concat":
		result = strings.Join(inputs, "")
	case "substring":
		if len(inputs) == 0 {
			return fmt.Errorf("substring requires an input variable")
		}
		// Indices count characters, not bytes.
		runes := []rune(inputs[0])
		start := paramInt(p.Parameters, "start", 0)
		end := paramInt(p.Parameters, "end", len(runes))
		if start < 0 || end > len(runes) || start > end {
			return fmt.Errorf("substring bounds [%d:%d] out of range for length %d", start, end, len(runes))
		}
		result = string(runes[start:end])
	case "replace":
		if len(inputs) == 0 {
			return fmt.Errorf("replace requires an input variable")
		}
		old := paramString(p.Parameters, "old")
		if old == "" {
			return fmt.Errorf("replace requires a non-empty old value")
		}
		result = strings.ReplaceAll(inputs[0], old, paramString(p.Parameters, "new"))
	case "length":
		if len(inputs) == 0 {
			return fmt.Errorf("length requires an input variable")
		}
		result = utf8.RuneCountInString(inputs[0])
	case "split":
		if len(inputs) == 0 {
			return fmt.Errorf("split requires an input variable")
		}
		delim := paramString(p.Parameters, "delimiter")
		if delim == "" {
			delim = ","
		}
		parts := strings.Split(inputs[0], delim)
		out := make([]any, len(parts))
		for i, part := range parts {
			out[i] = part
		}
		result = out
	case "trim":
		if len(inputs) == 0 {
			return fmt.Errorf("trim requires an input variable")
		}
		result = strings.TrimSpace(inputs[0])
	default:
		return fmt.Errorf("unknown string operation %q", p.Operation)
	}

	store.Set(p.OutputVariable, result)
	return nil
}

func (e *Executor) doListOp(p *ListOpParams, store *Store) error {
	getList := func() ([]any, error) {
		raw, ok := store.Get(p.ListVariable)
		if !ok {
			return nil, fmt.Errorf("list variable %q is not set", p.ListVariable)
		}
		return toList(raw)
	}

	switch p.Operation {
	case "create":
		store.Set(p.ListVariable, []any{})
	case "append":
		list, err := getList()
		if err != nil {
			return err
		}
		store.Set(p.ListVariable, append(list, expandAny(p.InputValue, store)))
	case "get":
		list, err := getList()
		if err != nil {
			return err
		}
		if p.Index < 0 || p.Index >= len(list) {
			return fmt.Errorf("index %d out of range for list of length %d", p.Index, len(list))
		}
		if p.OutputVariable == "" {
			return fmt.Errorf("get requires an output variable")
		}
		store.Set(p.OutputVariable, list[p.Index])
	case "length":
		list, err := getList()
		if err != nil {
			return err
		}
		if p.OutputVariable == "" {
			return fmt.Errorf("length requires an output variable")
		}
		store.Set(p.OutputVariable, len(list))
	case "clear":
		if _, err := getList(); err != nil {
			return err
		}
		store.Set(p.ListVariable, []any{})
	default:
		return fmt.Errorf("unknown list operation %q", p.Operation)
	}
	return nil
}

func (e *Executor) doDictOp(p *DictOpParams, store *Store) error {
	getDict := func() (map[string]any, error) {
		raw, ok := store.Get(p.DictVariable)
		if !ok {
			return nil, fmt.Errorf("dict variable %q is not set", p.DictVariable)
		}
		dict, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("variable %q holds %T, not a dict", p.DictVariable, raw)
		}
		return dict, nil
	}
	key := store.Expand(p.Key)

	switch p.Operation {
	case "create":
		store.Set(p.DictVariable, map[string]any{})
	case "set":
		dict, err := getDict()
		if err != nil {
			return err
		}
		if key == "" {
			return fmt.Errorf("set requires a key")
		}
		dict[key] = expandAny(p.Value, store)
	case "get":
		dict, err := getDict()
		if err != nil {
			return err
		}
		v, ok := dict[key]
		if !ok {
			return fmt.Errorf("key %q not found in %q", key, p.DictVariable)
		}
		if p.OutputVariable == "" {
			return fmt.Errorf("get requires an output variable")
		}
		store.Set(p.OutputVariable, v)
	case "delete":
		dict, err := getDict()
		if err != nil {
			return err
		}
		if _, ok := dict[key]; !ok {
			return fmt.Errorf("key %q not found in %q", key, p.DictVariable)
		}
		delete(dict, key)
	case "keys", "values", "items":
		dict, err := getDict()
		if err != nil {
			return err
		}
		if p.OutputVariable == "" {
			return fmt.Errorf("%s requires an output variable", p.Operation)
		}
		store.Set(p.OutputVariable, dictProjection(dict, p.Operation))
	case "length":
		dict, err := getDict()
		if err != nil {
			return err
		}
		if p.OutputVariable == "" {
			return fmt.Errorf("length requires an output variable")
		}
		store.Set(p.OutputVariable, len(dict))
	case "clear":
		if _, err := getDict(); err != nil {
			return err
		}
		store.Set(p.DictVariable, map[string]any{})
	default:
		return fmt.Errorf("unknown dict operation %q", p.Operation)
	}
	return nil
}

// dictProjection renders keys/values/items in sorted-key order so outputs
// are stable across runs.
func dictProjection(dict map[string]any, op string) []any {
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		switch op {
		case "keys":
			out = append(out, k)
		case "values":
			out = append(out, dict[k])
		case "items":
			out = append(out, []any{k, dict[k]})
		}
	}
	return out
}

func (e *Executor) doMathOp(p *MathOpParams, store *Store) error {
	operands := make([]float64, 0, len(p.Operands))
	for i, raw := range p.Operands {
		f, err := resolveNumber(raw, store)
		if err != nil {
			return fmt.Errorf("operand %d: %w", i, err)
		}
		operands = append(operands, f)
	}

	need := func(n int) error {
		if len(operands) < n {
			return fmt.Errorf("%s requires at least %d operands, got %d", p.Operation, n, len(operands))
		}
		return nil
	}

	var result float64
	switch p.Operation {
	case "add":
		if err := need(1); err != nil {
			return err
		}
		for _, f := range operands {
			result += f
		}
	case "subtract":
		if err := need(2); err != nil {
			return err
		}
		result = operands[0]
		for _, f := range operands[1:] {
			result -= f
		}
	case "multiply":
		if err := need(1); err != nil {
			return err
		}
		result = 1
		for _, f := range operands {
			result *= f
		}
	case "divide":
		if err := need(2); err != nil {
			return err
		}
		result = operands[0]
		for _, f := range operands[1:] {
			if f == 0 {
				return fmt.Errorf("division by zero")
			}
			result /= f
		}
	case "modulo":
		if err := need(2); err != nil {
			return err
		}
		if operands[1] == 0 {
			return fmt.Errorf("modulo by zero")
		}
		result = math.Mod(operands[0], operands[1])
	case "power":
		if err := need(2); err != nil {
			return err
		}
		result = math.Pow(operands[0], operands[1])
	case "abs":
		if err := need(1); err != nil {
			return err
		}
		result = math.Abs(operands[0])
	case "round":
		if err := need(1); err != nil {
			return err
		}
		result = math.Round(operands[0])
	case "floor":
		if err := need(1); err != nil {
			return err
		}
		result = math.Floor(operands[0])
	case "ceil":
		if err := need(1); err != nil {
			return err
		}
		result = math.Ceil(operands[0])
	case "min":
		if err := need(1); err != nil {
			return err
		}
		result = operands[0]
		for _, f := range operands[1:] {
			result = math.Min(result, f)
		}
	case "max":
		if err := need(1); err != nil {
			return err
		}
		result = operands[0]
		for _, f := range operands[1:] {
			result = math.Max(result, f)
		}
	default:
		return fmt.Errorf("unknown math operation %q", p.Operation)
	}

	store.Set(p.OutputVariable, demote(result))
	return nil
}

func (e *Executor) doRandomValue(p *RandomValueParams, store *Store) error {
	var result any
	switch p.ValueType {
	case "int":
		lo, hi := int(p.MinValue), int(p.MaxValue)
		result = lo + rand.Intn(hi-lo+1)
	case "float":
		result = p.MinValue + rand.Float64()*(p.MaxValue-p.MinValue)
	case "choice":
		result = store.Expand(p.Choices[rand.Intn(len(p.Choices))])
	default:
		return fmt.Errorf("unknown random value type %q", p.ValueType)
	}
	store.Set(p.OutputVariable, result)
	return nil
}

// expandAny substitutes ${} tokens in string values; everything else
// passes through untouched.
func expandAny(v any, store *Store) any {
	if s, ok := v.(string); ok {
		return store.Expand(s)
	}
	return v
}

// resolveNumber turns a raw operand into a float: numeric values directly,
// strings after substitution.
func resolveNumber(raw any, store *Store) (float64, error) {
	if s, ok := raw.(string); ok {
		raw = store.Expand(s)
	}
	f, ok := toFloat(raw)
	if !ok {
		return 0, fmt.Errorf("%v is not a number", raw)
	}
	return f, nil
}

// demote returns an int when the float has no fractional part, keeping the
// engine's number semantic.
func demote(f float64) any {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return f
}

func paramString(params map[string]any, key string) string {
	if v, ok := params[key]; ok {
		return FormatValue(v)
	}
	return ""
}

func paramInt(params map[string]any, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	if f, ok := toFloat(v); ok {
		return int(f)
	}
	return fallback
}
