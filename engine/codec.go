package engine

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// The persisted representation of an action is {"type": ..., "params": {...}}
// with nested action lists recursively carrying the same shape. Both the
// JSON codec and the map codec below decode into fresh, defaulted params so
// absent keys keep their defaults (enabled=true and friends), then validate.

type actionEnvelope struct {
	Type   Kind            `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	if a.Params == nil {
		return nil, fmt.Errorf("action %q has nil params", a.Kind)
	}
	raw, err := json.Marshal(a.Params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(actionEnvelope{Type: a.Kind, Params: raw})
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var env actionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Type == "" {
		return fmt.Errorf("action is missing a type tag")
	}
	p, err := newParams(env.Type)
	if err != nil {
		return err
	}
	if len(env.Params) > 0 {
		if err := json.Unmarshal(env.Params, p); err != nil {
			return fmt.Errorf("%s params: %w", env.Type, err)
		}
	}
	built, err := New(env.Type, p)
	if err != nil {
		return err
	}
	*a = built
	return nil
}

// FromMap builds an Action from an already-parsed {type, params} map, e.g.
// out of a YAML document. Nested action lists decode recursively through a
// decode hook, and loosely typed scalars (YAML ints where floats are
// declared) are coerced.
func FromMap(m map[string]any) (Action, error) {
	rawKind, ok := m["type"].(string)
	if !ok || rawKind == "" {
		return Action{}, fmt.Errorf("action map is missing a type tag")
	}
	kind := Kind(rawKind)
	p, err := newParams(kind)
	if err != nil {
		return Action{}, err
	}
	if paramsMap, ok := m["params"].(map[string]any); ok {
		if err := decodeParams(paramsMap, p); err != nil {
			return Action{}, fmt.Errorf("%s params: %w", kind, err)
		}
	}
	return New(kind, p)
}

// ToMap is the inverse of FromMap, via the JSON form so tags and nesting
// behave identically in both codecs.
func (a Action) ToMap() (map[string]any, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeParams(m map[string]any, target Params) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		Squash:           true,
		WeaklyTypedInput: true,
		DecodeHook:       nestedActionHook,
	})
	if err != nil {
		return err
	}
	return dec.Decode(m)
}

var actionType = reflect.TypeOf(Action{})

// nestedActionHook routes child {type, params} maps back through FromMap so
// flow-control params get fully built, defaulted and validated children.
func nestedActionHook(from, to reflect.Type, data any) (any, error) {
	if to != actionType {
		return data, nil
	}
	m, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}
	return FromMap(m)
}

// DecodeActions parses a JSON array of persisted actions.
func DecodeActions(data []byte) ([]Action, error) {
	var actions []Action
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// EncodeActions renders a list of actions in the persisted representation.
func EncodeActions(actions []Action) ([]byte, error) {
	return json.MarshalIndent(actions, "", "  ")
}
