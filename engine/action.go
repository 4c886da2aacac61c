package engine

import (
	"errors"
	"fmt"
)

// Kind tags one action variant. The set is closed: adding a kind means
// adding a params type, a newParams case, and a dispatch case.
type Kind string

const (
	// Basic actions.
	KindClick       Kind = "click"
	KindRightClick  Kind = "right_click"
	KindDoubleClick Kind = "double_click"
	KindDrag        Kind = "drag"
	KindTypeText    Kind = "type_text"
	KindWait        Kind = "wait"

	// Visual actions.
	KindTemplateSearch Kind = "template_search"
	KindOCRWait        Kind = "wait_for_ocr"

	// Flow control.
	KindConditional Kind = "conditional"
	KindLoop        Kind = "loop"
	KindSwitchCase  Kind = "switch_case"
	KindTryCatch    Kind = "try_catch"
	KindParallel    Kind = "parallel_execution"
	KindBreakpoint  Kind = "breakpoint"

	// Data manipulation.
	KindVariableSet       Kind = "variable_set"
	KindVariableIncrement Kind = "variable_increment"
	KindStringOp          Kind = "string_operation"
	KindListOp            Kind = "list_operation"
	KindDictOp            Kind = "dict_operation"
	KindMathOp            Kind = "math_operation"
	KindRandomValue       Kind = "random_value"
	KindFileOp            Kind = "file_operation"
	KindHTTPRequest       Kind = "http_request"

	// Utility.
	KindLog        Kind = "log"
	KindScreenshot Kind = "screenshot"
)

// Failure policies declared on every action. The dispatcher itself does not
// enforce retries or timeouts; the fields round-trip as metadata.
const (
	OnFailureStop     = "stop"
	OnFailureContinue = "continue"
	OnFailureRetry    = "retry"
)

// Common carries the metadata every action variant embeds.
type Common struct {
	Name           string  `json:"name,omitempty"`
	Description    string  `json:"description,omitempty"`
	Enabled        bool    `json:"enabled"`
	Timeout        float64 `json:"timeout,omitempty"`
	RetryCount     int     `json:"retry_count,omitempty"`
	RetryInterval  float64 `json:"retry_interval,omitempty"`
	OnFailure      string  `json:"on_failure,omitempty"`
	FailureMessage string  `json:"failure_message,omitempty"`
}

func defaultCommon() Common {
	return Common{
		Enabled:       true,
		Timeout:       30,
		RetryInterval: 1,
		OnFailure:     OnFailureStop,
	}
}

// Params is the closed interface over all action parameter variants.
type Params interface {
	common() *Common
	validate() error
}

// Action is one immutable step of an automation tree. Flow-control params
// embed child []Action lists by value, so the structure is always a tree.
type Action struct {
	Kind   Kind
	Params Params
}

// New builds a validated action. Validation errors here are construction
// errors: fatal to building the tree, per the error taxonomy.
func New(kind Kind, p Params) (Action, error) {
	if p == nil {
		return Action{}, errors.New("nil params")
	}
	if err := checkParamsKind(kind, p); err != nil {
		return Action{}, err
	}
	if err := p.validate(); err != nil {
		return Action{}, fmt.Errorf("%s: %w", kind, err)
	}
	if c := p.common(); c.Name == "" {
		c.Name = string(kind) + "_action"
	}
	return Action{Kind: kind, Params: p}, nil
}

// MustNew is New for statically known-good trees (builders, tests).
func MustNew(kind Kind, p Params) Action {
	a, err := New(kind, p)
	if err != nil {
		panic(err)
	}
	return a
}

// Name returns the action's display name, falling back to its kind.
func (a Action) Name() string {
	if a.Params != nil {
		if c := a.Params.common(); c.Name != "" {
			return c.Name
		}
	}
	return string(a.Kind)
}

// Enabled reports whether the action should run at all.
func (a Action) Enabled() bool {
	return a.Params != nil && a.Params.common().Enabled
}

// checkParamsKind rejects a params variant paired with the wrong kind.
func checkParamsKind(kind Kind, p Params) error {
	want, err := newParams(kind)
	if err != nil {
		return err
	}
	if fmt.Sprintf("%T", want) != fmt.Sprintf("%T", p) {
		return fmt.Errorf("kind %s requires %T, got %T", kind, want, p)
	}
	return nil
}

// newParams returns a fresh, defaulted params variant for a kind. This is
// the single registry the codec and the dispatcher switch both lean on.
func newParams(kind Kind) (Params, error) {
	switch kind {
	case KindClick, KindRightClick, KindDoubleClick:
		return &ClickParams{Common: defaultCommon(), Button: "left", MoveDuration: 0.2}, nil
	case KindDrag:
		return &DragParams{Common: defaultCommon(), Duration: 0.5}, nil
	case KindTypeText:
		return &TypeTextParams{Common: defaultCommon(), Delay: 0.05}, nil
	case KindWait:
		return &WaitParams{Common: defaultCommon(), Duration: 1}, nil
	case KindTemplateSearch:
		return &TemplateSearchParams{Common: defaultCommon(), Confidence: 0.8, MaxMatches: 1}, nil
	case KindOCRWait:
		return &OCRWaitParams{Common: defaultCommon()}, nil
	case KindConditional:
		return &ConditionalParams{Common: defaultCommon()}, nil
	case KindLoop:
		return &LoopParams{Common: defaultCommon(), LoopType: LoopCount, Count: 1, MaxIterations: 100}, nil
	case KindSwitchCase:
		return &SwitchCaseParams{Common: defaultCommon()}, nil
	case KindTryCatch:
		return &TryCatchParams{Common: defaultCommon()}, nil
	case KindParallel:
		return &ParallelParams{Common: defaultCommon(), MaxWorkers: 4, WaitForAll: true}, nil
	case KindBreakpoint:
		return &BreakpointParams{Common: defaultCommon(), Message: "Breakpoint hit"}, nil
	case KindVariableSet:
		return &VariableSetParams{Common: defaultCommon(), ValueType: ValueString}, nil
	case KindVariableIncrement:
		return &VariableIncrementParams{Common: defaultCommon(), IncrementBy: 1}, nil
	case KindStringOp:
		return &StringOpParams{Common: defaultCommon(), Operation: "concat"}, nil
	case KindListOp:
		return &ListOpParams{Common: defaultCommon(), Operation: "create"}, nil
	case KindDictOp:
		return &DictOpParams{Common: defaultCommon(), Operation: "create"}, nil
	case KindMathOp:
		return &MathOpParams{Common: defaultCommon(), Operation: "add"}, nil
	case KindRandomValue:
		return &RandomValueParams{Common: defaultCommon(), ValueType: "int", MaxValue: 100}, nil
	case KindFileOp:
		return &FileOpParams{Common: defaultCommon(), Operation: "read", Format: "text"}, nil
	case KindHTTPRequest:
		return &HTTPRequestParams{Common: defaultCommon(), Method: "GET"}, nil
	case KindLog:
		return &LogParams{Common: defaultCommon(), Level: "info"}, nil
	case KindScreenshot:
		return &ScreenshotParams{Common: defaultCommon(), IncludeTimestamp: true}, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", kind)
	}
}

// Kinds lists every known action kind, for schema generation and docs.
func Kinds() []Kind {
	return []Kind{
		KindClick, KindRightClick, KindDoubleClick, KindDrag, KindTypeText,
		KindWait, KindTemplateSearch, KindOCRWait, KindConditional, KindLoop,
		KindSwitchCase, KindTryCatch, KindParallel, KindBreakpoint,
		KindVariableSet, KindVariableIncrement, KindStringOp, KindListOp,
		KindDictOp, KindMathOp, KindRandomValue, KindFileOp, KindHTTPRequest,
		KindLog, KindScreenshot,
	}
}
