package engine

import "errors"

// ClickParams drives the click, right_click and double_click kinds. The
// button and move duration are passed through to the input controller as-is.
type ClickParams struct {
	Common
	X            int     `json:"x"`
	Y            int     `json:"y"`
	Button       string  `json:"button,omitempty"`
	MoveDuration float64 `json:"move_duration,omitempty"`
}

func (p *ClickParams) common() *Common { return &p.Common }
func (p *ClickParams) validate() error { return nil }

type DragParams struct {
	Common
	StartX   int     `json:"start_x"`
	StartY   int     `json:"start_y"`
	EndX     int     `json:"end_x"`
	EndY     int     `json:"end_y"`
	Duration float64 `json:"duration,omitempty"`
}

func (p *DragParams) common() *Common { return &p.Common }
func (p *DragParams) validate() error { return nil }

type TypeTextParams struct {
	Common
	Text  string  `json:"text"`
	Delay float64 `json:"delay,omitempty"`
}

func (p *TypeTextParams) common() *Common { return &p.Common }
func (p *TypeTextParams) validate() error {
	if p.Text == "" {
		return errors.New("text to type is required")
	}
	return nil
}

// WaitParams pauses execution for Duration seconds, plus or minus a uniform
// random variation.
type WaitParams struct {
	Common
	Duration        float64 `json:"duration"`
	RandomVariation float64 `json:"random_variation,omitempty"`
}

func (p *WaitParams) common() *Common { return &p.Common }
func (p *WaitParams) validate() error {
	if p.Duration < 0 {
		return errors.New("duration must not be negative")
	}
	return nil
}

type TemplateSearchParams struct {
	Common
	TemplateName  string  `json:"template_name"`
	Confidence    float64 `json:"confidence,omitempty"`
	SearchRegion  *Region `json:"search_region,omitempty"`
	MaxMatches    int     `json:"max_matches,omitempty"`
	StoreVariable string  `json:"store_variable,omitempty"`
}

func (p *TemplateSearchParams) common() *Common { return &p.Common }
func (p *TemplateSearchParams) validate() error {
	if p.TemplateName == "" {
		return errors.New("template name is required")
	}
	return nil
}

type OCRWaitParams struct {
	Common
	Text          string  `json:"text"`
	SearchRegion  *Region `json:"search_region,omitempty"`
	CaseSensitive bool    `json:"case_sensitive,omitempty"`
	StoreVariable string  `json:"store_variable,omitempty"`
}

func (p *OCRWaitParams) common() *Common { return &p.Common }
func (p *OCRWaitParams) validate() error {
	if p.Text == "" {
		return errors.New("text to wait for is required")
	}
	return nil
}

type ConditionalParams struct {
	Common
	Condition   string   `json:"condition"`
	ThenActions []Action `json:"then_actions,omitempty"`
	ElseActions []Action `json:"else_actions,omitempty"`
}

func (p *ConditionalParams) common() *Common { return &p.Common }
func (p *ConditionalParams) validate() error {
	if p.Condition == "" {
		return errors.New("condition is required")
	}
	return nil
}

// Loop types.
const (
	LoopCount   = "count"
	LoopWhile   = "while"
	LoopForEach = "for_each"
)

type LoopParams struct {
	Common
	LoopType      string   `json:"loop_type"`
	Count         int      `json:"count,omitempty"`
	Condition     string   `json:"condition,omitempty"`
	MaxIterations int      `json:"max_iterations,omitempty"`
	Variable      string   `json:"variable,omitempty"`
	Collection    string   `json:"collection,omitempty"`
	Actions       []Action `json:"actions,omitempty"`
}

func (p *LoopParams) common() *Common { return &p.Common }
func (p *LoopParams) validate() error {
	switch p.LoopType {
	case LoopCount:
		if p.Count <= 0 {
			return errors.New("count loop requires a positive count")
		}
	case LoopWhile:
		if p.Condition == "" {
			return errors.New("while loop requires a condition")
		}
		if p.MaxIterations <= 0 {
			return errors.New("while loop requires a positive max_iterations")
		}
	case LoopForEach:
		if p.Variable == "" || p.Collection == "" {
			return errors.New("for_each loop requires a variable and a collection")
		}
	default:
		return errors.New("loop_type must be count, while or for_each")
	}
	return nil
}

// Case is one switch/case arm: a value to match and the actions to run.
// Declaration order matters; the first matching arm wins.
type Case struct {
	Value   string   `json:"value"`
	Actions []Action `json:"actions,omitempty"`
}

type SwitchCaseParams struct {
	Common
	Expression     string   `json:"expression"`
	Cases          []Case   `json:"cases"`
	DefaultActions []Action `json:"default_actions,omitempty"`
}

func (p *SwitchCaseParams) common() *Common { return &p.Common }
func (p *SwitchCaseParams) validate() error {
	if p.Expression == "" {
		return errors.New("expression is required")
	}
	if len(p.Cases) == 0 {
		return errors.New("at least one case is required")
	}
	return nil
}

type TryCatchParams struct {
	Common
	TryActions     []Action `json:"try_actions"`
	CatchActions   []Action `json:"catch_actions,omitempty"`
	FinallyActions []Action `json:"finally_actions,omitempty"`
	ErrorVariable  string   `json:"error_variable,omitempty"`
}

func (p *TryCatchParams) common() *Common { return &p.Common }
func (p *TryCatchParams) validate() error {
	if len(p.TryActions) == 0 {
		return errors.New("try_actions must not be empty")
	}
	return nil
}

type ParallelParams struct {
	Common
	Groups     [][]Action `json:"groups"`
	MaxWorkers int        `json:"max_workers,omitempty"`
	WaitForAll bool       `json:"wait_for_all"`
}

func (p *ParallelParams) common() *Common { return &p.Common }
func (p *ParallelParams) validate() error {
	if len(p.Groups) == 0 {
		return errors.New("at least one action group is required")
	}
	return nil
}

type BreakpointParams struct {
	Common
	Condition string `json:"condition,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (p *BreakpointParams) common() *Common { return &p.Common }
func (p *BreakpointParams) validate() error { return nil }

// Variable value types accepted by variable_set.
const (
	ValueString     = "string"
	ValueNumber     = "number"
	ValueBoolean    = "boolean"
	ValueExpression = "expression"
	ValueJSON       = "json"
)

type VariableSetParams struct {
	Common
	VariableName string `json:"variable_name"`
	Value        any    `json:"value"`
	ValueType    string `json:"value_type,omitempty"`
}

func (p *VariableSetParams) common() *Common { return &p.Common }
func (p *VariableSetParams) validate() error {
	if p.VariableName == "" {
		return errors.New("variable name is required")
	}
	switch p.ValueType {
	case ValueString, ValueNumber, ValueBoolean, ValueExpression, ValueJSON:
		return nil
	}
	return errors.New("value_type must be string, number, boolean, expression or json")
}

type VariableIncrementParams struct {
	Common
	VariableName string  `json:"variable_name"`
	IncrementBy  float64 `json:"increment_by,omitempty"`
}

func (p *VariableIncrementParams) common() *Common { return &p.Common }
func (p *VariableIncrementParams) validate() error {
	if p.VariableName == "" {
		return errors.New("variable name is required")
	}
	return nil
}

type StringOpParams struct {
	Common
	Operation      string         `json:"operation"`
	InputVariables []string       `json:"input_variables,omitempty"`
	OutputVariable string         `json:"output_variable"`
	Parameters     map[string]any `json:"parameters,omitempty"`
}

func (p *StringOpParams) common() *Common { return &p.Common }
func (p *StringOpParams) validate() error {
	if p.Operation == "" || p.OutputVariable == "" {
		return errors.New("operation and output variable are required")
	}
	return nil
}

type ListOpParams struct {
	Common
	Operation      string `json:"operation"`
	ListVariable   string `json:"list_variable"`
	InputValue     any    `json:"input_value,omitempty"`
	Index          int    `json:"index,omitempty"`
	OutputVariable string `json:"output_variable,omitempty"`
}

func (p *ListOpParams) common() *Common { return &p.Common }
func (p *ListOpParams) validate() error {
	if p.Operation == "" || p.ListVariable == "" {
		return errors.New("operation and list variable are required")
	}
	return nil
}

type DictOpParams struct {
	Common
	Operation      string `json:"operation"`
	DictVariable   string `json:"dict_variable"`
	Key            string `json:"key,omitempty"`
	Value          any    `json:"value,omitempty"`
	OutputVariable string `json:"output_variable,omitempty"`
}

func (p *DictOpParams) common() *Common { return &p.Common }
func (p *DictOpParams) validate() error {
	if p.Operation == "" || p.DictVariable == "" {
		return errors.New("operation and dict variable are required")
	}
	return nil
}

type MathOpParams struct {
	Common
	Operation      string `json:"operation"`
	Operands       []any  `json:"operands"`
	OutputVariable string `json:"output_variable"`
}

func (p *MathOpParams) common() *Common { return &p.Common }
func (p *MathOpParams) validate() error {
	if p.Operation == "" || p.OutputVariable == "" {
		return errors.New("operation and output variable are required")
	}
	return nil
}

type RandomValueParams struct {
	Common
	ValueType      string   `json:"value_type"`
	MinValue       float64  `json:"min_value,omitempty"`
	MaxValue       float64  `json:"max_value,omitempty"`
	Choices        []string `json:"choices,omitempty"`
	OutputVariable string   `json:"output_variable"`
}

func (p *RandomValueParams) common() *Common { return &p.Common }
func (p *RandomValueParams) validate() error {
	if p.OutputVariable == "" {
		return errors.New("output variable is required")
	}
	switch p.ValueType {
	case "int", "float":
		if p.MinValue > p.MaxValue {
			return errors.New("min_value must not exceed max_value")
		}
	case "choice":
		if len(p.Choices) == 0 {
			return errors.New("choice type requires a non-empty choices list")
		}
	default:
		return errors.New("value_type must be int, float or choice")
	}
	return nil
}

type FileOpParams struct {
	Common
	Operation      string `json:"operation"`
	FilePath       string `json:"file_path"`
	Content        string `json:"content,omitempty"`
	Format         string `json:"format,omitempty"`
	OutputVariable string `json:"output_variable,omitempty"`
}

func (p *FileOpParams) common() *Common { return &p.Common }
func (p *FileOpParams) validate() error {
	if p.Operation == "" || p.FilePath == "" {
		return errors.New("operation and file path are required")
	}
	switch p.Operation {
	case "read", "write", "append":
	default:
		return errors.New("operation must be read, write or append")
	}
	switch p.Format {
	case "", "text", "json", "csv":
	default:
		return errors.New("format must be text, json or csv")
	}
	return nil
}

type HTTPRequestParams struct {
	Common
	URL            string            `json:"url"`
	Method         string            `json:"method,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           string            `json:"body,omitempty"`
	OutputVariable string            `json:"output_variable,omitempty"`
}

func (p *HTTPRequestParams) common() *Common { return &p.Common }
func (p *HTTPRequestParams) validate() error {
	if p.URL == "" {
		return errors.New("url is required")
	}
	return nil
}

type LogParams struct {
	Common
	Message string `json:"message"`
	Level   string `json:"level,omitempty"`
}

func (p *LogParams) common() *Common { return &p.Common }
func (p *LogParams) validate() error {
	if p.Message == "" {
		return errors.New("message is required")
	}
	return nil
}

type ScreenshotParams struct {
	Common
	Region           *Region `json:"region,omitempty"`
	FilePath         string  `json:"file_path"`
	IncludeTimestamp bool    `json:"include_timestamp"`
}

func (p *ScreenshotParams) common() *Common { return &p.Common }
func (p *ScreenshotParams) validate() error {
	if p.FilePath == "" {
		return errors.New("file path is required")
	}
	return nil
}
