package engine

import "image"

// Region is a rectangular screen area used to restrict template and OCR
// searches.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Match is one template match reported by the template matcher.
type Match struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
}

// Context is the capability facade the engine consumes. It is owned by the
// calling application; the engine never constructs one. Implementations must
// tolerate concurrent read-only calls from parallel groups — the engine adds
// no locking around them.
type Context interface {
	// Input injection.
	Click(x, y int) error
	Drag(x1, y1, x2, y2 int, duration float64) error
	TypeText(text string) error

	// Screen capture. A nil image with nil error is treated as a failure.
	Capture() (image.Image, error)

	// Template matching against a captured image. region may be nil.
	FindTemplate(img image.Image, name string, threshold float64, maxMatches int, region *Region) ([]Match, error)

	// OCR text extraction. region may be nil.
	ExtractText(img image.Image, region *Region) (string, error)

	// Cooperative control signals. ShouldStop is polled between every action
	// in a sequential list and between loop iterations.
	ShouldStop() bool
	PauseExecution()
	OnBreakpointHit(message string, variables map[string]any)
}

// NopContext is a Context with no capabilities: input calls succeed without
// doing anything, captures fail, searches find nothing, and control signals
// are inert. Embed it to implement only the capabilities a driver provides.
type NopContext struct{}

func (NopContext) Click(x, y int) error                                { return nil }
func (NopContext) Drag(x1, y1, x2, y2 int, duration float64) error     { return nil }
func (NopContext) TypeText(text string) error                          { return nil }
func (NopContext) Capture() (image.Image, error)                       { return nil, nil }
func (NopContext) ShouldStop() bool                                    { return false }
func (NopContext) PauseExecution()                                     {}
func (NopContext) OnBreakpointHit(message string, vars map[string]any) {}

func (NopContext) FindTemplate(img image.Image, name string, threshold float64, maxMatches int, region *Region) ([]Match, error) {
	return nil, nil
}

func (NopContext) ExtractText(img image.Image, region *Region) (string, error) {
	return "", nil
}
