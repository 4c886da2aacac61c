package main

import (
	"log/slog"

	"github.com/LinkesAuge/autoseq/engine"
)

// logDriver is the default execution context for CLI and server runs: input
// actions are logged instead of injected. Real injection backends implement
// engine.Context outside this binary.
type logDriver struct {
	engine.NopContext
	l *slog.Logger
}

func newLogDriver(l *slog.Logger) *logDriver {
	return &logDriver{l: l}
}

func (d *logDriver) Click(x, y int) error {
	d.l.Info("click", "x", x, "y", y)
	return nil
}

func (d *logDriver) Drag(x1, y1, x2, y2 int, duration float64) error {
	d.l.Info("drag", "from_x", x1, "from_y", y1, "to_x", x2, "to_y", y2, "seconds", duration)
	return nil
}

func (d *logDriver) TypeText(text string) error {
	d.l.Info("type text", "text", text)
	return nil
}

func (d *logDriver) OnBreakpointHit(message string, variables map[string]any) {
	d.l.Info("breakpoint", "message", message, "variables", len(variables))
}
