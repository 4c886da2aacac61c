package engine

import (
	"context"
	"fmt"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func (e *Executor) doClick(kind Kind, p *ClickParams, mode Mode) error {
	if mode == ModeSimulate {
		e.l.Info("simulated click", "kind", string(kind), "x", p.X, "y", p.Y, "button", p.Button)
		return nil
	}
	if err := e.drv.Click(p.X, p.Y); err != nil {
		return fmt.Errorf("click at (%d,%d): %w", p.X, p.Y, err)
	}
	if kind == KindDoubleClick {
		if err := e.drv.Click(p.X, p.Y); err != nil {
			return fmt.Errorf("second click at (%d,%d): %w", p.X, p.Y, err)
		}
	}
	return nil
}

func (e *Executor) doDrag(p *DragParams, mode Mode) error {
	if mode == ModeSimulate {
		e.l.Info("simulated drag",
			"from_x", p.StartX, "from_y", p.StartY, "to_x", p.EndX, "to_y", p.EndY)
		return nil
	}
	if err := e.drv.Drag(p.StartX, p.StartY, p.EndX, p.EndY, p.Duration); err != nil {
		return fmt.Errorf("drag: %w", err)
	}
	return nil
}

func (e *Executor) doTypeText(p *TypeTextParams, store *Store, mode Mode) error {
	text := store.Expand(p.Text)
	if mode == ModeSimulate {
		e.l.Info("simulated typing", "text", text)
		return nil
	}
	if err := e.drv.TypeText(text); err != nil {
		return fmt.Errorf("type text: %w", err)
	}
	return nil
}

func (e *Executor) doWait(ctx context.Context, p *WaitParams, mode Mode) error {
	seconds := p.Duration
	if p.RandomVariation > 0 {
		seconds += (rand.Float64()*2 - 1) * p.RandomVariation
		if seconds < 0 {
			seconds = 0
		}
	}
	if mode == ModeSimulate {
		e.l.Info("simulated wait", "seconds", seconds)
		return nil
	}
	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Executor) doLog(p *LogParams, store *Store) error {
	msg := store.Expand(p.Message)
	switch strings.ToLower(p.Level) {
	case "debug":
		e.l.Debug(msg)
	case "warn", "warning":
		e.l.Warn(msg)
	case "error":
		e.l.Error(msg)
	default:
		e.l.Info(msg)
	}
	return nil
}

func (e *Executor) doScreenshot(p *ScreenshotParams, mode Mode) error {
	path := p.FilePath
	if p.IncludeTimestamp {
		ext := filepath.Ext(path)
		path = strings.TrimSuffix(path, ext) + time.Now().Format("_20060102_150405") + ext
	}
	if mode == ModeSimulate {
		e.l.Info("simulated screenshot", "path", path)
		return nil
	}
	img, err := e.drv.Capture()
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if img == nil {
		return fmt.Errorf("capture returned no image")
	}
	if p.Region != nil {
		img = cropRegion(img, p.Region)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create screenshot dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create screenshot file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode screenshot: %w", err)
	}
	e.l.Info("screenshot saved", "path", path)
	return nil
}
