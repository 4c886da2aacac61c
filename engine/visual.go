package engine

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"
)

// ocrPollInterval is the wait between capture attempts while polling for
// OCR text.
const ocrPollInterval = 200 * time.Millisecond

func (e *Executor) doTemplateSearch(p *TemplateSearchParams, store *Store, mode Mode) error {
	if mode == ModeSimulate {
		// Dry runs assume the screen looks the way the sequence expects.
		e.l.Info("simulated template search", "template", p.TemplateName, "result", "found")
		if p.StoreVariable != "" {
			store.Set(p.StoreVariable, []Match{{Confidence: 1}})
		}
		return nil
	}

	img, err := e.drv.Capture()
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if img == nil {
		return fmt.Errorf("capture returned no image")
	}
	matches, err := e.drv.FindTemplate(img, p.TemplateName, p.Confidence, p.MaxMatches, p.SearchRegion)
	if err != nil {
		return fmt.Errorf("template search %q: %w", p.TemplateName, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("template %q not found", p.TemplateName)
	}
	e.l.Info("template found", "template", p.TemplateName, "matches", len(matches))
	if p.StoreVariable != "" {
		store.Set(p.StoreVariable, matches)
	}
	return nil
}

// doOCRWait polls the screen for a piece of text until it appears or the
// action's timeout budget runs out.
func (e *Executor) doOCRWait(ctx context.Context, p *OCRWaitParams, store *Store, mode Mode) error {
	if mode == ModeSimulate {
		e.l.Info("simulated ocr wait", "text", p.Text, "result", "found")
		if p.StoreVariable != "" {
			store.Set(p.StoreVariable, p.Text)
		}
		return nil
	}

	budget := time.Duration(p.Timeout * float64(time.Second))
	if budget <= 0 {
		budget = 30 * time.Second
	}
	deadline := time.Now().Add(budget)

	want := p.Text
	for {
		if e.drv.ShouldStop() {
			return ErrStopped
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		img, err := e.drv.Capture()
		if err == nil && img != nil {
			got, err := e.drv.ExtractText(img, p.SearchRegion)
			if err == nil && containsText(got, want, p.CaseSensitive) {
				e.l.Info("ocr text found", "text", want)
				if p.StoreVariable != "" {
					store.Set(p.StoreVariable, got)
				}
				return nil
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("text %q did not appear within %s", want, budget)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ocrPollInterval):
		}
	}
}

func containsText(haystack, needle string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.Contains(haystack, needle)
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// cropRegion restricts an image to a region when the underlying type
// supports sub-imaging; otherwise the full image is kept.
func cropRegion(img image.Image, r *Region) image.Image {
	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	si, ok := img.(subImager)
	if !ok {
		return img
	}
	rect := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Intersect(img.Bounds())
	if rect.Empty() {
		return img
	}
	return si.SubImage(rect)
}
