package engine

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Jeffail/gabs/v2"
)

func (e *Executor) doFileOp(p *FileOpParams, store *Store, mode Mode) error {
	path := store.Expand(p.FilePath)
	format := p.Format
	if format == "" {
		format = "text"
	}

	if mode == ModeSimulate {
		e.l.Info("simulated file operation", "operation", p.Operation, "path", path, "format", format)
		if p.Operation == "read" && p.OutputVariable != "" {
			store.Set(p.OutputVariable, "")
		}
		return nil
	}

	switch p.Operation {
	case "read":
		if p.OutputVariable == "" {
			return fmt.Errorf("read requires an output variable")
		}
		value, err := readFile(path, format)
		if err != nil {
			return err
		}
		store.Set(p.OutputVariable, value)
		return nil
	case "write":
		return writeFile(path, format, store.Expand(p.Content))
	case "append":
		return appendFile(path, format, store.Expand(p.Content))
	default:
		return fmt.Errorf("unknown file operation %q", p.Operation)
	}
}

func readFile(path, format string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	switch format {
	case "text":
		return string(data), nil
	case "json":
		parsed, err := gabs.ParseJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return parsed.Data(), nil
	case "csv":
		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		out := make([]any, len(rows))
		for i, row := range rows {
			cells := make([]any, len(row))
			for j, cell := range row {
				cells[j] = cell
			}
			out[i] = cells
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func writeFile(path, format, content string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	switch format {
	case "json":
		parsed, err := gabs.ParseJSON([]byte(content))
		if err != nil {
			return fmt.Errorf("content is not valid json: %w", err)
		}
		content = parsed.StringIndent("", "  ")
	case "csv":
		var sb strings.Builder
		w := csv.NewWriter(&sb)
		if err := w.Write(splitCSVRow(content)); err != nil {
			return fmt.Errorf("encode csv row: %w", err)
		}
		w.Flush()
		content = sb.String()
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func appendFile(path, format, content string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	switch format {
	case "json":
		return appendJSON(path, content)
	case "csv":
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		w := csv.NewWriter(f)
		if err := w.Write(splitCSVRow(content)); err != nil {
			return fmt.Errorf("append csv row: %w", err)
		}
		w.Flush()
		return w.Error()
	default:
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("append to %s: %w", path, err)
		}
		return nil
	}
}

// appendJSON merges a JSON object into the object already stored in the
// file; a missing file starts from the new content.
func appendJSON(path, content string) error {
	incoming, err := gabs.ParseJSON([]byte(content))
	if err != nil {
		return fmt.Errorf("content is not valid json: %w", err)
	}
	existing := gabs.New()
	if data, err := os.ReadFile(path); err == nil {
		existing, err = gabs.ParseJSON(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := existing.Merge(incoming); err != nil {
		return fmt.Errorf("merge json into %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(existing.StringIndent("", "  ")), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}

func splitCSVRow(content string) []string {
	cells := strings.Split(content, ",")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}
