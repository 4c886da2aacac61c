package engine

import (
	"context"
	"fmt"
	"strings"
)

func (e *Executor) doHTTPRequest(ctx context.Context, p *HTTPRequestParams, store *Store, mode Mode) error {
	method := strings.ToUpper(p.Method)
	if method == "" {
		method = "GET"
	}
	url := store.Expand(p.URL)

	if mode == ModeSimulate {
		e.l.Info("simulated http request", "method", method, "url", url)
		if p.OutputVariable != "" {
			store.Set(p.OutputVariable, map[string]any{"status_code": 0, "body": ""})
		}
		return nil
	}

	req := e.http.R().SetContext(ctx)
	for k, v := range p.Headers {
		req.SetHeader(k, store.Expand(v))
	}
	if p.Body != "" {
		req.SetBody(store.Expand(p.Body))
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	e.l.Info("http request done", "method", method, "url", url, "status", resp.StatusCode())
	if p.OutputVariable != "" {
		store.Set(p.OutputVariable, map[string]any{
			"status_code": resp.StatusCode(),
			"body":        resp.String(),
		})
	}
	return nil
}
