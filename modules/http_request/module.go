package http_request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/vk/buildgrid/internal/actions"
	"github.com/vk/buildgrid/internal/ctxlog"
)

// Module implements the actions.Module interface for this package.
type Module struct{}

// Input defines the arguments of an `action "http_request"` block.
type Input struct {
	URL     string            `hcl:"url"`
	Method  string            `hcl:"method,optional"`
	Headers map[string]string `hcl:"headers,optional"`
	Body    string            `hcl:"body,optional"`
	// ExpectStatus lists the accepted status codes. Empty accepts any 2xx.
	ExpectStatus []int  `hcl:"expect_status,optional"`
	Timeout      string `hcl:"timeout,optional"`
}

// client is shared by every request to reuse connections.
var client = &http.Client{}

// Run is the handler for the 'http_request' action.
func Run(ctx context.Context, call *actions.Call) error {
	var input Input
	if err := call.Args.Decode(&input); err != nil {
		return err
	}
	if input.Method == "" {
		input.Method = http.MethodGet
	}
	if input.Timeout != "" {
		d, err := time.ParseDuration(input.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", input.Timeout, err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request", "method", input.Method, "url", input.URL)

	var body io.Reader
	if input.Body != "" {
		body = strings.NewReader(input.Body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(input.Method), input.URL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range input.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	logger.Info("Received HTTP response", "status", resp.Status)
	logger.Debug("HTTP response body", "body", string(respBody))

	if !accepted(resp.StatusCode, input.ExpectStatus) {
		return fmt.Errorf("%s %s returned unexpected status: %s", req.Method, input.URL, resp.Status)
	}
	return nil
}

func accepted(code int, expect []int) bool {
	if len(expect) == 0 {
		return code >= 200 && code < 300
	}
	return slices.Contains(expect, code)
}

// Register registers the handler with the engine.
func (m *Module) Register(r *actions.Registry) {
	r.Register("http_request", Run)
}
