package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var ErrNoDeploymentURL = errors.New("workflow has no deployment url")

const (
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultHTTPAttempts = 3
)

// HTTPRunner triggers a deployed workflow function by posting the input data to it. The
// JSON response body becomes the execution data; server errors are retried.
type HTTPRunner struct {
	client   *http.Client
	attempts uint
	backoff  func() backoff.BackOff
	logger   *slog.Logger
}

type HTTPRunnerOption func(*HTTPRunner)

func WithHTTPClient(client *http.Client) HTTPRunnerOption {
	return func(r *HTTPRunner) { r.client = client }
}

func WithAttempts(attempts uint) HTTPRunnerOption {
	return func(r *HTTPRunner) { r.attempts = max(attempts, 1) }
}

// WithBackOff replaces the exponential backoff between attempts.
func WithBackOff(factory func() backoff.BackOff) HTTPRunnerOption {
	return func(r *HTTPRunner) { r.backoff = factory }
}

func NewHTTPRunner(logger *slog.Logger, options ...HTTPRunnerOption) *HTTPRunner {
	runner := &HTTPRunner{
		client:   &http.Client{Timeout: DefaultHTTPTimeout},
		attempts: DefaultHTTPAttempts,
		backoff:  func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		logger:   logger.With("module", "http_runner"),
	}

	for _, option := range options {
		option(runner)
	}

	return runner
}

func (r *HTTPRunner) Run(ctx context.Context, request Request) (*Outcome, error) {
	if request.DeploymentURL == "" {
		return nil, ErrNoDeploymentURL
	}

	payload, err := json.Marshal(request.InputData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input data: %w", err)
	}

	attempt := 0

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++

		return r.post(ctx, request, payload, attempt)
	}, backoff.WithBackOff(r.backoff()), backoff.WithMaxTries(r.attempts))
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Data: map[string]any{}}

	if len(bytes.TrimSpace(body)) == 0 {
		return outcome, nil
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode execution response: %w", err)
	}

	if data, ok := decoded.(map[string]any); ok {
		outcome.Data = data
	} else {
		outcome.Data["result"] = decoded
	}

	return outcome, nil
}

func (r *HTTPRunner) post(ctx context.Context, request Request, payload []byte, attempt int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, request.DeploymentURL, bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create http request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Execution-Id", request.ExecutionID)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.WarnContext(ctx, "Execution request failed", "attempt", attempt, "error", err)

		return nil, fmt.Errorf("http request failed: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		r.logger.WarnContext(ctx, "Execution request returned server error", "attempt", attempt, "status", resp.StatusCode)

		return nil, fmt.Errorf("server error (status %d)", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, backoff.Permanent(fmt.Errorf("execution rejected (status %d): %s", resp.StatusCode, bytes.TrimSpace(body)))
	}

	r.logger.InfoContext(ctx, "Execution request completed", "status", resp.StatusCode, "body_length", len(body))

	return body, nil
}
