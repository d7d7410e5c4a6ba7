package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"aical/internal/llm"
)

const (
	DefaultMaxRetries = 3
	DefaultBackoff    = time.Second
)

// Completer sends a chat exchange to the extraction service.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// ClientConfig controls the retry loop and prompt contents.
type ClientConfig struct {
	MaxRetries int           // retries after the first attempt
	Backoff    time.Duration // fixed wait between attempts
	Holidays   *HolidayTable // overrides the built-in table when set
}

// DefaultClientConfig returns the default configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MaxRetries: DefaultMaxRetries,
		Backoff:    DefaultBackoff,
	}
}

// Result is the raw structured reply: an untyped JSON object that must go
// through Validate before use.
type Result map[string]any

// Outcome is the terminal state of the retry loop.
type Outcome struct {
	Result   Result
	Attempts int
	Kind     FailureKind // FailureNone on success
	Err      error       // last failure cause
}

// OK reports whether the loop ended in success.
func (o Outcome) OK() bool {
	return o.Kind == FailureNone
}

// Client prompts the extraction service and defends against its unreliability.
type Client struct {
	completer Completer
	config    ClientConfig
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new Client.
func NewClient(logger *slog.Logger, completer Completer, cfg ClientConfig) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		completer: completer,
		config:    cfg,
		logger:    logger,
		sleep:     sleepContext,
	}
}

// Extract asks the service to describe text as an event. today carries both
// the current date and the user's timezone.
func (c *Client) Extract(ctx context.Context, text string, today time.Time) (Result, error) {
	holidays := HolidaysFor(today.Year())
	if c.config.Holidays != nil {
		holidays = *c.config.Holidays
	}
	messages := []llm.Message{
		llm.SystemMessage(BuildSystemPrompt(today, holidays)),
		llm.UserMessage(text),
	}

	out := c.Run(ctx, messages)
	if !out.OK() {
		return nil, &ExtractionError{Attempts: out.Attempts, Kind: out.Kind, Err: out.Err}
	}
	return out.Result, nil
}

// Run drives the bounded retry loop: attempt n succeeds, or fails with a
// transport or malformed-JSON failure and moves to attempt n+1 after a fixed
// backoff, until MaxRetries retries have been spent.
func (c *Client) Run(ctx context.Context, messages []llm.Message) Outcome {
	var out Outcome
	for n := 0; ; n++ {
		out.Attempts = n + 1
		c.logger.Info("Calling extraction service", "attempt", out.Attempts)

		result, kind, err := c.attempt(ctx, messages)
		if kind == FailureNone {
			out.Result, out.Kind, out.Err = result, FailureNone, nil
			return out
		}
		out.Kind, out.Err = kind, err

		if kind == FailureCanceled {
			return out
		}
		if n >= c.config.MaxRetries {
			c.logger.Error("Extraction retries exhausted", "attempts", out.Attempts, "kind", kind, "error", err)
			return out
		}

		c.logger.Warn("Extraction attempt failed, retrying",
			"attempt", out.Attempts,
			"max_retries", c.config.MaxRetries,
			"kind", kind,
			"error", err)
		if err := c.sleep(ctx, c.config.Backoff); err != nil {
			out.Kind, out.Err = FailureCanceled, err
			return out
		}
	}
}

func (c *Client) attempt(ctx context.Context, messages []llm.Message) (Result, FailureKind, error) {
	content, err := c.completer.Complete(ctx, messages)
	if err != nil {
		if ctx.Err() != nil {
			return nil, FailureCanceled, ctx.Err()
		}
		return nil, FailureTransport, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	c.logger.Debug("Extraction service replied", "content", content)

	result, err := decodeObject(content)
	if err != nil {
		c.logger.Warn("Reply is not a JSON object", "error", err, "content", content)
		return nil, FailureMalformedJSON, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	return result, FailureNone, nil
}

// decodeObject parses content as exactly one JSON object, tolerating
// surrounding whitespace and a markdown code fence.
func decodeObject(content string) (Result, error) {
	s := strings.TrimSpace(content)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		// Drop the info string, whatever language tag it names.
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[i+1:]
		} else {
			rest = strings.TrimLeftFunc(rest, unicode.IsLetter)
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "```"))
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var result Result
	if err := dec.Decode(&result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("reply is null")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}
	return result, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
