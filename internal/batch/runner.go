// Package batch runs many free-form entries through extraction, collects the
// events into one calendar and optionally publishes each to remote calendars.
package batch

import (
	"context"
	"fmt"
	"log/slog"

	"aical/internal/ics"
	"aical/internal/models"
)

// EventExtractor turns one free-form entry into an event.
type EventExtractor interface {
	Extract(ctx context.Context, text string) (models.Event, error)
}

// Publisher pushes an event to a remote calendar.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, event models.Event) error
}

// PublishError records a failed publish for one event.
type PublishError struct {
	Publisher string
	Err       error
}

func (e PublishError) Error() string {
	return fmt.Sprintf("%s: %v", e.Publisher, e.Err)
}

func (e PublishError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one entry.
type Result struct {
	Index         int           // 1-based position in the batch
	Text          string
	Event         *models.Event // nil when extraction failed
	Err           error         // extraction failure
	Published     []string      // publishers that accepted the event
	PublishErrors []PublishError
}

// OK reports whether the entry produced an event.
func (r Result) OK() bool {
	return r.Err == nil && r.Event != nil
}

// Runner orchestrates extraction, aggregation and publishing.
type Runner struct {
	logger     *slog.Logger
	extractor  EventExtractor
	encoder    *ics.Encoder
	publishers []Publisher
	dryRun     bool
}

// NewRunner creates a Runner. In dry-run mode events are extracted and added
// to the encoder but never published.
func NewRunner(logger *slog.Logger, extractor EventExtractor, encoder *ics.Encoder, publishers []Publisher, dryRun bool) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		logger:     logger,
		extractor:  extractor,
		encoder:    encoder,
		publishers: publishers,
		dryRun:     dryRun,
	}
}

// Run processes texts in order. A failing entry is logged and recorded in its
// Result; the remaining entries are still processed.
func (r *Runner) Run(ctx context.Context, texts []string) []Result {
	r.logger.Info("Starting batch.", "entries", len(texts), "dryRun", r.dryRun)

	results := make([]Result, 0, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Index: i + 1, Text: text, Err: err})
			continue
		}
		results = append(results, r.runOne(ctx, i+1, text))
	}

	var failed int
	for _, res := range results {
		if !res.OK() {
			failed++
		}
	}
	r.logger.Info("Batch finished.", "entries", len(results), "failed", failed)
	return results
}

func (r *Runner) runOne(ctx context.Context, index int, text string) Result {
	res := Result{Index: index, Text: text}

	event, err := r.extractor.Extract(ctx, text)
	if err != nil {
		r.logger.Error("Failed to extract event", "entry", index, "error", err)
		res.Err = err
		return res
	}
	res.Event = &event

	if r.encoder != nil {
		r.encoder.AddEvent(event)
	}

	for _, p := range r.publishers {
		if r.dryRun {
			r.logger.Info("[DRY RUN] Would publish event", "publisher", p.Name(), "summary", event.Summary, "startTime", event.StartTime)
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			r.logger.Error("Failed to publish event", "publisher", p.Name(), "summary", event.Summary, "error", err)
			res.PublishErrors = append(res.PublishErrors, PublishError{Publisher: p.Name(), Err: err})
			continue
		}
		res.Published = append(res.Published, p.Name())
	}
	return res
}
