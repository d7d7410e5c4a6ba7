// Package extract turns free-form bilingual text into validated events.
//
// The pipeline runs synchronously per input: the local admission gate,
// then the extraction service call with its retry loop, then schema
// validation. Callers wanting parallelism run several pipelines themselves.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aical/internal/models"
)

// DefaultTimezone is used when no timezone is configured.
const DefaultTimezone = "Asia/Shanghai"

// Extractor runs the full text-to-event pipeline.
type Extractor struct {
	client   *Client
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewExtractor creates a new Extractor. A nil location means DefaultTimezone.
func NewExtractor(logger *slog.Logger, client *Client, loc *time.Location) (*Extractor, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if loc == nil {
		var err error
		loc, err = time.LoadLocation(DefaultTimezone)
		if err != nil {
			return nil, fmt.Errorf("failed to load default timezone: %w", err)
		}
	}
	return &Extractor{
		client:   client,
		location: loc,
		now:      time.Now,
		logger:   logger,
	}, nil
}

// Location returns the timezone "today" is resolved in.
func (e *Extractor) Location() *time.Location {
	return e.location
}

// Extract parses text into an Event. It returns ErrEmptyInput or
// ErrNoTemporalInfo without contacting the service, an *ExtractionError when
// retries are exhausted, or a *SchemaError when the reply is unusable.
func (e *Extractor) Extract(ctx context.Context, text string) (models.Event, error) {
	e.logger.Info("Parsing text", "text", text)

	if err := CheckInput(text); err != nil {
		e.logger.Warn("Input rejected before extraction", "error", err)
		return models.Event{}, err
	}
	text = strings.TrimSpace(text)

	today := e.now().In(e.location)
	raw, err := e.client.Extract(ctx, text, today)
	if err != nil {
		return models.Event{}, err
	}

	event, err := Validate(raw, text)
	if err != nil {
		e.logger.Error("Reply failed validation", "error", err)
		return models.Event{}, err
	}

	e.logger.Info("Successfully parsed text",
		"summary", event.Summary,
		"start", event.StartTime.Format(models.DateTimeLayout),
		"end", event.EndTime.Format(models.DateTimeLayout))
	return event, nil
}
