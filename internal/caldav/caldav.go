// Package caldav uploads extracted events to a CalDAV calendar collection.
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"aical/internal/ics"
	"aical/internal/models"
)

const (
	// DefaultEndpoint is used when no endpoint is configured.
	DefaultEndpoint = "https://caldav.icloud.com/"

	userAgent = "aical/1.0"
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", userAgent)
	return t.Transport.RoundTrip(req)
}

// Config holds the server account and target calendar.
type Config struct {
	Endpoint     string
	Username     string
	Password     string
	CalendarName string
	Location     *time.Location // zone DTSTART/DTEND are written in
}

// Client publishes events to one calendar on a CalDAV server.
type Client struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	logger       *slog.Logger
	location     *time.Location
	calendarPath string
	now          func() time.Time
}

// NewClient connects to the server and resolves cfg.CalendarName to its collection path.
func NewClient(ctx context.Context, logger *slog.Logger, cfg Config) (*Client, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("caldav username and password are required")
	}
	if cfg.CalendarName == "" {
		return nil, fmt.Errorf("caldav calendar name is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	c, err := newClient(logger, cfg)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Finding CalDAV calendar", "calendarName", cfg.CalendarName, "endpoint", cfg.Endpoint)
	calendarPath, err := c.findCalendar(ctx, cfg.CalendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", cfg.CalendarName, err)
	}
	c.calendarPath = calendarPath
	c.logger.Info("Successfully found CalDAV calendar", "path", calendarPath)

	return c, nil
}

func newClient(logger *slog.Logger, cfg Config) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	httpClient := &http.Client{Transport: &customTransport{
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: http.DefaultTransport,
	}}

	caldavClient, err := caldav.NewClient(httpClient, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	webdavClient, err := webdav.NewClient(httpClient, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	return &Client{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger,
		location:     loc,
		now:          time.Now,
	}, nil
}

// Name identifies the publisher in logs and CLI output.
func (c *Client) Name() string {
	return "caldav"
}

// CalendarPath returns the server path of the resolved calendar collection.
func (c *Client) CalendarPath() string {
	return c.calendarPath
}

// Publish uploads the event as a single-event calendar object named <uid>.ics.
func (c *Client) Publish(ctx context.Context, event models.Event) error {
	vevent := ics.NewEventComponent(event, c.location, c.now())
	uid := ics.UID(vevent)
	c.logger.Debug("Publishing event to CalDAV", "summary", event.Summary, "uid", uid)

	cal := ics.NewCalendar()
	cal.Children = append(cal.Children, vevent)

	eventPath := path.Join(c.calendarPath, uid+".ics")
	writer, err := c.webdavClient.Create(ctx, eventPath)
	if err != nil {
		return fmt.Errorf("failed to create event on CalDAV server: %w", err)
	}
	if err := ical.NewEncoder(writer).Encode(cal); err != nil {
		writer.Close()
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	// The upload completes on Close.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to upload event: %w", err)
	}

	c.logger.Info("Successfully published event to CalDAV", "summary", event.Summary, "path", eventPath)
	return nil
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *Client) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if strings.EqualFold(cal.Name, name) {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
