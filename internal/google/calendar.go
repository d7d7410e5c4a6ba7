// Package google inserts extracted events into a Google Calendar.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"aical/internal/models"
)

const (
	credentialsFile = "credentials.json"

	// DefaultCalendarID targets the account's primary calendar.
	DefaultCalendarID = "primary"
)

// CalendarClient provides a client for interacting with the Google Calendar API.
type CalendarClient struct {
	service    *calendar.Service
	calendarID string
	location   *time.Location
	logger     *slog.Logger
}

// NewClient creates a new Google Calendar client for a previously authorized account.
// The account name selects the token-<account>.json file written by the auth command.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, accountName, calendarID string, loc *time.Location) (*CalendarClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	token, err := tokenFromFile(TokenFile(accountName))
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", accountName, err)
	}

	service, err := calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return newCalendarClient(logger, service, calendarID, loc), nil
}

func newCalendarClient(logger *slog.Logger, service *calendar.Service, calendarID string, loc *time.Location) *CalendarClient {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarClient{service: service, calendarID: calendarID, location: loc, logger: logger}
}

// Name identifies the publisher in logs and CLI output.
func (c *CalendarClient) Name() string {
	return "google"
}

// Publish inserts the event into the configured calendar.
func (c *CalendarClient) Publish(ctx context.Context, event models.Event) error {
	c.logger.Debug("Inserting event into Google Calendar", "summary", event.Summary, "calendarID", c.calendarID)

	created, err := c.service.Events.Insert(c.calendarID, toGoogleEvent(event, c.location)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	c.logger.Info("Successfully inserted event into Google Calendar", "summary", event.Summary, "id", created.Id)
	return nil
}

// toGoogleEvent converts an Event to the Calendar API representation.
// Wall-clock times are interpreted in loc.
func toGoogleEvent(event models.Event, loc *time.Location) *calendar.Event {
	ge := &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start: &calendar.EventDateTime{
			DateTime: models.Localize(event.StartTime, loc).Format(time.RFC3339),
			TimeZone: loc.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: models.Localize(event.EndTime, loc).Format(time.RFC3339),
			TimeZone: loc.String(),
		},
	}
	if event.HasLocation() {
		ge.Location = *event.Location
	}
	for _, a := range event.Attendees {
		ge.Attendees = append(ge.Attendees, &calendar.EventAttendee{Email: a})
	}

	reminders := &calendar.EventReminders{
		UseDefault:      false,
		ForceSendFields: []string{"UseDefault"},
	}
	if minutes, ok := event.Reminder(); ok {
		reminders.Overrides = []*calendar.EventReminder{{
			Method:          "popup",
			Minutes:         int64(minutes),
			ForceSendFields: []string{"Minutes"},
		}}
	}
	ge.Reminders = reminders
	return ge
}

// GetOAuthConfigForAuthFlow is used by the auth command to get the config for the web flow.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return getOAuthConfig(clientID, clientSecret)
}

// getOAuthConfig reads credentials and returns an OAuth2 config.
// It prioritizes explicit client credentials over a local credentials.json file.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the working directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob" // For desktop app flow
	return config, nil
}

// TokenFromWeb exchanges an authorization code for a token.
func TokenFromWeb(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// TokenFile returns the token file name for an account.
func TokenFile(accountName string) string {
	return "token-" + accountName + ".json"
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// GetTokenAccounts lists the accounts that have a token file in dir.
func GetTokenAccounts(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, file := range files {
		if strings.HasPrefix(file.Name(), "token-") && strings.HasSuffix(file.Name(), ".json") {
			accountName := strings.TrimSuffix(strings.TrimPrefix(file.Name(), "token-"), ".json")
			accounts = append(accounts, accountName)
		}
	}
	return accounts, nil
}
