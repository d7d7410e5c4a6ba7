package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"aical/internal/batch"
	"aical/internal/caldav"
	"aical/internal/extract"
	"aical/internal/google"
	"aical/internal/ics"
	"aical/internal/llm"
	"aical/internal/models"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "aical",
		Usage: "Turn natural-language appointments into calendar events.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error", EnvVars: []string{"LOG_LEVEL"}},
		},
		Commands: []*cli.Command{
			authCommand(),
			createCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "google-client-id", EnvVars: []string{"GOOGLE_CLIENT_ID"}},
			&cli.StringFlag{Name: "google-client-secret", EnvVars: []string{"GOOGLE_CLIENT_SECRET"}},
			&cli.StringFlag{Name: "account", Usage: "Name for this account (e.g. 'personal', 'work')"},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.String("log-level"))
			logger.Info("Starting Google authentication flow.")

			config, err := google.GetOAuthConfigForAuthFlow(c.String("google-client-id"), c.String("google-client-secret"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(c.Context, config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			accountName := c.String("account")
			if accountName == "" {
				fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
				accountName, _ = reader.ReadString('\n')
				accountName = strings.TrimSpace(accountName)
			}
			if accountName == "" {
				return fmt.Errorf("account name is required")
			}

			tokenFile := google.TokenFile(accountName)
			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Extract events from text and write them to an ICS file.",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "text", Aliases: []string{"t"}, Usage: "Appointment text; repeat for several entries"},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Read entries from a file ('-' for stdin)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "my_calendar.ics", Usage: "Output ICS file"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Extract only; do not publish or save."},

			&cli.StringFlag{Name: "api-key", EnvVars: []string{"AICAL_API_KEY", "OPENAI_API_KEY"}},
			&cli.StringFlag{Name: "base-url", Value: llm.DefaultBaseURL, EnvVars: []string{"AICAL_BASE_URL"}},
			&cli.StringFlag{Name: "model", Value: llm.DefaultModel, EnvVars: []string{"AICAL_MODEL"}},
			&cli.DurationFlag{Name: "timeout", Value: llm.DefaultTimeout, EnvVars: []string{"AICAL_TIMEOUT"}},
			&cli.IntFlag{Name: "max-retries", Value: extract.DefaultMaxRetries, EnvVars: []string{"AICAL_MAX_RETRIES"}},
			&cli.StringFlag{Name: "timezone", Value: extract.DefaultTimezone, EnvVars: []string{"AICAL_TIMEZONE"}},
			&cli.StringFlag{Name: "holidays", Usage: "YAML holiday table overriding the built-in one", EnvVars: []string{"AICAL_HOLIDAYS"}},

			&cli.BoolFlag{Name: "caldav", Usage: "Also publish events to a CalDAV calendar."},
			&cli.StringFlag{Name: "caldav-endpoint", Value: caldav.DefaultEndpoint, EnvVars: []string{"CALDAV_ENDPOINT"}},
			&cli.StringFlag{Name: "caldav-username", EnvVars: []string{"CALDAV_USERNAME"}},
			&cli.StringFlag{Name: "caldav-password", EnvVars: []string{"CALDAV_PASSWORD"}},
			&cli.StringFlag{Name: "caldav-calendar", EnvVars: []string{"CALDAV_CALENDAR_NAME"}},

			&cli.BoolFlag{Name: "google", Usage: "Also publish events to Google Calendar."},
			&cli.StringFlag{Name: "google-client-id", EnvVars: []string{"GOOGLE_CLIENT_ID"}},
			&cli.StringFlag{Name: "google-client-secret", EnvVars: []string{"GOOGLE_CLIENT_SECRET"}},
			&cli.StringFlag{Name: "google-calendar", Value: google.DefaultCalendarID, EnvVars: []string{"GOOGLE_CALENDAR_ID"}},
			&cli.StringFlag{Name: "google-account", Usage: "Account name used with 'auth'", EnvVars: []string{"GOOGLE_ACCOUNT"}},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(c.String("log-level"))
			dryRun := c.Bool("dry-run")
			if dryRun {
				logger.Info("Performing a dry run. Nothing will be published or saved.")
			}

			loc, err := time.LoadLocation(c.String("timezone"))
			if err != nil {
				return fmt.Errorf("invalid timezone '%s': %w", c.String("timezone"), err)
			}

			extractor, err := newExtractor(c, logger, loc)
			if err != nil {
				return err
			}

			encoder, err := ics.NewEncoder(logger, loc)
			if err != nil {
				return fmt.Errorf("failed to create encoder: %w", err)
			}

			publishers, err := newPublishers(c, logger, loc)
			if err != nil {
				return err
			}

			texts, err := readEntries(c)
			if err != nil {
				return err
			}
			if len(texts) == 0 {
				return fmt.Errorf("no entries given")
			}
			fmt.Printf("\nReceived %d entries, processing...\n", len(texts))

			results := batch.NewRunner(logger, extractor, encoder, publishers, dryRun).Run(c.Context, texts)
			printResults(os.Stdout, results)

			if dryRun {
				return nil
			}
			if encoder.Len() == 0 {
				return fmt.Errorf("no events were created")
			}
			if err := encoder.Save(c.String("out")); err != nil {
				return err
			}
			fmt.Printf("\n✓ Calendar file written: %s\n", c.String("out"))
			return nil
		},
	}
}

func newExtractor(c *cli.Context, logger *slog.Logger, loc *time.Location) (*extract.Extractor, error) {
	llmClient, err := llm.NewClient(logger, llm.Config{
		BaseURL: c.String("base-url"),
		APIKey:  c.String("api-key"),
		Model:   c.String("model"),
		Timeout: c.Duration("timeout"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	cfg := extract.DefaultClientConfig()
	cfg.MaxRetries = c.Int("max-retries")
	if path := c.String("holidays"); path != "" {
		table, err := extract.LoadHolidays(path)
		if err != nil {
			return nil, err
		}
		cfg.Holidays = &table
		logger.Info("Loaded holiday table.", "file", path, "year", table.Year, "holidays", len(table.Holidays))
	}

	extractor, err := extract.NewExtractor(logger, extract.NewClient(logger, llmClient, cfg), loc)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}
	return extractor, nil
}

func newPublishers(c *cli.Context, logger *slog.Logger, loc *time.Location) ([]batch.Publisher, error) {
	var publishers []batch.Publisher

	if c.Bool("caldav") {
		client, err := caldav.NewClient(c.Context, logger, caldav.Config{
			Endpoint:     c.String("caldav-endpoint"),
			Username:     c.String("caldav-username"),
			Password:     c.String("caldav-password"),
			CalendarName: c.String("caldav-calendar"),
			Location:     loc,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create caldav client: %w", err)
		}
		publishers = append(publishers, client)
	}

	if c.Bool("google") {
		account := c.String("google-account")
		if account == "" {
			accounts, err := google.GetTokenAccounts(".")
			if err != nil {
				return nil, fmt.Errorf("could not find any google accounts, did you run auth command? %w", err)
			}
			if len(accounts) != 1 {
				return nil, fmt.Errorf("found %d google accounts; set --google-account", len(accounts))
			}
			account = accounts[0]
		}

		client, err := google.NewClient(c.Context, logger, c.String("google-client-id"), c.String("google-client-secret"), account, c.String("google-calendar"), loc)
		if err != nil {
			return nil, fmt.Errorf("failed to create google client for account %s: %w", account, err)
		}
		publishers = append(publishers, client)
	}

	return publishers, nil
}

func readEntries(c *cli.Context) ([]string, error) {
	if texts := c.StringSlice("text"); len(texts) > 0 {
		return texts, nil
	}

	var r io.Reader = os.Stdin
	if path := c.String("input"); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		r = f
	} else {
		fmt.Println("Enter one appointment per entry.")
		fmt.Println("Type '---' or '===' to start the next entry.")
		fmt.Println("Type 'done' or 'exit', or press Enter twice, to finish.")
	}
	return batch.SplitEntries(r)
}

func printResults(w io.Writer, results []batch.Result) {
	for _, res := range results {
		if !res.OK() {
			fmt.Fprintf(w, "✗ Entry %d failed: %v\n", res.Index, res.Err)
			continue
		}

		ev := res.Event
		fmt.Fprintf(w, "✓ Entry %d added: %s\n", res.Index, ev.Summary)
		fmt.Fprintf(w, "  Time: %s - %s\n", ev.StartTime.Format(models.DateTimeLayout), ev.EndTime.Format(models.DateTimeLayout))
		if ev.HasLocation() {
			fmt.Fprintf(w, "  Location: %s\n", *ev.Location)
		}
		if len(ev.Attendees) > 0 {
			fmt.Fprintf(w, "  Attendees: %s\n", strings.Join(ev.Attendees, ", "))
		}
		for _, name := range res.Published {
			fmt.Fprintf(w, "  Published to %s\n", name)
		}
		for _, perr := range res.PublishErrors {
			fmt.Fprintf(w, "  ✗ Publish failed: %v\n", perr)
		}
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
