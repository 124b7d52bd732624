package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/gcbaptista/go-hotel-search/internal/session"
	"github.com/gcbaptista/go-hotel-search/internal/source"
	"github.com/gcbaptista/go-hotel-search/internal/upstream"
	"github.com/gcbaptista/go-hotel-search/model"
	"github.com/gcbaptista/go-hotel-search/services"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "hotelctl",
		Usage: "Search and rank hotels from the live backend or the local dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "search",
				Usage:  "Run one search and print the ranked hotels",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "city",
						Aliases:  []string{"c"},
						Usage:    "City to search",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "checkin",
						Usage: "Check-in date (YYYY-MM-DD), required for live searches",
					},
					&cli.StringFlag{
						Name:  "checkout",
						Usage: "Check-out date (YYYY-MM-DD), required for live searches",
					},
					&cli.IntFlag{
						Name:  "adults",
						Usage: "Number of adults",
						Value: 1,
					},
					&cli.StringFlag{
						Name:    "source",
						Aliases: []string{"s"},
						Usage:   "Where to search first (live, local)",
						Value:   string(model.SourceLive),
					},
					&cli.BoolFlag{
						Name:  "load-more",
						Usage: "Merge in hotels from the other source after the search",
					},
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "Bypass the backend cache for a live search",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Keep only hotels whose name contains this text",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort field for live and combined results (Final_rating, Price)",
						Value: string(model.SortFieldRating),
					},
					&cli.StringFlag{
						Name:  "order",
						Usage: "Sort order (asc, desc)",
						Value: string(model.SortOrderDesc),
					},
					&cli.Float64Flag{
						Name:  "rating",
						Usage: "Target rating for local relevance ranking",
						Value: session.DefaultTargetRating,
					},
					&cli.Float64Flag{
						Name:  "price",
						Usage: "Target price for local relevance ranking",
						Value: session.DefaultTargetPrice,
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of nearest local hotels to keep before the incomplete ones",
						Value: session.DefaultK,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Print at most this many hotels (0 prints all)",
					},
					&cli.StringFlag{
						Name:    "url",
						Usage:   "Hotel backend base URL",
						Value:   "http://localhost:5000",
						EnvVars: []string{"HOTEL_SEARCH_UPSTREAM_URL"},
					},
					&cli.StringFlag{
						Name:    "dataset",
						Usage:   "CSV file serving local hotels instead of the backend",
						EnvVars: []string{"HOTEL_SEARCH_DATASET"},
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Timeout for each backend request",
						Value: source.DefaultTimeout,
					},
				},
			},
		},
	}
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()
	logger := slog.Default()

	client := upstream.NewClient(c.String("url"), upstream.WithLogger(logger))
	var local services.LocalSource = client
	if path := c.String("dataset"); path != "" {
		local = upstream.NewDataset(path, logger)
	}

	manager, err := session.NewManager(client, local,
		session.WithLogger(logger),
		session.WithControllerOptions(source.WithLogger(logger), source.WithTimeout(c.Duration("timeout"))),
	)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}
	s, err := manager.Create()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	params := services.SearchParams{
		City:     c.String("city"),
		CheckIn:  c.String("checkin"),
		CheckOut: c.String("checkout"),
		Adults:   c.Int("adults"),
	}
	src := model.SourceState(strings.ToLower(c.String("source")))

	if c.Bool("refresh") {
		if src != model.SourceLive {
			return fmt.Errorf("--refresh only applies to live searches")
		}
		err = s.Refresh(ctx, params)
	} else {
		err = s.Search(ctx, src, params)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if c.Bool("load-more") {
		if err := s.LoadMore(ctx); err != nil {
			return fmt.Errorf("load more failed: %w", err)
		}
	}

	query := c.String("query")
	sortField := c.String("sort")
	sortOrder := c.String("order")
	rating := c.Float64("rating")
	price := c.Float64("price")
	k := c.Int("k")
	if _, err := s.UpdateView(session.ViewUpdate{
		Query:        &query,
		SortField:    &sortField,
		SortOrder:    &sortOrder,
		TargetRating: &rating,
		TargetPrice:  &price,
		K:            &k,
	}); err != nil {
		return fmt.Errorf("invalid ranking options: %w", err)
	}

	return printResults(c.App.Writer, s.Results(), c.Int("limit"))
}

func printResults(out io.Writer, results model.ResultSet, limit int) error {
	hotels := results.Hotels
	if limit > 0 && len(hotels) > limit {
		hotels = hotels[:limit]
	}

	fmt.Fprintf(out, "Source: %s (from cache: %t) | %d of %d hotels\n\n", results.Source, results.FromCache, results.Count, results.Total)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tNAME\tRATING\tPRICE\tCURRENCY\tSTATUS")
	for i, hotel := range hotels {
		id, _ := hotel.GetID()
		rating := hotel[model.FieldFinalRating]
		if isBlank(rating) {
			rating = hotel[model.FieldRating]
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			orDash(id),
			display(hotel[model.FieldName]),
			display(rating),
			display(hotel[model.FieldPrice]),
			display(hotel[model.FieldCurrency]),
			display(hotel[model.FieldStatus]),
		)
	}
	return w.Flush()
}

func display(val interface{}) string {
	if isBlank(val) {
		return "-"
	}
	return fmt.Sprint(val)
}

func isBlank(val interface{}) bool {
	if val == nil {
		return true
	}
	s, ok := val.(string)
	return ok && strings.TrimSpace(s) == ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
