package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/moroccoview/companion/internal/bookmarksync"
	"github.com/moroccoview/companion/internal/client"
	"github.com/moroccoview/companion/internal/domain"
	"github.com/moroccoview/companion/internal/polyline"
)

type rootOptions struct {
	server  string
	verbose bool
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.server)
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:          "mvctl",
		Short:        "Morocco View companion command line",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:8080", "companion server base URL")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log synchronizer activity")

	rootCmd.AddCommand(venuesCmd(opts))
	rootCmd.AddCommand(bookmarkCmd(opts))
	rootCmd.AddCommand(scheduleCmd(opts))
	rootCmd.AddCommand(routeCmd(opts))
	rootCmd.AddCommand(decodeCmd())
	return rootCmd
}

func venuesCmd(opts *rootOptions) *cobra.Command {
	var kind, city string

	cmd := &cobra.Command{
		Use:   "venues",
		Short: "List venues with their saved marker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != "" {
				if _, err := domain.ParseVenueKind(kind); err != nil {
					return err
				}
			}
			venues, err := opts.client().ListVenues(cmd.Context(), domain.VenueKind(kind), city)
			if err != nil {
				return explain(err)
			}
			out := cmd.OutOrStdout()
			if len(venues) == 0 {
				fmt.Fprintln(out, "no venues")
				return nil
			}
			for _, v := range venues {
				fmt.Fprintf(out, "%s %-14s %-24s %s\n", savedMark(v.Saved), v.Kind, v.ID, displayTitle(v))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only venues of this kind")
	cmd.Flags().StringVar(&city, "city", "", "only venues in this city")
	return cmd
}

func bookmarkCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bookmark <venue-id>...",
		Short: "Toggle the saved state of venues",
		Long: "Loads the catalog into a bookmark synchronizer and toggles every listed venue.\n" +
			"Toggles run concurrently; naming a venue twice toggles it twice.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			venues, err := c.ListVenues(cmd.Context(), "", "")
			if err != nil {
				return explain(err)
			}
			s := bookmarksync.New(c, opts.logger(cmd.ErrOrStderr()))
			s.Load(venues)

			var g errgroup.Group
			errs := make([]error, len(args))
			for i, id := range args {
				g.Go(func() error {
					_, errs[i] = s.Toggle(cmd.Context(), id)
					return nil
				})
			}
			_ = g.Wait()

			out := cmd.OutOrStdout()
			seen := map[string]bool{}
			for i, id := range args {
				if seen[id] {
					continue
				}
				seen[id] = true
				if err := errs[i]; errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
					fmt.Fprintf(out, "%s: %v\n", id, err)
					continue
				}
				v, _ := s.Get(id)
				fmt.Fprintf(out, "%s %s %s\n", savedMark(v.Saved), v.ID, displayTitle(v))
			}
			if msg := s.LastError(); msg != "" {
				return errors.New(msg)
			}
			return nil
		},
	}
}

func scheduleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <tour-id>",
		Short: "Print the day-by-day schedule of a tour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid tour id %q", args[0])
			}
			view, err := opts.client().Schedule(cmd.Context(), id)
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			if view.Placeholder {
				fmt.Fprintln(out, "Nothing scheduled yet.")
			}
			for _, d := range view.Days {
				fmt.Fprintf(out, "Day %d  %s  %s\n", d.Day, d.Date, d.City)
				for i, it := range d.Items {
					line := fmt.Sprintf("  %d. %-14s %s", i+1, it.Type, it.Title)
					if it.TimeSlot != "" {
						line += "  @ " + it.TimeSlot
					}
					if it.Duration != "" {
						line += "  (" + it.Duration + ")"
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}
}

func routeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "route <tour-id> <day>",
		Short: "Print the route legs of one schedule day",
		Long:  "day is the position in the printed schedule, starting at 1.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid tour id %q", args[0])
			}
			day, err := strconv.Atoi(args[1])
			if err != nil || day < 1 {
				return fmt.Errorf("invalid day %q: must be a positive integer", args[1])
			}
			preview, err := opts.client().DayRoute(cmd.Context(), id, day-1)
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			if !preview.Anchored {
				fmt.Fprintf(out, "Day %d has no hotel to start from; no route.\n", preview.Day)
				return nil
			}
			fmt.Fprintf(out, "Day %d: %d legs\n", preview.Day, len(preview.Legs))
			for i, leg := range preview.Legs {
				note := ""
				if leg.Fallback {
					note = "  (straight line)"
				}
				fmt.Fprintf(out, "  %d. %s -> %s  %d points  %s%s\n", i+1, leg.From, leg.To, len(leg.Points), leg.Color, note)
			}
			return nil
		},
	}
}

func decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <polyline>",
		Short: "Print the coordinates of an encoded polyline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := polyline.Decode(args[0])
			if err != nil {
				return err
			}
			for _, p := range points {
				fmt.Fprintln(cmd.OutOrStdout(), p.String())
			}
			return nil
		},
	}
}

func savedMark(saved bool) string {
	if saved {
		return "[x]"
	}
	return "[ ]"
}

func displayTitle(v domain.Venue) string {
	parts := []string{v.Title}
	if v.City != "" {
		parts = append(parts, "("+v.City+")")
	}
	return strings.Join(parts, " ")
}

// explain adds a hint to errors that mean the server is not there.
func explain(err error) error {
	if client.IsUnavailable(err) {
		return fmt.Errorf("%w (is the server running? see --server)", err)
	}
	return err
}
