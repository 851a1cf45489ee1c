package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Iki-leo/emoji-mood-tracker/internal/api"
	"github.com/Iki-leo/emoji-mood-tracker/internal/config"
	"github.com/Iki-leo/emoji-mood-tracker/internal/domain"
	"github.com/Iki-leo/emoji-mood-tracker/internal/stats"
	"github.com/Iki-leo/emoji-mood-tracker/internal/store"
)

func setCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "set [mood]",
		Short: "Set the mood for a day (emoji or name, e.g. happy)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.getStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if date == "" {
				date = domain.FormatDate(a.today())
			}

			err = s.Upsert(cmd.Context(), domain.Patch{Date: date, Emoji: args[0]})
			if err != nil {
				return reportError(cmd.ErrOrStderr(), err)
			}

			rec, _ := s.Get(date)
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", rec.Date, rec.Emoji)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "day (YYYY-MM-DD), defaults to today")
	return cmd
}

func noteCmd(a *app) *cobra.Command {
	var form domain.NoteForm

	cmd := &cobra.Command{
		Use:   "note",
		Short: "Attach a note, rating and tags to a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.Date == "" {
				form.Date = domain.FormatDate(a.today())
			}
			if err := form.Validate(); err != nil {
				return reportError(cmd.ErrOrStderr(), err)
			}

			s, err := a.getStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Upsert(cmd.Context(), form.Patch()); err != nil {
				return reportError(cmd.ErrOrStderr(), err)
			}

			rec, _ := s.Get(form.Date)
			printRecord(cmd.OutOrStdout(), rec)
			return nil
		},
	}

	cmd.Flags().StringVarP(&form.Date, "date", "d", "", "day (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVarP(&form.Note, "note", "m", "", "what happened today")
	cmd.Flags().IntVarP(&form.Rating, "rating", "r", 0, "rating from 1 to 5")
	cmd.Flags().StringSliceVarP(&form.Tags, "tag", "t", nil, "tag (repeatable)")
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [date]",
		Short: "Delete the entry for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := domain.ParseDate(args[0]); err != nil {
				return err
			}

			s, err := a.getStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return reportError(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [date]",
		Short: "Show the entry for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.getStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			rec, ok := s.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrNotFound, args[0])
			}
			printRecord(cmd.OutOrStdout(), rec)
			return nil
		},
	}
}

func listCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries in the order they were recorded",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.getStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			records := s.All().Records
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entries yet. Use 'mood set' to record a day.")
				return nil
			}
			if limit > 0 && limit < len(records) {
				records = records[len(records)-limit:]
			}

			for _, r := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", r.Date, r.Emoji, truncate(r.Note, 60))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the last n entries")
	return cmd
}

func moodsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "moods",
		Short: "List the moods you can pick",
		// no journal access
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, m := range domain.Catalog {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s %s\n", m.Emoji, m.Value, m.Description)
			}
			return nil
		},
	}
}

func demoCmd(a *app) *cobra.Command {
	var seed uint64

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Replace the journal with 30 sample days",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.getStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			if err := s.LoadDemo(cmd.Context(), a.today(), store.NewDemoRand(seed)); err != nil {
				return reportError(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d sample days\n", store.DemoDays)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for reproducible data")
	return cmd
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show mood statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.getStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			summary, ok := stats.Compute(s.All().Records, a.today())
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not enough data for statistics yet. Record a few days first.")
				return nil
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func exportCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all entries to stdout as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.getStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			records := s.All().Records
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if records == nil {
					records = []domain.Record{}
				}
				return enc.Encode(records)
			case "yaml":
				enc := yaml.NewEncoder(out)
				defer enc.Close()
				return enc.Encode(records)
			}
			return fmt.Errorf("unknown format %q (want json or yaml)", format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or yaml")
	return cmd
}

func configCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := config.Format(a.cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			for _, src := range a.cfg.Sources {
				fmt.Fprintf(cmd.ErrOrStderr(), "loaded %s\n", src)
			}
			return nil
		},
	}
}

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.getStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			server := api.New(s, a.cfg.Addr, api.WithLogger(a.logger), api.WithClock(a.today))
			defer server.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&a.overrides.Addr, "addr", "a", "", "listen address")
	return cmd
}

// reportError prints field errors one per line and keeps persistence
// failures distinguishable from bad input
func reportError(w io.Writer, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			fmt.Fprintf(w, "  %s: %s\n", f.Field, f.Message)
		}
		return errors.New("invalid input")
	}

	var perr *store.PersistError
	if errors.As(err, &perr) {
		return fmt.Errorf("journal not saved: %w", perr.Err)
	}
	return err
}

func printRecord(w io.Writer, r domain.Record) {
	fmt.Fprintf(w, "Date:   %s\n", r.Date)
	mood := r.Emoji
	if m, ok := domain.LookupMood(r.Emoji); ok {
		mood = m.Emoji + " " + m.Label
	}
	fmt.Fprintf(w, "Mood:   %s\n", mood)
	if r.Rating > 0 {
		fmt.Fprintf(w, "Rating: %s\n", strings.Repeat("⭐", r.Rating))
	}
	if r.Note != "" {
		fmt.Fprintf(w, "Note:   %s\n", r.Note)
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(w, "Tags:   %s\n", strings.Join(r.Tags, ", "))
	}
}

func printSummary(w io.Writer, s *stats.Summary) {
	fmt.Fprintf(w, "Days recorded:   %d\n", s.Total)
	fmt.Fprintf(w, "Average rating:  %.1f ⭐\n", s.AverageRating)
	fmt.Fprintf(w, "Most frequent:   %s (%d days)\n", s.MostFrequent, s.MostFrequentCount)
	fmt.Fprintf(w, "Days with notes: %d\n", s.WithNotes)

	fmt.Fprintf(w, "\nDistribution:\n")
	for _, c := range s.Distribution {
		fmt.Fprintf(w, "  %s %3d %s\n", c.Emoji, c.Count, strings.Repeat("█", c.Count))
	}

	if len(s.RatingByEmoji) > 0 {
		fmt.Fprintf(w, "\nRating by mood:\n")
		for _, r := range s.RatingByEmoji {
			fmt.Fprintf(w, "  %s %.1f (%d rated)\n", r.Emoji, r.Average, r.Rated)
		}
	}

	fmt.Fprintf(w, "\nLast %d days:\n", stats.TrailingDays)
	for _, p := range s.Trailing {
		fmt.Fprintf(w, "  %s %s %s\n", p.Label, p.Emoji, strings.Repeat("*", p.Rating))
	}

	if len(s.TopTags) > 0 {
		fmt.Fprintf(w, "\nTop tags:\n")
		for _, t := range s.TopTags {
			fmt.Fprintf(w, "  %s (%d)\n", t.Tag, t.Count)
		}
	}
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
