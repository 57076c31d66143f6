package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/khushisara1/news-digest/internal/ai"
	"github.com/khushisara1/news-digest/internal/classify"
	"github.com/khushisara1/news-digest/internal/config"
	"github.com/khushisara1/news-digest/internal/digest"
	"github.com/khushisara1/news-digest/internal/feed"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagTopics    []string
	flagRegion    string
	flagKeywords  string
	flagLimit     int
	flagFrequency string
	flagSave      bool
	flagJSON      bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and print a summarized feed",
	Long: `Fetch headlines for your preferences and print them with summaries.

Flags override the saved preferences for this run only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(setupOpts{feed: true})
		if err != nil {
			return err
		}
		defer a.Close()

		prefs, err := fetchPrefs(cmd, a.cfg.Preferences)
		if err != nil {
			return err
		}
		if err := config.ValidatePreferences(prefs); err != nil {
			return err
		}
		q := feed.Query{
			Topics:        prefs.Topics,
			Region:        prefs.Region,
			Keywords:      prefs.Keywords,
			Limit:         prefs.Limit,
			Frequency:     prefs.Frequency,
			TopicPageSize: a.cfg.TopicPageSize(),
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 90*time.Second)
		defer cancel()
		f, err := a.svc.Build(ctx, q)
		if err != nil {
			return fmt.Errorf("building feed: %w", err)
		}
		for _, w := range f.Warnings {
			a.log.Warn("partial feed", zap.Error(w))
		}
		if err := a.store.SetLastFetch(time.Now()); err != nil {
			a.log.Warn("recording fetch time", zap.Error(err))
		}

		if flagSave {
			for _, e := range f.Entries {
				if _, err := a.store.SaveItem(e.Item()); err != nil {
					return fmt.Errorf("saving %q: %w", e.Article.Title, err)
				}
			}
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(f.Entries)
		}
		printEntries(os.Stdout, f.Entries)
		if flagSave {
			fmt.Printf("\nSaved %d item(s).\n", len(f.Entries))
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringSliceVar(&flagTopics, "topic", nil, "topic to include (repeatable, e.g. --topic tech --topic sports)")
	fetchCmd.Flags().StringVar(&flagRegion, "region", "", "region code (us, gb, in, ...)")
	fetchCmd.Flags().StringVar(&flagKeywords, "keywords", "", "keyword search query")
	fetchCmd.Flags().IntVar(&flagLimit, "limit", 0, fmt.Sprintf("number of stories (%d-%d)", config.MinLimit, config.MaxLimit))
	fetchCmd.Flags().StringVar(&flagFrequency, "frequency", "", "daily or weekly")
	fetchCmd.Flags().BoolVar(&flagSave, "save", false, "save every fetched story")
	fetchCmd.Flags().BoolVar(&flagJSON, "json", false, "print entries as JSON")
}

// fetchPrefs layers the changed flags over p. Topic aliases resolve to
// their canonical names so saved items share one category label.
func fetchPrefs(cmd *cobra.Command, p config.Preferences) (config.Preferences, error) {
	fl := cmd.Flags()
	if fl.Changed("topic") {
		p.Topics = nil
		for _, t := range flagTopics {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			topic, err := classify.ResolveAlias(t)
			if err != nil {
				return p, err
			}
			p.Topics = append(p.Topics, string(topic))
		}
	}
	if fl.Changed("region") {
		p.Region = strings.ToLower(flagRegion)
	}
	if fl.Changed("keywords") {
		p.Keywords = strings.TrimSpace(flagKeywords)
	}
	if fl.Changed("limit") {
		p.Limit = flagLimit
	}
	if fl.Changed("frequency") {
		p.Frequency = strings.ToLower(flagFrequency)
	}
	return p, nil
}

func printEntries(w io.Writer, entries []digest.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No articles found.")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(w, "%2d. %s\n", i+1, e.Article.Title)
		fmt.Fprintf(w, "    %s · %s · %s\n", e.Article.Source, e.Category, digest.FormatTime(e.Article.PublishedAt))
		for _, line := range ai.Wrap(e.Summary, 76) {
			fmt.Fprintf(w, "    %s\n", line)
		}
		fmt.Fprintf(w, "    %s\n\n", e.Article.URL)
	}
}
