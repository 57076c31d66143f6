package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/khushisara1/news-digest/internal/config"
	"github.com/spf13/cobra"
)

const defaultRetention = 90 * 24 * time.Hour

var flagPruneOlderThan string

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old digests and reclaim disk space",
	Long: `Delete digests created before the retention period and compact the database.

Saved items are kept. The default retention is 90d; override it with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		retention := defaultRetention
		if flagPruneOlderThan != "" {
			d, err := parseSince(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		a, err := setup(setupOpts{})
		if err != nil {
			return err
		}
		defer a.Close()

		deleted, err := a.store.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		if deleted == 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d digest(s) older than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show saved item and digest statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(setupOpts{})
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.store.Stats()
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Printf("Database: %s\n", a.store.Path())
		fmt.Printf("Size: %s\n", formatBytes(st.SizeBytes))
		fmt.Printf("Saved items: %d (%d rated, avg %.1f)\n", st.SavedItems, st.Rated, st.AvgRating)
		fmt.Printf("Digests: %d\n", st.Digests)
		if st.LastFetch.IsZero() {
			fmt.Println("Last fetch: never")
		} else {
			fmt.Printf("Last fetch: %s\n", st.LastFetch.Local().Format("2006-01-02 15:04"))
		}
		if len(st.Categories) > 0 {
			cats := make([]string, 0, len(st.Categories))
			for c := range st.Categories {
				cats = append(cats, c)
			}
			sort.Strings(cats)
			fmt.Println("Categories:")
			for _, c := range cats {
				fmt.Printf("  %-20s %d\n", c, st.Categories[c])
			}
		}
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the fetch and summary cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached feed and summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(setupOpts{feed: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.svc.ClearCache(context.Background()); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Printf("Cleared %s cache.\n", cacheBackend(a.cfg))
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")
	cacheCmd.AddCommand(cacheClearCmd)
}

func cacheBackend(cfg *config.Config) string {
	if cfg.Cache.Backend == "" {
		return "bolt"
	}
	return cfg.Cache.Backend
}

// parseSince accepts Go durations plus an "Nd" day suffix.
func parseSince(s string) (time.Duration, error) {
	d, err := config.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
