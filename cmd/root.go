package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/khushisara1/news-digest/internal/config"
	"github.com/khushisara1/news-digest/internal/tui"
	"github.com/khushisara1/news-digest/internal/update"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagRefresh bool
	flagConfig  string
	flagCheck   bool
)

var rootCmd = &cobra.Command{
	Use:   "newsdigest",
	Short: "Personal news digest dashboard",
	Long: `newsdigest fetches headlines for the topics you follow, summarizes them,
and lets you save, rate and export the ones worth keeping.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(flagRefresh)
	},
}

// browseCmd skips the home screen and opens today's feed.
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Open the feed directly",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(true)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.Flags().BoolVar(&flagRefresh, "refresh", false, "clear the cache and fetch the feed on launch")
	versionCmd.Flags().BoolVar(&flagCheck, "check", false, "check GitHub for a newer release")

	rootCmd.AddCommand(versionCmd, browseCmd)
	rootCmd.AddCommand(fetchCmd, savedCmd, digestCmd, cacheCmd)
	rootCmd.AddCommand(pruneCmd, statsCmd, serveCmd)
}

func runTUI(startInFeed bool) error {
	a, err := setup(setupOpts{feed: true, quiet: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if flagRefresh {
		if err := a.svc.ClearCache(context.Background()); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
	}
	// Stale feeds open straight into a fetch.
	if a.store.NeedsRefresh(a.cfg.Preferences.Window()) {
		startInFeed = true
	}

	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}

	var latest string
	if version != "dev" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if res := update.Check(ctx, version); res != nil {
			latest = res.LatestVersion
		}
		cancel()
	}

	return tui.Run(tui.RunOpts{
		Cfg:           a.cfg,
		ConfigPath:    cfgPath,
		Feed:          a.svc,
		Store:         a.store,
		Logger:        a.log,
		StartInFeed:   startInFeed,
		UpdateVersion: latest,
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newsdigest %s (commit: %s, built: %s)\n", version, commit, date)
		if !flagCheck {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if res := update.Check(ctx, version); res != nil {
			fmt.Printf("A newer version is available: %s\n%s\n", res.LatestVersion, res.URL)
		} else {
			fmt.Println("You are on the latest version.")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
