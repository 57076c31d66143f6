package cmd

import (
	"os/signal"
	"syscall"

	"github.com/khushisara1/news-digest/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagAddr    string
	flagOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API for a web front end",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(setupOpts{feed: true})
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.Server.Addr
		if cmd.Flags().Changed("addr") || addr == "" {
			addr = flagAddr
		}

		srv := server.New(server.Options{
			Store:         a.store,
			Feed:          a.svc,
			Defaults:      a.cfg.Preferences,
			TopicPageSize: a.cfg.TopicPageSize(),
			Logger:        a.log,
			AllowOrigins:  flagOrigins,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a.log.Info("serving", zap.String("addr", addr))
		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().StringSliceVar(&flagOrigins, "allow-origin", nil, "CORS origin (repeatable)")
}
