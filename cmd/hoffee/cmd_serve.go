package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hoffee-app/hoffee/app/backend"
	"github.com/hoffee-app/hoffee/app/history"
	"github.com/hoffee-app/hoffee/app/notify"
	appstore "github.com/hoffee-app/hoffee/app/store"
	"github.com/hoffee-app/hoffee/app/terminal"
	"github.com/hoffee-app/hoffee/config"
	"github.com/hoffee-app/hoffee/pkg/cache"
	"github.com/hoffee-app/hoffee/pkg/event"
	"github.com/hoffee-app/hoffee/pkg/logger"
	"github.com/hoffee-app/hoffee/pkg/schedule"
	"github.com/hoffee-app/hoffee/pkg/storage"
	"github.com/hoffee-app/hoffee/pkg/workerpool"
	"github.com/hoffee-app/hoffee/pkg/ws"
)

// hoffee serve — boot the store and the barista terminal.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the barista terminal server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// Optional infrastructure: the app keeps working without Redis.
		if err := cache.Connect(); err != nil {
			logger.Warn("redis unavailable, state snapshots stay on disk", "error", err)
		}
		storage.Connect()

		if uri := config.MongoURI(); uri != "" {
			h, err := logger.NewMongoHandler(uri, config.MongoDB(), "audit")
			if err != nil {
				logger.Warn("audit log disabled", "error", err)
			} else {
				defer h.Close()
				logger.AttachAudit(h)
			}
		}

		archive, err := history.Open(config.HistoryDSN())
		if err != nil {
			return fmt.Errorf("open order archive: %w", err)
		}
		defer archive.Close()

		client := backend.New()
		effects := workerpool.New(8)
		defer effects.Shutdown()

		st := appstore.New(appstore.Options{
			Backend: client,
			Bus:     event.Default,
			Effects: effects,
			Archive: archive,
		})

		hub := ws.NewHub()
		go hub.Run()
		notify.New(hub).Subscribe(event.Default)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Load the menu once at boot, then keep it fresh in the background.
		st.RefreshMenu(ctx)
		schedule.Every(config.MenuRefreshInterval()).
			Name("menu-refresh").
			WithoutOverlapping().
			Run(func() { st.RefreshMenu(ctx) })
		schedule.Start(ctx)

		return terminal.New(st, hub, client).Start()
	},
}
