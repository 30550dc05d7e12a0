package serve

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/falmar/swarmkeeper/internal/api"
	"github.com/falmar/swarmkeeper/internal/app"
	"github.com/falmar/swarmkeeper/internal/config"
	"github.com/falmar/swarmkeeper/internal/reconciler"
	"github.com/falmar/swarmkeeper/internal/registry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version = "dev"

const shutdownTimeout = 15 * time.Second

func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reconciler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			store, err := app.OpenCatalog(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := app.SeedCatalog(ctx, cfg, store); err != nil {
				return err
			}

			docker, err := app.DialDocker(cfg)
			if err != nil {
				return err
			}

			publisher := app.NewPublisher(ctx, cfg)
			svc := app.NewManager(cfg, store, docker, publisher)

			rec := reconciler.New(&reconciler.Config{
				Observer: docker.Cluster,
				Store:    store,
				Notifier: publisher,
				Interval: cfg.Health.Interval,
			})
			rec.Start(context.WithoutCancel(ctx))

			server := api.NewServer(&api.Config{
				Addr:        cfg.HTTP.Addr,
				Version:     Version,
				ProjectsDir: cfg.Projects.Dir,
				Manager:     svc,
				Registry: registry.New(&registry.Config{
					URL:      cfg.Registry.URL,
					Username: cfg.Registry.Username,
					Password: cfg.Registry.Password,
				}),
			})

			errChan := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.HTTP.Addr).Str("version", Version).Msg("http server listening")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errChan <- err
				}
				close(errChan)
			}()

			var serveErr error
			select {
			case <-ctx.Done():
				log.Info().Msg("received quit signal...")
			case serveErr = <-errChan:
				log.Error().Err(serveErr).Msg("http server failed")
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("http server shutdown")
			}

			rec.Stop()

			if err := docker.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close docker client")
			}

			log.Info().Msg("exiting...")

			return serveErr
		},
	}

	cmd.Flags().Bool("memory", false, "keep the catalog in memory only")
	_ = viper.BindPFlag("database.memory", cmd.Flags().Lookup("memory"))
	cmd.Flags().String("addr", "", "http listen address")
	_ = viper.BindPFlag("http.addr", cmd.Flags().Lookup("addr"))

	return cmd
}
