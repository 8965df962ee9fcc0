package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pelusa-v/pelusa-presence/internal/account"
	"github.com/pelusa-v/pelusa-presence/internal/chat"
	"github.com/pelusa-v/pelusa-presence/internal/config"
	"github.com/pelusa-v/pelusa-presence/internal/handlers"
)

func newServeCommand() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			cfg, err := config.Load(files...)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "config")
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env)")
	cmd.Flags().StringVar(&host, "host", "", "listen host, overrides CHAT_HOST")
	cmd.Flags().IntVar(&port, "port", 0, "listen port, overrides CHAT_PORT")
	return cmd
}

func serve(parent context.Context, cfg config.Config) error {
	log := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	store, err := account.OpenStore(cfg.StorePath(), log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info().Msg("closing account store")
		_ = store.Close()
	}()

	registry := chat.NewRegistry()
	manager := chat.NewManager(registry, chat.NewRouter(registry, log), log)
	h := handlers.New(
		manager,
		account.NewGate(store, log),
		account.NewTokens(cfg.TokenSecret, cfg.TokenTTL),
		cfg.Client(),
		cfg.CookieSecure,
		log,
	)
	app := handlers.NewApp(h, cfg.PublicDir)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("address", cfg.Addr()).Msg("server starting")
		if err := app.Listen(cfg.Addr()); err != nil {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
