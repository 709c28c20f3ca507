package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwulff/glucotrack/internal/config"
	"github.com/jwulff/glucotrack/internal/logger"
	"github.com/jwulff/glucotrack/internal/pixoo"
	"github.com/jwulff/glucotrack/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the glucose form over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), a.cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.Component("serve")

	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := web.Options{
		Store:      store,
		CookieName: cfg.Session.Cookie,
		SessionTTL: cfg.Session.TTL,
		Logger:     logger.Logger,
	}
	if mirror := newMirror(ctx, cfg); mirror != nil {
		opts.Mirror = mirror
		log.Info().Str("ip", cfg.Pixoo.IP).Msg("mirroring charts to pixoo")
	}
	server := web.New(opts)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go server.RunJanitor(ctx, janitorInterval(cfg.Session.TTL))

	errc := make(chan error, 1)
	go func() {
		errc <- server.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// janitorInterval checks a few times per TTL, but at most once a second.
func janitorInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// newMirror returns nil when no display is configured. The device's picture
// counter is reset so the first push is not ignored; a device that is offline
// now may come back later, so a failed reset is only logged.
func newMirror(ctx context.Context, cfg config.Config) *pixoo.Mirror {
	if !cfg.PixooEnabled() {
		return nil
	}
	client := pixoo.NewClient(cfg.Pixoo.IP, cfg.Pixoo.Port)

	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	if err := client.ResetGifID(ctx); err != nil {
		componentLog := logger.Component("pixoo")
		componentLog.Warn().Err(err).Str("ip", cfg.Pixoo.IP).Msg("failed to reset display")
	}
	return pixoo.NewMirror(client)
}
