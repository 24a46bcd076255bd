package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/notifyctl/internal/observability"
	"github.com/danmuck/notifyctl/internal/receiver"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (a *app) listenCmd() *cobra.Command {
	cfg := receiver.DefaultConfig()
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print event packets received on a UDP port (for testing senders)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := observability.InitLogger("notifyctl-listen", zerolog.GlobalLevel())
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg.MaxPayload = a.cfg.Client.MaxPayload
			l, err := receiver.Listen(cfg, func(m receiver.Message) {
				receiver.LogMessage(logger, m)
			})
			if err != nil {
				return err
			}
			log.Info().Str("addr", l.Addr().String()).Msg("listening for events")

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return l.Serve(ctx)
			})
			if metricsAddr != "" {
				g.Go(func() error {
					return serveMetrics(ctx, metricsAddr)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "UDP address to listen on")
	cmd.Flags().DurationVar(&cfg.FragmentTTL, "fragment-ttl", cfg.FragmentTTL, "drop incomplete messages after this long")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address")
	return cmd
}

func serveMetrics(ctx context.Context, addr string) error {
	observability.RegisterMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
