package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/notifyctl/internal/config"
	"github.com/danmuck/notifyctl/internal/eventclient"
	"github.com/danmuck/notifyctl/internal/observability"
	"github.com/danmuck/notifyctl/internal/protocol"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Sender is the event-client surface the relay forwards to.
type Sender interface {
	SendNotification(ctx context.Context, header, message string, icon protocol.IconKind, ref eventclient.IconRef, host string) bool
	SendAction(ctx context.Context, host string, kind protocol.ActionKind, command string) bool
	SendPing(ctx context.Context, host string) bool
}

// Relay exposes event sends over HTTP for dispatchers on other hosts.
type Relay struct {
	Name        string
	Addr        string
	DefaultHost string
	Appeared    time.Time

	sender Sender
	router *gin.Engine
}

func NewRelay(cfg config.RelayConfig, sender Sender) *Relay {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	if len(cfg.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CorsOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	relay := &Relay{
		Name:        cfg.Name,
		Addr:        cfg.Addr,
		DefaultHost: cfg.Target.Host,
		Appeared:    time.Now(),
		sender:      sender,
		router:      r,
	}
	relay.RegisterRoutes()
	return relay
}

func (r *Relay) Router() *gin.Engine {
	return r.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (r *Relay) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              r.Addr,
		Handler:           r.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", r.Addr).Str("name", r.Name).Msg("relay listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Str("name", r.Name).Msg("relay stopped")
	return nil
}
