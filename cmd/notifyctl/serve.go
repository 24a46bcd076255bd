package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/notifyctl/internal/config"
	"github.com/danmuck/notifyctl/internal/eventclient"
	"github.com/danmuck/notifyctl/internal/observability"
	"github.com/danmuck/notifyctl/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func (a *app) serveCmd() *cobra.Command {
	var relayPath, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay that forwards events to the player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			observability.InitLogger("notifyctl-relay", zerolog.GlobalLevel())
			gin.SetMode(gin.ReleaseMode)

			relayCfg := config.DefaultRelayConfig()
			relayCfg.Target.Host = a.cfg.Host
			clientCfg := a.cfg.Client
			if relayPath != "" {
				loaded, err := config.LoadRelayConfig(relayPath)
				if err != nil {
					return err
				}
				relayCfg = loaded
				if clientCfg, err = relayCfg.ClientConfig(); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("host") {
				relayCfg.Target.Host = a.cfg.Host
			}
			if addr != "" {
				relayCfg.Addr = addr
			}

			tr, closeFn, err := a.newTransport()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			relay := server.NewRelay(relayCfg, eventclient.New(clientCfg, tr))
			return relay.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&relayPath, "relay-config", "", "relay config file (TOML)")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	return cmd
}
