package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/notifyctl/internal/eventclient"
	"github.com/danmuck/notifyctl/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const envConfigPath = "NOTIFYCTL_CONFIG"

var errSendFailed = errors.New("send failed")

// app carries flag values and the resolved config between cobra hooks.
type app struct {
	cfgPath  string
	host     string
	port     int
	timeout  time.Duration
	logLevel string

	cfg clientConfig

	// newTransport is swapped in tests.
	newTransport func() (eventclient.Transport, func() error, error)
}

func newApp() *app {
	return &app{
		cfg:          defaultClientConfig(),
		newTransport: openUDPTransport,
	}
}

func openUDPTransport() (eventclient.Transport, func() error, error) {
	tr, err := eventclient.ListenUDP()
	if err != nil {
		return nil, nil, err
	}
	return tr, tr.Close, nil
}

func newRootCmd() *cobra.Command {
	return newApp().rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "notifyctl",
		Short: "Push notifications and remote actions to a media player event server",
		Long: `notifyctl sends pop-up notifications and builtin actions to a media
player's UDP event server. Delivery is fire-and-forget: success means the
datagrams left this host, not that the player displayed them.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.prepare,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgPath, "config", "c", "", "client config file (TOML); defaults to $"+envConfigPath)
	flags.StringVarP(&a.host, "host", "H", "", "destination host name or address")
	flags.IntVarP(&a.port, "port", "p", 0, "destination event server port")
	flags.DurationVar(&a.timeout, "timeout", 0, "per-message resolve+send timeout")
	flags.StringVar(&a.logLevel, "log-level", "", "trace|debug|info|warn|error|off")

	root.AddCommand(
		a.notifyCmd(),
		a.actionCmd(),
		a.pingCmd(),
		a.helloCmd(),
		a.byeCmd(),
		a.listenCmd(),
		a.serveCmd(),
		configCmd(),
	)
	return root
}

func (a *app) prepare(cmd *cobra.Command, _ []string) error {
	logging.ConfigureRuntime()
	if lvl, ok := logging.ParseLevel(a.logLevel); ok {
		zerolog.SetGlobalLevel(lvl)
	}

	path := a.cfgPath
	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path != "" {
		cfg, err := loadClientConfig(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		a.cfg.Host = a.host
	}
	if flags.Changed("port") {
		a.cfg.Client.Port = a.port
	}
	if flags.Changed("timeout") {
		a.cfg.Client.Timeout = a.timeout
	}
	return nil
}

// withClient opens a transport for one command invocation and maps a false
// send result onto errSendFailed.
func (a *app) withClient(cmd *cobra.Command, send func(context.Context, *eventclient.Client) bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, closeFn, err := a.newTransport()
	if err != nil {
		return err
	}
	defer closeFn()

	client := eventclient.New(a.cfg.Client, tr)
	if !send(ctx, client) {
		return errSendFailed
	}
	return nil
}
