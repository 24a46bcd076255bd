package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danmuck/notifyctl/internal/eventclient"
	"github.com/danmuck/notifyctl/internal/protocol"
	"github.com/spf13/cobra"
)

func (a *app) notifyCmd() *cobra.Command {
	var iconKind, iconFile string
	cmd := &cobra.Command{
		Use:   "notify HEADER [MESSAGE]",
		Short: "Show a pop-up notification",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			header := args[0]
			message := ""
			if len(args) > 1 {
				message = args[1]
			}
			icon, err := resolveIcon(iconKind, iconFile)
			if err != nil {
				return err
			}
			ref := eventclient.IconRef{}
			if iconFile != "" {
				ref = eventclient.IconFile(iconFile)
			}
			return a.withClient(cmd, func(ctx context.Context, c *eventclient.Client) bool {
				return c.SendNotification(ctx, header, message, icon, ref, a.cfg.Host)
			})
		},
	}
	cmd.Flags().StringVar(&iconKind, "icon", "", "none|info|warning|error|jpeg|png|gif (inferred from --icon-file)")
	cmd.Flags().StringVar(&iconFile, "icon-file", "", "image to attach as a custom icon")
	return cmd
}

func (a *app) actionCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "action COMMAND",
		Short: "Run a builtin or button action on the player",
		Example: `  notifyctl action 'UpdateLibrary(video)'
  notifyctl action --kind button Back`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := protocol.ParseActionKind(kind)
			if err != nil {
				return err
			}
			return a.withClient(cmd, func(ctx context.Context, c *eventclient.Client) bool {
				return c.SendAction(ctx, a.cfg.Host, k, args[0])
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "execbuiltin", "execbuiltin|button")
	return cmd
}

func (a *app) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Send a keep-alive packet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *eventclient.Client) bool {
				return c.SendPing(ctx, a.cfg.Host)
			})
		},
	}
}

func (a *app) helloCmd() *cobra.Command {
	var iconKind, iconFile string
	cmd := &cobra.Command{
		Use:   "hello",
		Short: "Announce this client to the player by device name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			icon, err := resolveIcon(iconKind, iconFile)
			if err != nil {
				return err
			}
			ref := eventclient.IconRef{}
			if iconFile != "" {
				ref = eventclient.IconFile(iconFile)
			}
			return a.withClient(cmd, func(ctx context.Context, c *eventclient.Client) bool {
				return c.SendHello(ctx, a.cfg.Host, icon, ref)
			})
		},
	}
	cmd.Flags().StringVar(&iconKind, "icon", "", "jpeg|png|gif (inferred from --icon-file)")
	cmd.Flags().StringVar(&iconFile, "icon-file", "", "image shown by the player for this client")
	return cmd
}

func (a *app) byeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bye",
		Short: "Tell the player this client is going away",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *eventclient.Client) bool {
				return c.SendBye(ctx, a.cfg.Host)
			})
		},
	}
}

// resolveIcon prefers an explicit kind and falls back to the file extension.
func resolveIcon(kind, file string) (protocol.IconKind, error) {
	if kind == "" && file != "" {
		kind = filepath.Ext(file)
	}
	icon, err := protocol.ParseIconKind(kind)
	if err != nil {
		return protocol.IconNone, err
	}
	if icon.CustomImage() && file == "" {
		return protocol.IconNone, fmt.Errorf("--icon %s requires --icon-file", icon)
	}
	return icon, nil
}
