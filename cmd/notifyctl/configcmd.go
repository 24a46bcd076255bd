package main

import (
	"fmt"
	"strings"

	"github.com/danmuck/notifyctl/internal/config"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write or validate config files",
	}

	var kind, output string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := output
			if target == "" {
				target = "notifyctl." + strings.ToLower(kind) + ".toml"
			}
			if err := config.WriteTemplate(target, kind, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s config to %s\n", kind, target)
			return nil
		},
	}
	initCmd.Flags().StringVar(&kind, "kind", "client", "config kind: client|relay")
	initCmd.Flags().StringVarP(&output, "output", "o", "", "output path")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	var validateKind string
	validateCmd := &cobra.Command{
		Use:   "validate PATH",
		Short: "Load a config file and report problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(strings.TrimSpace(validateKind)) {
			case "client":
				if _, err := loadClientConfig(args[0]); err != nil {
					return err
				}
			case "relay":
				if _, err := config.LoadRelayConfig(args[0]); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown config kind: %s", validateKind)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "validated %s config at %s\n", validateKind, args[0])
			return nil
		},
	}
	validateCmd.Flags().StringVar(&validateKind, "kind", "client", "config kind: client|relay")

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
