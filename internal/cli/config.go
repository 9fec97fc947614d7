// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ocrchat/internal/config"
	"github.com/jeranaias/ocrchat/internal/util"
)

func newConfigCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration (file, environment and flags)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, _, err := loadConfig(flags)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), cfg.String())
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := configPath(flags)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a default config file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := configPath(flags)
				if err != nil {
					return err
				}
				if err := config.Init(path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓ Wrote "+path))
				return nil
			},
		},
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print one setting, e.g. ollama.model",
			Args:  cobra.ExactArgs(1),
			ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
				return config.Keys(), cobra.ShellCompDirectiveNoFileComp
			},
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, _, err := loadConfig(flags)
				if err != nil {
					return err
				}
				v, err := cfg.Get(args[0])
				if err != nil {
					return NewUsageError("config get", err.Error())
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Change one setting in the config file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := configPath(flags)
				if err != nil {
					return err
				}
				// Edit the file's own values, not the environment-adjusted ones.
				cfg, err := config.Loader{Path: path, SkipEnv: true}.Load()
				if err != nil {
					return err
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return NewUsageError("config set", err.Error())
				}
				cfg.SetDefaults()
				if err := cfg.Validate(); err != nil {
					return err
				}
				if err := config.Save(cfg, path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓ "+args[0]+" = "+args[1]))
				return nil
			},
		},
	)
	return cmd
}

func configPath(flags *globalFlags) (string, error) {
	if flags.configPath != "" {
		return util.ExpandHome(flags.configPath), nil
	}
	return config.DefaultPath()
}
