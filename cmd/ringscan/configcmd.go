package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(a.out, a.configPath)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return toml.NewEncoder(a.out).Encode(a.config)
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the default configuration unless the file exists",
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := os.Stat(a.configPath); err == nil {
					return fmt.Errorf("%s already exists", a.configPath)
				}
				if err := NewDefaultConfig().Save(a.configPath); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "wrote", a.configPath)
				return nil
			},
		},
	)
	return cmd
}
