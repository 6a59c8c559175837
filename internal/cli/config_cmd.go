package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change CLI settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"server_url": getServerURL(),
					"locate_url": cfg.LocateURL,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "server_url: %s\n", getServerURL())
			if cfg.LocateURL != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "locate_url: %s\n", cfg.LocateURL)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "set <server_url|locate_url> <value>",
		Short:     "Save a setting to ~/.config/vr/config.yaml",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"server_url", "locate_url"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			switch args[0] {
			case "server_url":
				cfg.ServerURL = args[1]
			case "locate_url":
				cfg.LocateURL = args[1]
			default:
				return fmt.Errorf("unknown setting %q", args[0])
			}
			if err := saveConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s.\n", args[0])
			return nil
		},
	})

	return cmd
}
