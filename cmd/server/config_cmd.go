package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, _, err := loadConfig(root)
			if err != nil {
				return err
			}
			cfg.JWTSecret = "<redacted>"

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			cmd.Printf("# %s\n%s", path, out)
			return nil
		},
	}
}
