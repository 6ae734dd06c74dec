package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(a *app) *cobra.Command {
	var save string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `config prints the configuration sniffy runs with: defaults, then the
configuration file, then environment overrides. With --save it writes that
configuration to a file instead, which is a convenient way to start a
` + "`.sniffy.yaml`" + `.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if save != "" {
				if err := a.cfg.Save(save); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Configuration written to %s\n", save)
				return nil
			}
			enc := yaml.NewEncoder(a.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(a.cfg); err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVar(&save, "save", "", "write the configuration to this file")
	return cmd
}
