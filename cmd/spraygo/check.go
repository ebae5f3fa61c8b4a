package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/SprayGo/internal/config"
	"github.com/cjeanneret/SprayGo/internal/logic/pattern"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and pattern file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			set, err := config.LoadPatterns(cfg.PatternsPath())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:   %s\n", opts.configPath)
			fmt.Fprintf(out, "patterns: %s\n", cfg.PatternsPath())
			fmt.Fprintf(out, "gpio:     %s\n", cfg.Defaults.GPIODriver)
			fmt.Fprintf(out, "tick:     %s\n", cfg.TickInterval())
			for i, p := range set {
				fmt.Fprintf(out, "side %d:   %d commands\n", i+1, len(p))
			}
			fmt.Fprintf(out, "total:    %d commands\n", set.Len(pattern.AllSides()))
			return nil
		},
	}
}
