package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/SprayGo/internal/config"
)

// rootOptions are shared by every subcommand.
type rootOptions struct {
	configPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "spraygo",
		Short:         "Paint head controller for a 3-axis spray gantry",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", filepath.Join("configs", "default.yaml"), "path to config file")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newCheckCmd(opts))
	return root
}

// loadConfig validates the path before reading anything from disk.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if err := config.ValidateConfigPath(o.configPath); err != nil {
		return nil, err
	}
	return config.Load(o.configPath)
}
