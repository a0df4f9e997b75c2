package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/virtos/config"
	"github.com/kilianp07/virtos/infra/logger"
)

var (
	cfgPath  string
	envFile  string
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "virtos",
	Short:         "Charging-site architecture simulator",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		c, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		if err := logger.SetLevel(c.Log.Level); err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
