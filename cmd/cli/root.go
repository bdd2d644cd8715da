package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theblitlabs/perfcounters/internal/config"
	"github.com/theblitlabs/perfcounters/pkg/logger"
)

var (
	logMode    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "perfcounters",
	Short: "Performance counter exporter",
	Long:  `Samples host, process and Go runtime performance counters and exports them as named gauges`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.InitWithMode(logger.LogMode(logMode))
		if configPath != "" {
			config.GetConfigManager().SetConfigPath(configPath)
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logMode, "log", "pretty", "Log mode: debug, pretty, info, prod, test")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".env", "Path to a .env or YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.GetConfigManager().GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
