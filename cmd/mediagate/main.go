package main

import (
	"os"

	"github.com/spf13/cobra"

	"mediagate/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "mediagate",
	Short:   "Conditional cache gateway for immutable media objects",
	Long: `Mediagate serves immutable media objects from filesystem or S3
storage with conditional caching, and rate limits its credential
endpoint per client identity.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")
		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}
		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path(s), later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("storage-type", "", "storage backend: filesystem, s3 (default: filesystem, env: MEDIAGATE_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory for the filesystem backend (default: ./data, env: MEDIAGATE_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("users-file", "", "YAML users file path (env: MEDIAGATE_AUTH_USERS_FILE)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default: info, env: MEDIAGATE_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
