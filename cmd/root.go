/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/cinescope/apiserver/config"
	"github.com/cinescope/apiserver/internal/logging"
	"github.com/spf13/cobra"
)

var (
	logLevel         string
	clientConfigPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cinescope",
	Short: "Movie and TV discovery backend and client",
	Long: `cinescope serves the movie and TV discovery API and ships a small
client for browsing the catalog, managing favorites and writing reviews.

	cinescope server
	cinescope browse --type tv --fetch popular
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logCfg := config.LoadConfig().Log
		if logLevel != "" {
			logCfg.Level = logLevel
		}
		logging.Init(logging.Config{Level: logCfg.Level, Format: logCfg.Format})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&clientConfigPath, "client-config", "", "client config file (default is $XDG_CONFIG_HOME/cinescope/client.toml)")
}
