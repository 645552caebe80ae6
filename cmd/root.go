// Package cmd provides the command-line interface for templink with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration with clear precedence:
//	1. Command-line flags - highest priority
//	2. TEMPLINK_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (TEMPLINK_SERVER_PORT, etc.)
//	4. Configuration files (.templink.yml) - lowest priority
package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "templink",
	Short: "Import dependency tracking and reparse dispatch for templ documents",
	Long: `Templink tracks the import files each open templ document depends on,
keeps one shared watch per import file, and dispatches a reparse to every
dependent document when a watched import changes on disk or is saved.

Quick Start:
  templink init                   Write a default .templink.yml
  templink watch                  Track documents and dispatch reparses
  templink graph                  Print the import dependency graph

Documentation: https://github.com/conneroisu/templink`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .templink.yml, can also use TEMPLINK_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	bindFlag(rootCmd.PersistentFlags(), "logging.level", "log-level")
}

// initConfig initializes the configuration system.
//
// Loading priority (highest to lowest):
//  1. --config flag: explicitly specified config file path
//  2. TEMPLINK_CONFIG_FILE environment variable
//  3. Default: .templink.yml in the current directory
func initConfig() {
	switch {
	case cfgFile != "":
		viper.SetConfigFile(cfgFile)
	case os.Getenv("TEMPLINK_CONFIG_FILE") != "":
		viper.SetConfigFile(os.Getenv("TEMPLINK_CONFIG_FILE"))
	default:
		viper.AddConfigPath(".")
		viper.SetConfigName(".templink")
		viper.SetConfigType("yml")
	}

	viper.SetEnvPrefix("TEMPLINK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()
}
