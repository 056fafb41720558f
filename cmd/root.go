/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"timemachine/config"
	"timemachine/internal/logging"
)

const envPrefix = "TIMEMACHINE"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "timemachine",
	Short: "Copy worklogs from a source Jira to a destination Jira.",
	Long: `
**********************************************
*              TIMEMACHINE                   *
**********************************************

This CLI copies worklogs logged on a source Jira (optionally through Tempo) to issues
on a destination Jira (optionally through Tempo).

Every copied worklog carries a marker with its source worklog id in the destination
comment, so runs over overlapping time windows update existing copies instead of
creating duplicates. Destination worklogs without a marker are never touched.
`,
	Example: `
  # Create configuration file
  timemachine config create

  # Copy worklogs of the last day
  timemachine sync

  # Preview a sync over the last week without writing
  timemachine sync --days 7 --dry-run

  # Report differences between source and destination
  timemachine check --days 7 --output ./check.xlsx

  # Time logged per day on the source since the start of the month
  timemachine timecheck
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if strings.TrimSpace(logLevel) != "" {
			logging.SetupLogger(os.Stderr, logging.LogLevel(logLevel))
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.timemachine.yaml, then ./.timemachine.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL, else info)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".timemachine")
	}

	// TIMEMACHINE_SOURCE_JIRA_JIRA_TOKEN overrides source_jira.jira_token.
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: timemachine config create")
	}
}
