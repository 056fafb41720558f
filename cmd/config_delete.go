package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"timemachine/config"
)

var configDeleteJournal bool

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active configuration file.",
	Long: `Delete the configuration file currently loaded by timemachine.

With --journal the SQLite journal configured as journal.path is removed too.
Synced worklogs on the destination are not touched.`,
	Example: `
  # Delete active config
  timemachine config delete

  # Delete a custom config and its journal
  timemachine --configFile ./team.yaml config delete --journal
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.ConfigFileUsed()
		if configPath == "" {
			return fmt.Errorf("no configuration file found")
		}

		journalPath := ""
		if configDeleteJournal {
			cfg, err := config.LoadAndValidate()
			if err != nil {
				return fmt.Errorf("resolve journal path: %w", err)
			}
			journalPath = cfg.Journal.Path
		}

		if err := os.Remove(configPath); err != nil {
			return fmt.Errorf("delete configuration file: %w", err)
		}
		fmt.Printf("Configuration file deleted: %s\n", configPath)

		if journalPath == "" {
			return nil
		}
		if err := os.Remove(journalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete journal: %w", err)
		}
		fmt.Printf("Journal deleted: %s\n", journalPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configDeleteCmd)

	configDeleteCmd.Flags().BoolVar(&configDeleteJournal, "journal", false, "Also delete the journal database")
}
