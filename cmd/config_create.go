package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCreateForce bool

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Write the example configuration with placeholders for both Jira instances.

An existing file is left untouched unless --force is given.`,
	Example: `
  # Create default config at $HOME/.timemachine.yaml
  timemachine config create

  # Reset a custom config to the template
  timemachine --configFile ./team.yaml config create --force
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := activeConfigFile(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		written, err := file.writeExample(configCreateForce)
		if err != nil {
			return err
		}
		if !written {
			fmt.Printf("Config file already exists at: %s (use --force to replace it)\n", file.path)
			return nil
		}
		fmt.Printf("Example config written to: %s\n", file.path)
		fmt.Println("Fill in both jira_token values and issue_map, then run: timemachine sync --dry-run")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configCreateCmd)

	configCreateCmd.Flags().BoolVar(&configCreateForce, "force", false, "Overwrite an existing config file")
}
