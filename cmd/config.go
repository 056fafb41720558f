package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage timemachine configuration file values.",
	Long: `Create, edit, display, and delete the timemachine configuration file.

The configuration stores both Jira instances and the routing:
- source_jira.url / email / jira_token / tempo_token / project_key
- destination_jira.url / email / jira_token / tempo_token / issue
- issue_map (source issue key -> destination issue key)
- sync.parallelism / sync.request_timeout
- journal.path

Every value can be overridden from the environment, e.g. TIMEMACHINE_SOURCE_JIRA_JIRA_TOKEN.`,
	Example: `
  # Create default config in $HOME/.timemachine.yaml
  timemachine config create

  # Show active config with masked tokens
  timemachine config show

  # Open active config in editor (creates example if missing)
  timemachine config edit

  # Delete active config file
  timemachine config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
