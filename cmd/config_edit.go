package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor and validate it.",
	Long: `Open the active configuration in $VISUAL, $EDITOR or vi.

A missing file is created from the example template first. After the editor
exits the file is validated and the resulting routing is printed.`,
	Example: `
  # Edit active config
  timemachine config edit

  # Use a specific editor once
  EDITOR="code --wait" timemachine config edit
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := activeConfigFile(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		created, err := file.writeExample(false)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("No config file found. Created example config at: %s\n", file.path)
		}

		editor := editorCommand(os.Getenv("VISUAL"), os.Getenv("EDITOR"), file.path)
		editor.Stdin = os.Stdin
		editor.Stdout = os.Stdout
		editor.Stderr = os.Stderr
		if err := editor.Run(); err != nil {
			return fmt.Errorf("opening editor failed: %w", err)
		}

		cfg, err := file.validate()
		if err != nil {
			return err
		}
		fmt.Printf("Configuration saved and validated: %s\n", file.path)
		for _, line := range describeRouting(cfg) {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
