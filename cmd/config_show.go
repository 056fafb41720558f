package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"timemachine/config"
	"timemachine/internal/logging"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. Tokens are masked.`,
	Example: `
  # Show active configuration
  timemachine config show
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return nil
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		}
		rendered, err := renderMaskedConfig(*cfg)
		if err != nil {
			return err
		}
		fmt.Println("Configuration:")
		fmt.Print(rendered)
		return nil
	},
}

// renderMaskedConfig renders the effective config as YAML with every token masked.
func renderMaskedConfig(cfg config.Config) (string, error) {
	cfg.Source.JiraToken = logging.MaskSensitive(cfg.Source.JiraToken)
	cfg.Source.TempoToken = logging.MaskSensitive(cfg.Source.TempoToken)
	cfg.Destination.JiraToken = logging.MaskSensitive(cfg.Destination.JiraToken)
	cfg.Destination.TempoToken = logging.MaskSensitive(cfg.Destination.TempoToken)

	content, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("render config: %w", err)
	}
	return string(content), nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
