package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeySourceJiraToken       = "source_jira.jira_token"
	KeySourceTempoToken      = "source_jira.tempo_token"
	KeySourceTempoURL        = "source_jira.tempo_url"
	KeyDestinationJiraToken  = "destination_jira.jira_token"
	KeyDestinationTempoToken = "destination_jira.tempo_token"
	KeyDestinationTempoURL   = "destination_jira.tempo_url"
	KeyIssueMap              = "issue_map"
	KeySyncParallelism       = "sync.parallelism"
	KeySyncRequestTimeout    = "sync.request_timeout"
	KeyJournalPath           = "journal.path"

	DefaultTempoURL       = "https://api.tempo.io/core/3"
	DefaultParallelism    = 4
	DefaultRequestTimeout = 30 * time.Second
)

type Config struct {
	Source      SourceJira        `mapstructure:"source_jira" yaml:"source_jira" validate:"required"`
	Destination DestinationJira   `mapstructure:"destination_jira" yaml:"destination_jira" validate:"required"`
	IssueMap    map[string]string `mapstructure:"issue_map" yaml:"issue_map"`
	Sync        SyncConfig        `mapstructure:"sync" yaml:"sync"`
	Journal     JournalConfig     `mapstructure:"journal" yaml:"journal"`
}

// Backend holds the connection settings shared by both Jira instances.
// A non-empty TempoToken switches worklog access from the Jira API to Tempo.
type Backend struct {
	URL        string `mapstructure:"url" yaml:"url" validate:"required,url"`
	Email      string `mapstructure:"email" yaml:"email" validate:"omitempty,email"`
	JiraToken  string `mapstructure:"jira_token" yaml:"jira_token" validate:"required"`
	TempoToken string `mapstructure:"tempo_token" yaml:"tempo_token"`
	TempoURL   string `mapstructure:"tempo_url" yaml:"tempo_url" validate:"omitempty,url"`
}

func (b Backend) UsesTempo() bool {
	return strings.TrimSpace(b.TempoToken) != ""
}

type SourceJira struct {
	Backend `mapstructure:",squash" yaml:",inline"`
	// ProjectKey is only used without Tempo; Tempo syncs worklogs from all projects.
	ProjectKey string `mapstructure:"project_key" yaml:"project_key"`
}

type DestinationJira struct {
	Backend `mapstructure:",squash" yaml:",inline"`
	// Issue receives worklogs of source issues missing from issue_map.
	Issue string `mapstructure:"issue" yaml:"issue"`
}

type SyncConfig struct {
	Parallelism    int           `mapstructure:"parallelism" yaml:"parallelism" validate:"min=1,max=32"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

type JournalConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# timemachine configuration
source_jira:
  url: "https://source.atlassian.net"
  email: "me@example.com"
  jira_token: "<jira api token>"
  # With a Tempo token worklogs are read per user from Tempo and project_key is ignored.
  tempo_token: ""
  project_key: "JIRA"

destination_jira:
  url: "https://destination.atlassian.net"
  email: "me@example.com"
  jira_token: "<jira api token>"
  tempo_token: ""
  # Default issue for source issues not listed in issue_map.
  issue: "ARIJ-1"

issue_map: {}

sync:
  parallelism: 4
  request_timeout: 30s

journal:
  # SQLite run journal; empty disables it.
  path: ""
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	normalize(&cfg)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateSource(cfg.Source); err != nil {
		return nil, err
	}
	if err := validateIssueMap(cfg.IssueMap); err != nil {
		return nil, err
	}
	if cfg.Sync.RequestTimeout < 0 {
		return nil, fmt.Errorf("validation failed: sync.request_timeout must not be negative")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeySourceJiraToken, "")
	v.SetDefault(KeySourceTempoToken, "")
	v.SetDefault(KeySourceTempoURL, DefaultTempoURL)
	v.SetDefault(KeyDestinationJiraToken, "")
	v.SetDefault(KeyDestinationTempoToken, "")
	v.SetDefault(KeyDestinationTempoURL, DefaultTempoURL)
	v.SetDefault(KeyIssueMap, map[string]string{})
	v.SetDefault(KeySyncParallelism, DefaultParallelism)
	v.SetDefault(KeySyncRequestTimeout, DefaultRequestTimeout)
	v.SetDefault(KeyJournalPath, "")
}

func normalize(cfg *Config) {
	cfg.Source.ProjectKey = strings.TrimSpace(cfg.Source.ProjectKey)
	cfg.Destination.Issue = strings.ToUpper(strings.TrimSpace(cfg.Destination.Issue))

	// Viper folds map keys to lower case; Jira keys are upper case.
	issueMap := make(map[string]string, len(cfg.IssueMap))
	for source, destination := range cfg.IssueMap {
		issueMap[strings.ToUpper(strings.TrimSpace(source))] = strings.ToUpper(strings.TrimSpace(destination))
	}
	cfg.IssueMap = issueMap
}

func validateSource(source SourceJira) error {
	if !source.UsesTempo() && source.ProjectKey == "" {
		return fmt.Errorf("validation failed: source_jira.project_key is required when source_jira.tempo_token is empty")
	}
	return nil
}

func validateIssueMap(issueMap map[string]string) error {
	for source, destination := range issueMap {
		if source == "" {
			return fmt.Errorf("validation failed: issue_map contains an empty source issue key")
		}
		if destination == "" {
			return fmt.Errorf("validation failed: issue_map[%s] has an empty destination issue key", source)
		}
	}
	return nil
}
