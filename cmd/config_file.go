package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"timemachine/config"
)

const homeConfigName = ".timemachine.yaml"

// configFile is the YAML file the config subcommands work on.
type configFile struct {
	path string
}

// activeConfigFile picks --configFile, then the file viper loaded, then $HOME/.timemachine.yaml.
func activeConfigFile(flagValue, loaded string) (configFile, error) {
	for _, candidate := range []string{flagValue, loaded} {
		if strings.TrimSpace(candidate) != "" {
			return configFile{path: candidate}, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return configFile{}, fmt.Errorf("resolve home directory: %w", err)
	}
	return configFile{path: filepath.Join(home, homeConfigName)}, nil
}

func (f configFile) exists() (bool, error) {
	_, err := os.Stat(f.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("check config file %s: %w", f.path, err)
	}
}

// writeExample writes the example template. An existing file is kept unless overwrite is set.
// The file holds API tokens and is created with mode 0600.
func (f configFile) writeExample(overwrite bool) (bool, error) {
	found, err := f.exists()
	if err != nil {
		return false, err
	}
	if found && !overwrite {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(config.ExampleYAML()), 0o600); err != nil {
		return false, fmt.Errorf("write example config: %w", err)
	}
	return true, nil
}

func (f configFile) validate() (*config.Config, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", f.path, err)
	}
	cfg, err := config.ValidateYAMLContent(content)
	if err != nil {
		return nil, fmt.Errorf("config validation failed in %s: %w", f.path, err)
	}
	return cfg, nil
}

// describeRouting summarizes where worklogs are read from and written to.
func describeRouting(cfg *config.Config) []string {
	lines := []string{
		fmt.Sprintf("source:      %s via %s", cfg.Source.URL, accessMode(cfg.Source.Backend, "project "+cfg.Source.ProjectKey)),
		fmt.Sprintf("destination: %s via %s", cfg.Destination.URL, accessMode(cfg.Destination.Backend, "jira api")),
	}

	keys := make([]string, 0, len(cfg.IssueMap))
	for key := range cfg.IssueMap {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("  %s -> %s", key, cfg.IssueMap[key]))
	}
	if cfg.Destination.Issue != "" {
		lines = append(lines, fmt.Sprintf("  * -> %s", cfg.Destination.Issue))
	} else {
		lines = append(lines, "  unmapped issues fail the sync")
	}
	return lines
}

func accessMode(backend config.Backend, jiraMode string) string {
	if backend.UsesTempo() {
		return "tempo"
	}
	return jiraMode
}

// editorCommand runs $VISUAL, then $EDITOR, then vi. Editor values may carry arguments.
func editorCommand(visual, editor, path string) *exec.Cmd {
	value := "vi"
	for _, candidate := range []string{visual, editor} {
		if strings.TrimSpace(candidate) != "" {
			value = candidate
			break
		}
	}
	fields := strings.Fields(value)
	return exec.Command(fields[0], append(fields[1:], path)...)
}
