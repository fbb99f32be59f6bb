package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// applyFile reads a flat YAML mapping of variable names to values and exports
// every entry whose variable is not already set in the environment.
func applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read CONFIG_FILE: %w", err)
	}
	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse CONFIG_FILE %s: %w", path, err)
	}
	for k, v := range values {
		if _, ok := os.LookupEnv(k); ok {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("apply CONFIG_FILE key %s: %w", k, err)
		}
	}
	return nil
}
