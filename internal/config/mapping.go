package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadCategoryMapping reads a YAML map of category name (or slug) to category id.
func LoadCategoryMapping(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category mapping: %w", err)
	}
	var mapping map[string]string
	if err := yaml.Unmarshal(raw, &mapping); err != nil {
		return nil, fmt.Errorf("parse category mapping: %w", err)
	}
	return mapping, nil
}
