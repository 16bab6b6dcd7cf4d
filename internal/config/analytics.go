package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"proteia_back_end/internal/analytics"
)

// LoadAnalytics part des seuils par défaut et applique le fichier YAML s'il est fourni.
// Les clés absentes du fichier gardent leur valeur par défaut.
func LoadAnalytics(path string) (analytics.Config, error) {
	cfg := analytics.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("lecture %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
