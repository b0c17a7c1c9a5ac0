package config

import (
	"encoding/json"
	"fmt"
	"os"

	"PaperDigest/internal/domain"
)

// LoadDigestFile reads the automation JSON file. Fields missing from the file
// keep their automation defaults.
func LoadDigestFile(path string) (domain.DigestConfig, error) {
	cfg := domain.DefaultDigestConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read digest config %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse digest config %s: %w", path, err)
	}

	return cfg, nil
}

// ExportDigest encodes a digest configuration in the automation file layout.
func ExportDigest(cfg domain.DigestConfig) ([]byte, error) {
	if cfg.Categories == nil {
		cfg.Categories = []string{}
	}
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode digest config: %w", err)
	}
	return out, nil
}
