package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/seethrueu/openfinesse/internal/core"
)

// Config is the full run configuration, one YAML file per run.
type Config struct {
	// Source selects the legacy system the extracts came from. Only "bob50"
	// is recognized today.
	Source string         `yaml:"source"`
	Model  Model          `yaml:"model"`
	Bob50  Bob50          `yaml:"bob50"`
	Kpi    core.KpiConfig `yaml:"kpi"`
}

// Model configures the storage side: where to connect and which DDL script
// bootstraps the schema and read views.
type Model struct {
	Connection string `yaml:"connection"`
	Schema     string `yaml:"schema"`
}

// FileRef points at one extract file.
type FileRef struct {
	File string `yaml:"file"`
}

// Bob50 lists the BOB50 extract files and the accounting years to leave out
// of the import entirely.
type Bob50 struct {
	ExcludeYears []int   `yaml:"exclude_years"`
	ACDbk        FileRef `yaml:"ac_dbk"`
	ACAccoun     FileRef `yaml:"ac_accoun"`
	ACCompan     FileRef `yaml:"ac_compan"`
	ACAhisto     FileRef `yaml:"ac_ahisto"`
	ACChisto     FileRef `yaml:"ac_chisto"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Model.Schema == "" {
		cfg.Model.Schema = "migrations/schema.sql"
	}
	return &cfg, nil
}
