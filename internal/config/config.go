package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"shimsync/internal/scoring"
)

// DefaultPath is where LoadConfig looks when no --config flag is given.
const DefaultPath = "shimsync.yaml"

type Config struct {
	Verify struct {
		Threshold  float64 `yaml:"threshold"`
		Structural bool    `yaml:"structural"`
	} `yaml:"verify"`
	Scaffold struct {
		Output  string `yaml:"output"`
		Backend string `yaml:"backend"`
	} `yaml:"scaffold"`
	Source struct {
		IgnoreDirs []string `yaml:"ignore_dirs"`
	} `yaml:"source"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Verify.Threshold = scoring.DefaultThreshold
	cfg.Scaffold.Output = "adapter_scaffold.py"
	return cfg
}

// LoadConfig builds the effective configuration: defaults, then the
// YAML file if it exists, then environment overrides. A missing file is
// not an error; the tool has to work out of the box.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if raw := os.Getenv("SHIMSYNC_THRESHOLD"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		cfg.Verify.Threshold = threshold
	}
	if output := os.Getenv("SHIMSYNC_SCAFFOLD_OUTPUT"); output != "" {
		cfg.Scaffold.Output = output
	}
	if backend := os.Getenv("SHIMSYNC_SCAFFOLD_BACKEND"); backend != "" {
		cfg.Scaffold.Backend = backend
	}

	return cfg, nil
}
