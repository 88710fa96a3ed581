package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Catalog Catalog `yaml:"catalog"`
	Engine  Engine  `yaml:"engine"`
	Report  Report  `yaml:"report"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

type Catalog struct {
	ImagesDir string `yaml:"images_dir"`
	Feeds     []Feed `yaml:"feeds"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// Engine holds rating and pairing parameters. Every score term is
// independently tunable.
type Engine struct {
	KFactor               float64 `yaml:"k_factor"`
	BaselineRating        float64 `yaml:"baseline_rating"`
	LowDataThreshold      int     `yaml:"low_data_threshold"`
	HighEvidenceThreshold int     `yaml:"high_evidence_threshold"`
	WeakRatingThreshold   float64 `yaml:"weak_rating_threshold"`
	ExposureBonus         float64 `yaml:"exposure_bonus"`
	NoveltyBonus          float64 `yaml:"novelty_bonus"`
	ClosenessBonusMax     float64 `yaml:"closeness_bonus_max"`
	SweetSpotBonus        float64 `yaml:"sweet_spot_bonus"`
	JitterMax             float64 `yaml:"jitter_max"`
	QueueBatchSize        int     `yaml:"queue_batch_size"`
}

type Report struct {
	SnapshotEvery int `yaml:"snapshot_every"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for pairpick.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "pairpick")
}

// DataDir returns the XDG data directory for pairpick.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "pairpick")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/pairpick/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'pairpick init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Catalog: Catalog{
			ImagesDir: "./images",
		},
		Engine: Engine{
			KFactor:               32,
			BaselineRating:        1500,
			LowDataThreshold:      5,
			HighEvidenceThreshold: 8,
			WeakRatingThreshold:   1450,
			ExposureBonus:         50,
			NoveltyBonus:          30,
			ClosenessBonusMax:     20,
			SweetSpotBonus:        10,
			JitterMax:             5,
			QueueBatchSize:        100,
		},
		Report:  Report{SnapshotEvery: 10},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
