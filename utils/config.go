package utils

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// TreeMapConfig locates a TreeMap release: the plot-id raster, the tree
// record table (.csv or .parquet) and the release version, which selects the
// plot linkage key.
type TreeMapConfig struct {
	RasterPath string            `yaml:"raster_path"`
	TablePath  string            `yaml:"table_path"`
	Version    string            `yaml:"version"`
	Options    map[string]string `yaml:"options"`
}

// ExtractionConfig carries the two window paddings. ProjectionPadding is a
// distance in the raster's CRS units; InterpolationPadding is a count of
// raster cells.
type ExtractionConfig struct {
	ProjectionPadding    float64 `yaml:"projection_padding"`
	InterpolationPadding int     `yaml:"interpolation_padding"`
	Concurrency          int     `yaml:"concurrency"`
}

// Config is the run configuration of the extraction tool.
type Config struct {
	TreeMap    TreeMapConfig    `yaml:"treemap"`
	Extraction ExtractionConfig `yaml:"extraction"`
	MetricsDir string           `yaml:"metrics_dir"`
	Verbose    bool             `yaml:"verbose"`
}

// LoadConfigFile parses a YAML run configuration and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error while reading config file %s: %v", path, err)
	}
	return LoadConfig(data)
}

func LoadConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error while parsing config: %v", err)
	}

	if cfg.TreeMap.RasterPath == "" {
		return nil, fmt.Errorf("config: treemap.raster_path is required")
	}
	if cfg.TreeMap.TablePath == "" {
		return nil, fmt.Errorf("config: treemap.table_path is required")
	}
	if cfg.TreeMap.Version == "" {
		return nil, fmt.Errorf("config: treemap.version is required")
	}
	if cfg.Extraction.Concurrency <= 0 {
		cfg.Extraction.Concurrency = 1
	}
	return &cfg, nil
}
