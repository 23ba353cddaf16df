// Package config holds the single immutable configuration record threaded
// into every pipeline stage.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// RankWeights are the fusion weights applied in the Rank stage.
type RankWeights struct {
	Stat  float64 `yaml:"stat"`
	Trend float64 `yaml:"trend"`
	Lit   float64 `yaml:"lit"`
}

// Config is the immutable record passed to every stage entry point. Nothing
// in a stage mutates it; a new Config is built per run.
type Config struct {
	// ArtifactDir is the root of the content-addressed artifact store.
	ArtifactDir string `yaml:"artifact_dir"`
	// ManifestPath is loaded from file and env but not read by any stage:
	// the artifact store keeps its SQLite manifest at
	// ArtifactDir/manifest.sqlite.
	ManifestPath string `yaml:"manifest_path"`

	MinA                   int         `yaml:"min_a"`
	IncludeConcomitant     bool        `yaml:"include_concomitant"`
	Dense                  bool        `yaml:"dense"`
	ClusterThreshold       float64     `yaml:"cluster_threshold"`
	ClusterMinCohesion     float64     `yaml:"cluster_min_cohesion"`
	ExtractConfidenceFloor float64     `yaml:"extract_confidence_floor"`
	RankWeights            RankWeights `yaml:"rank_weights"`
	Seed                   int64       `yaml:"seed"`
	TrendMinQuarters       int         `yaml:"trend_min_quarters"`
	LitRecentYears         int         `yaml:"lit_recent_years"`
	MaxSkipRatio           float64     `yaml:"max_skip_ratio"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		ArtifactDir:            "data",
		ManifestPath:           "data/manifest.db",
		MinA:                   3,
		IncludeConcomitant:     false,
		Dense:                  false,
		ClusterThreshold:       0.85,
		ClusterMinCohesion:     0.7,
		ExtractConfidenceFloor: 0.3,
		RankWeights:            RankWeights{Stat: 1.0, Trend: 0.5, Lit: 0.5},
		Seed:                   0,
		TrendMinQuarters:       3,
		LitRecentYears:         5,
		MaxSkipRatio:           0.01,
		LogLevel:               "info",
		LogFormat:              "text",
	}
}

// Load builds a Config by layering, in increasing priority: built-in
// defaults, an optional YAML file, then environment variables. File
// settings are deployment defaults, env vars are the per-run override.
func Load(yamlPath string) (Config, error) {
	cfg := Default()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("failed to read config file %s: %w", yamlPath, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", yamlPath, err)
		}
	}

	cfg.ArtifactDir = getEnv("PVSIGNAL_ARTIFACT_DIR", cfg.ArtifactDir)
	cfg.ManifestPath = getEnv("PVSIGNAL_MANIFEST_PATH", cfg.ManifestPath)
	cfg.MinA = getEnvAsInt("PVSIGNAL_MIN_A", cfg.MinA)
	cfg.IncludeConcomitant = getEnvAsBool("PVSIGNAL_INCLUDE_CONCOMITANT", cfg.IncludeConcomitant)
	cfg.Dense = getEnvAsBool("PVSIGNAL_DENSE", cfg.Dense)
	cfg.ClusterThreshold = getEnvAsFloat("PVSIGNAL_CLUSTER_THRESHOLD", cfg.ClusterThreshold)
	cfg.ExtractConfidenceFloor = getEnvAsFloat("PVSIGNAL_EXTRACT_CONFIDENCE_FLOOR", cfg.ExtractConfidenceFloor)
	cfg.Seed = int64(getEnvAsInt("PVSIGNAL_SEED", int(cfg.Seed)))
	cfg.TrendMinQuarters = getEnvAsInt("PVSIGNAL_TREND_MIN_QUARTERS", cfg.TrendMinQuarters)
	cfg.LitRecentYears = getEnvAsInt("PVSIGNAL_LIT_RECENT_YEARS", cfg.LitRecentYears)
	cfg.LogLevel = getEnv("PVSIGNAL_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("PVSIGNAL_LOG_FORMAT", cfg.LogFormat)

	if cfg.MinA < 0 {
		return Config{}, fmt.Errorf("min_a must be non-negative, got %d", cfg.MinA)
	}
	if cfg.ClusterThreshold <= 0 || cfg.ClusterThreshold >= 1 {
		return Config{}, fmt.Errorf("cluster_threshold must be in (0,1), got %f", cfg.ClusterThreshold)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvAsBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}
