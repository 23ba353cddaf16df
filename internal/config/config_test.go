package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MinA != 3 {
		t.Errorf("expected MinA 3, got %d", cfg.MinA)
	}
	if cfg.RankWeights.Stat != 1.0 || cfg.RankWeights.Trend != 0.5 || cfg.RankWeights.Lit != 0.5 {
		t.Errorf("unexpected default rank weights: %+v", cfg.RankWeights)
	}
	if cfg.ClusterThreshold != 0.85 {
		t.Errorf("expected cluster threshold 0.85, got %f", cfg.ClusterThreshold)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("PVSIGNAL_MIN_A", "5")
	os.Setenv("PVSIGNAL_SEED", "42")
	os.Setenv("PVSIGNAL_INCLUDE_CONCOMITANT", "true")
	defer func() {
		os.Unsetenv("PVSIGNAL_MIN_A")
		os.Unsetenv("PVSIGNAL_SEED")
		os.Unsetenv("PVSIGNAL_INCLUDE_CONCOMITANT")
	}()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MinA != 5 {
		t.Errorf("expected MinA 5, got %d", cfg.MinA)
	}
	if cfg.Seed != 42 {
		t.Errorf("expected Seed 42, got %d", cfg.Seed)
	}
	if !cfg.IncludeConcomitant {
		t.Errorf("expected IncludeConcomitant true")
	}
}

func TestLoadRejectsBadClusterThreshold(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	if err := os.WriteFile(path, []byte("cluster_threshold: 1.5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("expected error for out-of-range cluster_threshold")
	}
}
