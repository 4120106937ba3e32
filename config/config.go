// Package config loads the typed configuration the inference pipeline
// runs with, mirroring the configuration-key table the driver's
// collaborators read from.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tuffy/tuffyerr"
)

// Config is the full set of tunables the driver and its collaborators
// consult. Every field corresponds to one configuration key the pipeline
// exposes.
type Config struct {
	// Grounding
	MarkAllAtomsActive         bool    `yaml:"mark_all_atoms_active"`
	IterativeUnitPropagate     bool    `yaml:"iterative_unit_propagate"`
	UnifySoftUnitClauses       bool    `yaml:"unify_soft_unit_clauses"`
	KeyConstraintAllowsNullLabel bool  `yaml:"key_constraint_allows_null_label"`
	MaxGroundAtoms             int64   `yaml:"max_ground_atoms"`
	MaxGroundClauses           int64   `yaml:"max_ground_clauses"`
	SoftEvidenceActivationThreshold float64 `yaml:"soft_evidence_activation_threshold"`
	LearningMode               bool    `yaml:"learning_mode"`

	// Sampling
	Samples           int     `yaml:"samples"`
	MaxFlips          int     `yaml:"max_flips"`
	WalkSATProb       float64 `yaml:"walksat_prob"`
	SimulatedAnnealingMaxTries int `yaml:"sa_max_tries"`
	SimulatedAnnealingProb     float64 `yaml:"sa_prob"` // simulatedAnnealingSampleSATProb
	SimulatedAnnealingCoef     float64 `yaml:"sa_coef"` // samplesat_sa_coef, inverse temperature
	ParallelMCSATWorkers int   `yaml:"parallel_mcsat_workers"`

	// External solver
	GlucosePath string `yaml:"glucose_path"`

	// Resource limits
	Timeout time.Duration `yaml:"timeout"`

	// Store selection
	Store      string `yaml:"store"` // "memstore" | "sqlite" | "mangle"
	StoreDSN   string `yaml:"store_dsn"`

	// Remote unit oracle, optional
	UnitOracleAddr string `yaml:"unit_oracle_addr"`

	Seed int64 `yaml:"seed"`

	// Logging
	LogLevel string `yaml:"log_level"` // "debug" | "info" | "warn" | "error"
}

// Default returns a Config with the same defaults the original driver
// assumed when a key was left unset.
func Default() *Config {
	return &Config{
		IterativeUnitPropagate:          true,
		MaxGroundAtoms:                  10_000_000,
		MaxGroundClauses:                50_000_000,
		SoftEvidenceActivationThreshold: 0,
		Samples:                100,
		MaxFlips:               1000,
		WalkSATProb:            0.5,
		SimulatedAnnealingMaxTries: 10,
		SimulatedAnnealingProb:     0.5,
		SimulatedAnnealingCoef:     1.0,
		ParallelMCSATWorkers:   1,
		Timeout:                0, // 0 = no deadline
		Store:                  "memstore",
		Seed:                   33,
		LogLevel:               "info",
	}
}

// Load reads and validates a Config from a YAML file at path, layering it
// on top of Default().
func Load(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate refuses self-contradictory configurations before a run starts.
func (c *Config) Validate() error {
	if c.UnifySoftUnitClauses && c.IterativeUnitPropagate {
		return tuffyerr.InvalidConfig("unify_soft_unit_clauses is mutually exclusive with iterative_unit_propagate")
	}
	if c.Samples <= 0 {
		return tuffyerr.InvalidConfig(fmt.Sprintf("samples must be positive, got %d", c.Samples))
	}
	if c.MaxFlips <= 0 {
		return tuffyerr.InvalidConfig(fmt.Sprintf("max_flips must be positive, got %d", c.MaxFlips))
	}
	if c.WalkSATProb < 0 || c.WalkSATProb > 1 {
		return tuffyerr.InvalidConfig(fmt.Sprintf("walksat_prob must be in [0,1], got %v", c.WalkSATProb))
	}
	if c.SimulatedAnnealingProb < 0 || c.SimulatedAnnealingProb > 1 {
		return tuffyerr.InvalidConfig(fmt.Sprintf("sa_prob must be in [0,1], got %v", c.SimulatedAnnealingProb))
	}
	if c.SoftEvidenceActivationThreshold < 0 || c.SoftEvidenceActivationThreshold > 1 {
		return tuffyerr.InvalidConfig(fmt.Sprintf("soft_evidence_activation_threshold must be in [0,1], got %v", c.SoftEvidenceActivationThreshold))
	}
	switch c.Store {
	case "memstore", "sqlite", "mangle":
	default:
		return tuffyerr.InvalidConfig(fmt.Sprintf("unknown store %q", c.Store))
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return tuffyerr.InvalidConfig(fmt.Sprintf("unknown log_level %q", c.LogLevel))
	}
	return nil
}
