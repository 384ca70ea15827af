package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tetrasim/internal/sim"
)

const (
	DefaultPort            = 8002
	DefaultParticleCount   = 3
	DefaultPersistInterval = 30 * time.Second
	DefaultDataDir         = "runs"
	DefaultDBPath          = "tetrasim.db"
	DefaultLogLevel        = "info"
)

type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Simulation sim.Config      `yaml:"simulation"`
	Particles  ParticlesConfig `yaml:"particles"`
	Storage    StorageConfig   `yaml:"storage"`
	Logging    LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	PersistInterval time.Duration `yaml:"persist_interval"`
}

// ParticlesConfig seeds a fresh simulation. Initial entries are created
// first; Count more random particles follow, named default_particle_{i}.
type ParticlesConfig struct {
	Count   int                `yaml:"count"`
	Initial []sim.ParticleSpec `yaml:"initial"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	DBPath  string `yaml:"db_path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			PersistInterval: DefaultPersistInterval,
		},
		Simulation: sim.DefaultConfig(),
		Particles:  ParticlesConfig{Count: DefaultParticleCount},
		Storage: StorageConfig{
			DataDir: DefaultDataDir,
			DBPath:  DefaultDBPath,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from TETRASIM_PORT, TETRASIM_LOG_LEVEL,
// TETRASIM_DATA and CORS_ORIGINS. Unset or malformed values are ignored.
func (c *Config) ApplyEnv() {
	c.Server.Port = envIntOrDefault("TETRASIM_PORT", c.Server.Port)
	c.Logging.Level = envOrDefault("TETRASIM_LOG_LEVEL", c.Logging.Level)
	c.Storage.DataDir = envOrDefault("TETRASIM_DATA", c.Storage.DataDir)

	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, origin)
			}
		}
	}
}

// ParticleSpecs returns the specs to create on a fresh simulation.
func (c *Config) ParticleSpecs() []sim.ParticleSpec {
	specs := make([]sim.ParticleSpec, 0, len(c.Particles.Initial)+c.Particles.Count)
	specs = append(specs, c.Particles.Initial...)
	for i := 0; i < c.Particles.Count; i++ {
		specs = append(specs, sim.ParticleSpec{ID: fmt.Sprintf("default_particle_%d", i)})
	}
	return specs
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
