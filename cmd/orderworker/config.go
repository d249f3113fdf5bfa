package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/Aleph-Alpha/orderqueue/internal/httpapi"
	"github.com/Aleph-Alpha/orderqueue/v1/logger"
	"github.com/Aleph-Alpha/orderqueue/v1/metrics"
	"github.com/Aleph-Alpha/orderqueue/v1/postgres"
	"github.com/Aleph-Alpha/orderqueue/v1/rabbit"
	"github.com/Aleph-Alpha/orderqueue/v1/tracer"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the configuration of the whole process.
type Config struct {
	Logger   logger.Config   `yaml:"logger"`
	Tracer   tracer.Config   `yaml:"tracer"`
	Metrics  metrics.Config  `yaml:"metrics"`
	Rabbit   rabbit.Config   `yaml:"rabbit"`
	Postgres postgres.Config `yaml:"postgres"`
	HTTP     httpapi.Config  `yaml:"http"`

	// BatchSize and MaxRetries feed the rabbit consumer. Values that are
	// not integers fall back to the defaults.
	BatchSize  lenientInt `yaml:"batch_size" envconfig:"BATCH_SIZE" default:"10"`
	MaxRetries lenientInt `yaml:"max_retries" envconfig:"MAX_RETRIES" default:"3"`
}

// lenientInt decodes integers and records anything else as -1, which the
// rabbit config normalizes to the default.
type lenientInt int

func (l *lenientInt) Decode(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		*l = -1
		return nil
	}
	*l = lenientInt(n)
	return nil
}

func (l *lenientInt) UnmarshalYAML(node *yaml.Node) error {
	return l.Decode(node.Value)
}

// consumerOverrides records which of the top-level consumer keys a config
// file actually sets.
type consumerOverrides struct {
	BatchSize  *lenientInt `yaml:"batch_size"`
	MaxRetries *lenientInt `yaml:"max_retries"`
}

// LoadConfig builds the configuration in three layers:
//  1. dotenv files, which never override variables already in the environment
//  2. environment variables and the defaults in the struct tags
//  3. the YAML file named by CONFIG_FILE, if set
//
// BATCH_SIZE and MAX_RETRIES seed rabbit.consumer. In the file, the nested
// rabbit.consumer keys override them and the top-level batch_size and
// max_retries keys override both.
func LoadConfig(envFiles ...string) (Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	cfg.Rabbit.Consumer.BatchSize = int(cfg.BatchSize)
	cfg.Rabbit.Consumer.MaxRetries = int(cfg.MaxRetries)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}

		var top consumerOverrides
		if err := yaml.Unmarshal(raw, &top); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if top.BatchSize != nil {
			cfg.Rabbit.Consumer.BatchSize = int(*top.BatchSize)
		}
		if top.MaxRetries != nil {
			cfg.Rabbit.Consumer.MaxRetries = int(*top.MaxRetries)
		}
	}

	cfg.Rabbit = cfg.Rabbit.Normalize()
	cfg.BatchSize = lenientInt(cfg.Rabbit.Consumer.BatchSize)
	cfg.MaxRetries = lenientInt(cfg.Rabbit.Consumer.MaxRetries)

	return cfg, nil
}
