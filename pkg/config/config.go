// Package config assembles the run configuration from defaults, an optional YAML file,
// a .env file and the process environment. CLI flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/batch"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/extract"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/llms"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultInputFile  = "23-31-dec-raw-data.json"
	DefaultOutputFile = "formatted_ocr.json"
	DefaultEnvFile    = ".env"
	DefaultTimeout    = 90 * time.Second
)

type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Batch   BatchConfig   `yaml:"batch"`
	Retry   RetryConfig   `yaml:"retry"`
	Logging LoggingConfig `yaml:"logging"`
}

type BackendConfig struct {
	Provider   string        `yaml:"provider"`
	Endpoint   string        `yaml:"endpoint"`
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	CACertFile string        `yaml:"ca_cert_file"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxTokens  int           `yaml:"max_tokens"`
	// Strict makes providers reject options they cannot honor instead of dropping them with a warning.
	Strict bool `yaml:"strict"`
}

type BatchConfig struct {
	InputFile     string        `yaml:"input_file"`
	OutputFile    string        `yaml:"output_file"`
	StartIndex    int           `yaml:"start_index"`
	Resume        bool          `yaml:"resume"`
	FailurePolicy string        `yaml:"failure_policy"`
	PacingMin     time.Duration `yaml:"pacing_min"`
	PacingMax     time.Duration `yaml:"pacing_max"`
}

type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	BackoffBase   time.Duration `yaml:"backoff_base"`
	BackoffJitter time.Duration `yaml:"backoff_jitter"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Backend: BackendConfig{
			Provider: llms.ProviderOpenAI,
			Timeout:  DefaultTimeout,
		},
		Batch: BatchConfig{
			InputFile:     DefaultInputFile,
			OutputFile:    DefaultOutputFile,
			FailurePolicy: string(batch.PolicySkip),
			PacingMin:     batch.DefaultPacingMin,
			PacingMax:     batch.DefaultPacingMax,
		},
		Retry: RetryConfig{
			MaxAttempts:   extract.DefaultMaxAttempts,
			BackoffBase:   extract.DefaultBackoffBase,
			BackoffJitter: extract.DefaultBackoffJitter,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load layers an optional YAML file and an optional .env file over the defaults, then applies
// the process environment. Empty paths skip the corresponding layer; a missing .env file is not an error.
func Load(yamlPath string, envPath string) (Config, error) {
	cfg := Default()

	if yamlPath != "" {
		if err := cfg.loadYAML(yamlPath); err != nil {
			return cfg, utils.WrapIfNotNil(err)
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, utils.WrapIfNotNil(err, envPath)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, utils.WrapIfNotNil(err)
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	bits, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(bits))
	dec.KnownFields(true)
	if err = dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"LLM_PROVIDER":   &c.Backend.Provider,
		"API_ENDPOINT":   &c.Backend.Endpoint,
		"API_KEY":        &c.Backend.APIKey,
		"MODEL":          &c.Backend.Model,
		"CA_CERT_FILE":   &c.Backend.CACertFile,
		"INPUT_FILE":     &c.Batch.InputFile,
		"OUTPUT_FILE":    &c.Batch.OutputFile,
		"FAILURE_POLICY": &c.Batch.FailurePolicy,
		"LOG_LEVEL":      &c.Logging.Level,
		"LOG_FORMAT":     &c.Logging.Format,
	}
	for key, dst := range strs {
		if value, ok := lookup(key); ok && value != "" {
			*dst = value
		}
	}

	ints := map[string]*int{
		"MAX_TOKENS":   &c.Backend.MaxTokens,
		"START_INDEX":  &c.Batch.StartIndex,
		"MAX_ATTEMPTS": &c.Retry.MaxAttempts,
	}
	for key, dst := range ints {
		value, ok := lookup(key)
		if !ok || value == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"HTTP_TIMEOUT":   &c.Backend.Timeout,
		"BACKOFF_BASE":   &c.Retry.BackoffBase,
		"BACKOFF_JITTER": &c.Retry.BackoffJitter,
		"PACING_MIN":     &c.Batch.PacingMin,
		"PACING_MAX":     &c.Batch.PacingMax,
	}
	for key, dst := range durations {
		value, ok := lookup(key)
		if !ok || value == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if value, ok := lookup("RESUME"); ok && value != "" {
		resume, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("RESUME: %w", err)
		}
		c.Batch.Resume = resume
	}
	return nil
}

// Validate returns every problem found, joined.
func (c Config) Validate() error {
	var errs []error

	if !slices.Contains(llms.Providers(), strings.ToLower(c.Backend.Provider)) {
		errs = append(errs, fmt.Errorf("backend.provider %q is not one of %v", c.Backend.Provider, llms.Providers()))
	}
	if c.Backend.Timeout < 0 {
		errs = append(errs, fmt.Errorf("backend.timeout %s is negative", c.Backend.Timeout))
	}
	if c.Backend.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("backend.max_tokens %d is negative", c.Backend.MaxTokens))
	}
	if c.Batch.InputFile == "" {
		errs = append(errs, errors.New("batch.input_file is required"))
	}
	if c.Batch.OutputFile == "" {
		errs = append(errs, errors.New("batch.output_file is required"))
	}
	if c.Batch.StartIndex < 0 {
		errs = append(errs, fmt.Errorf("batch.start_index %d is negative", c.Batch.StartIndex))
	}
	if _, err := batch.ParseFailurePolicy(c.Batch.FailurePolicy); err != nil {
		errs = append(errs, fmt.Errorf("batch.failure_policy: %w", err))
	}
	if c.Batch.PacingMin < 0 || c.Batch.PacingMax <= 0 || c.Batch.PacingMax < c.Batch.PacingMin {
		errs = append(errs, fmt.Errorf("batch pacing [%s, %s] is not a valid range", c.Batch.PacingMin, c.Batch.PacingMax))
	}
	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("retry.max_attempts %d must be positive", c.Retry.MaxAttempts))
	}
	if c.Retry.BackoffBase <= 0 || c.Retry.BackoffJitter <= 0 {
		errs = append(errs, fmt.Errorf("retry backoff base %s / jitter %s is invalid", c.Retry.BackoffBase, c.Retry.BackoffJitter))
	}

	return errors.Join(errs...)
}

// GeneratorOptions translates the backend section into provider options. Temperature is always 0.
func (c Config) GeneratorOptions() []model.GeneratorOption {
	opts := []model.GeneratorOption{
		model.WithTemperature(0),
		model.WithIgnoreInvalidGeneratorOptions(!c.Backend.Strict),
	}
	if c.Backend.Endpoint != "" {
		opts = append(opts, model.WithURL(c.Backend.Endpoint))
	}
	if c.Backend.APIKey != "" {
		opts = append(opts, model.WithAuthToken(c.Backend.APIKey))
	}
	if c.Backend.Model != "" {
		opts = append(opts, model.WithModel(c.Backend.Model))
	}
	if c.Backend.CACertFile != "" {
		opts = append(opts, model.WithCACertFile(c.Backend.CACertFile))
	}
	if c.Backend.Timeout > 0 {
		opts = append(opts, model.WithTimeout(c.Backend.Timeout))
	}
	if c.Backend.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(c.Backend.MaxTokens))
	}
	return opts
}

func (c Config) ExtractConfig() extract.Config {
	return extract.Config{
		MaxAttempts:      c.Retry.MaxAttempts,
		BackoffBase:      c.Retry.BackoffBase,
		BackoffJitter:    c.Retry.BackoffJitter,
		GeneratorOptions: c.GeneratorOptions(),
	}
}

func (c Config) DriverConfig() batch.Config {
	return batch.Config{
		FailurePolicy: batch.FailurePolicy(c.Batch.FailurePolicy),
		PacingMin:     c.Batch.PacingMin,
		PacingMax:     c.Batch.PacingMax,
	}
}
