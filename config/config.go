package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable holding the config file path.
const EnvPath = "FLI_CONFIG"

// Container sources.
const (
	SourceLocal = "local"
	SourceS3    = "s3"
)

// Config defines the app configuration.
type Config struct {
	Server struct {
		Address      string        `yaml:"address" env:"FLI_LISTEN_ADDRESS" env-default:"localhost:3000" env-description:"API listen address"`
		Env          string        `yaml:"env" env:"FLI_ENV" env-default:"development" env-description:"Environment (development|staging|production)"`
		ReadTimeout  time.Duration `yaml:"read_timeout" env:"FLI_READ_TIMEOUT" env-default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" env:"FLI_WRITE_TIMEOUT" env-default:"2m" env-description:"Write timeout; downloads lift it"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" env:"FLI_IDLE_TIMEOUT" env-default:"1m"`
	} `yaml:"server"`
	Elastic struct {
		URL      string        `yaml:"url" env:"FLI_ELASTIC_URL" env-default:"http://localhost:9200" env-description:"Search backend URL"`
		Index    string        `yaml:"index" env:"FLI_ELASTIC_INDEX" env-default:"flibooks" env-description:"Index holding the catalog"`
		DocType  string        `yaml:"doc_type" env:"FLI_ELASTIC_DOC_TYPE" env-description:"Document type written in bulk headers, empty for typeless engines"`
		Username string        `yaml:"username" env:"FLI_ELASTIC_USERNAME"`
		Password string        `yaml:"password" env:"FLI_ELASTIC_PASSWORD"`
		Timeout  time.Duration `yaml:"timeout" env:"FLI_ELASTIC_TIMEOUT" env-default:"30s"`
	} `yaml:"elastic"`
	Log struct {
		Level string `yaml:"level" env:"FLI_LOG_LEVEL" env-default:"info" env-description:"debug|info|error|fatal|off"`
	} `yaml:"log"`
	Containers struct {
		Source     string `yaml:"source" env:"FLI_CONTAINERS_SOURCE" env-default:"local" env-description:"Where book containers live (local|s3)"`
		LibraryDir string `yaml:"library_dir" env:"FLI_LIBRARY_DIR" env-default:"." env-description:"Directory holding the container archives"`
		TempDir    string `yaml:"temp_dir" env:"FLI_TEMP_DIR" env-description:"Parent of per-request scratch space, system default when empty"`
	} `yaml:"containers"`
	S3 struct {
		AccessKeyID     string `yaml:"access_key_id" env:"FLI_S3_ACCESS_KEY_ID"`
		SecretAccessKey string `yaml:"secret_access_key" env:"FLI_S3_SECRET_ACCESS_KEY"`
		Region          string `yaml:"region" env:"FLI_S3_REGION"`
		Bucket          string `yaml:"bucket" env:"FLI_S3_BUCKET"`
		Prefix          string `yaml:"prefix" env:"FLI_S3_PREFIX"`
	} `yaml:"s3"`
	Ingest struct {
		BatchSize int `yaml:"batch_size" env:"FLI_INGEST_BATCH_SIZE" env-default:"5000" env-description:"Records per bulk request"`
	} `yaml:"ingest"`
	Cache struct {
		TTL      time.Duration `yaml:"ttl" env:"FLI_CACHE_TTL" env-default:"30m"`
		Capacity uint64        `yaml:"capacity" env:"FLI_CACHE_CAPACITY" env-default:"10000"`
	} `yaml:"cache"`
	Limiter struct {
		RPS     float64 `yaml:"rps" env:"FLI_LIMITER_RPS" env-default:"4"`
		Burst   int     `yaml:"burst" env:"FLI_LIMITER_BURST" env-default:"8"`
		Enabled bool    `yaml:"enabled" env:"FLI_LIMITER_ENABLED"`
	} `yaml:"limiter"`
	Cors struct {
		TrustedOrigins []string `yaml:"trusted_origins" env:"FLI_CORS_TRUSTED_ORIGINS" env-separator:" "`
	} `yaml:"cors"`
	Metrics struct {
		Enabled bool `yaml:"enabled" env:"FLI_METRICS_ENABLED"`
	} `yaml:"metrics"`
	BasicAuth struct {
		Username string `yaml:"username" env:"FLI_BASIC_AUTH_USERNAME"`
		Password string `yaml:"password" env:"FLI_BASIC_AUTH_PASSWORD"`
	} `yaml:"basic_auth"`
}

// Decode builds the configuration from the YAML file at path, if any, then
// applies environment overrides and defaults for fields still unset.
// An empty path falls back to FLI_CONFIG; a missing file is not an error
// when the path was not given explicitly.
func Decode(path string) (Config, error) {
	cfg := defaults()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPath)
	}
	if path != "" {
		err := decodeFile(path, &cfg)
		switch {
		case errors.Is(err, os.ErrNotExist) && !explicit:
		case err != nil:
			return Config{}, err
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// defaults sets the fields whose default is a non-zero bool; env-default
// cannot tell an explicit false from an unset field.
func defaults() Config {
	var cfg Config
	cfg.Limiter.Enabled = true
	cfg.Metrics.Enabled = true
	return cfg
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	err = yaml.NewDecoder(f).Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Containers.Source {
	case SourceLocal:
	case SourceS3:
		if c.S3.Bucket == "" {
			return errors.New("config: s3 container source requires s3.bucket")
		}
	default:
		return fmt.Errorf("config: unknown containers.source %q", c.Containers.Source)
	}
	if c.Ingest.BatchSize <= 0 {
		return errors.New("config: ingest.batch_size must be positive")
	}
	return nil
}

// Usage writes the environment variables understood by Decode.
func Usage(w io.Writer) error {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, text)
	return err
}
