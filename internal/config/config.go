package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is read from the environment (and a .env file when present).
// Variables carry the EMOJIFY_ prefix; POSTGRES_* are also read unprefixed.
type Config struct {
	SmileThreshold float64 `envconfig:"SMILE_THRESHOLD" default:"0.5" validate:"gte=0,lte=1"`
	EyeThreshold   float64 `envconfig:"EYE_THRESHOLD" default:"0.4" validate:"gte=0,lte=1"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn warning error"`
	LogFile  string `envconfig:"LOG_FILE"`

	PythonBin    string `envconfig:"PYTHON_BIN" default:"python3" validate:"required"`
	WorkerScript string `envconfig:"WORKER_SCRIPT" default:"python/detector.py" validate:"required"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`

	PostgresHost     string `envconfig:"POSTGRES_HOST"`
	PostgresPort     string `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"emojify"`
}

const prefix = "EMOJIFY"

var validate = validator.New()

// Load reads .env (if any) and the environment, then validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DatabaseURL builds a connection string from POSTGRES_* when a host is
// configured. The second result is false if no database was configured.
func (c Config) DatabaseURL() (string, bool) {
	if c.PostgresHost == "" {
		return "", false
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB), true
}
