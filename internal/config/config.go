package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/nicholasjackson/env"
)

// ErrInvalidConfig is returned when a configuration value cannot be used
var ErrInvalidConfig = errors.New("invalid config")

// DefaultEnvFilePath is the .env file read when ENV_PATH is not set
const DefaultEnvFilePath = ".env"

// Environment variables
var (
	bindAddress = env.String("BIND_ADDRESS", false,
		":9090", "Bind address for the server")
	logLevel = env.String("LOG_LEVEL", false,
		"debug", "Log output level for the server [trace, debug, info, warn, error]")
	corsOrigins = env.String("CORS_ORIGINS", false,
		"http://localhost:3000", "Comma separated list of origins allowed to call the API")
	imageBasePath = env.String("IMAGE_BASE_PATH", false,
		"./imagestore", "Directory product images are stored in")
	imageMaxBytes = env.String("IMAGE_MAX_BYTES", false,
		"5242880", "Maximum size of an uploaded product image in bytes")
)

// Config holds everything the server needs at startup
type Config struct {
	BindAddress   string
	LogLevel      hclog.Level
	CORSOrigins   []string
	ImageBasePath string
	ImageMaxBytes int64
}

// Load reads an optional .env file, then the environment, and validates
// the result.
func Load() (*Config, error) {
	if err := loadEnvFile(os.Getenv("ENV_PATH")); err != nil {
		return nil, err
	}

	if err := env.Parse(); err != nil {
		return nil, fmt.Errorf("unable to parse environment: %w", err)
	}

	return Parse(Values{
		BindAddress:   *bindAddress,
		LogLevel:      *logLevel,
		CORSOrigins:   *corsOrigins,
		ImageBasePath: *imageBasePath,
		ImageMaxBytes: *imageMaxBytes,
	})
}

// loadEnvFile reads path into the environment, or DefaultEnvFilePath when
// path is empty. Only the default file may be missing.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFilePath
	}

	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("%w: unable to load env file %q: %v", ErrInvalidConfig, path, err)
}

// Values are the raw configuration strings before validation
type Values struct {
	BindAddress   string
	LogLevel      string
	CORSOrigins   string
	ImageBasePath string
	ImageMaxBytes string
}

// Parse validates raw values and converts them into a Config
func Parse(v Values) (*Config, error) {
	if strings.TrimSpace(v.BindAddress) == "" {
		return nil, fmt.Errorf("%w: BIND_ADDRESS is empty", ErrInvalidConfig)
	}

	level := hclog.LevelFromString(v.LogLevel)
	if level == hclog.NoLevel {
		return nil, fmt.Errorf("%w: unknown LOG_LEVEL %q", ErrInvalidConfig, v.LogLevel)
	}

	maxBytes, err := strconv.ParseInt(v.ImageMaxBytes, 10, 64)
	if err != nil || maxBytes <= 0 {
		return nil, fmt.Errorf("%w: IMAGE_MAX_BYTES must be a positive integer, got %q", ErrInvalidConfig, v.ImageMaxBytes)
	}

	if strings.TrimSpace(v.ImageBasePath) == "" {
		return nil, fmt.Errorf("%w: IMAGE_BASE_PATH is empty", ErrInvalidConfig)
	}

	var origins []string
	for _, origin := range strings.Split(v.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return &Config{
		BindAddress:   v.BindAddress,
		LogLevel:      level,
		CORSOrigins:   origins,
		ImageBasePath: v.ImageBasePath,
		ImageMaxBytes: maxBytes,
	}, nil
}
