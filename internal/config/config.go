package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yml"

// Config holds everything the process needs, loaded once at startup and
// passed into the service constructors. No package-level state.
type Config struct {
	URLs             []string
	Port             string
	AllowedOrigins   []string
	TrackingInterval time.Duration
	SecretKey        []byte
	SQLitePath       string
	LogDir           string
	LogFile          string
	LogLevel         string
}

// fileConfig mirrors the YAML layout of config.yml.
type fileConfig struct {
	URLs   []string `yaml:"urls"`
	Server struct {
		Port             string   `yaml:"port"`
		AllowedOrigins   []string `yaml:"allowed_origins"`
		TrackingInterval string   `yaml:"tracking_interval"`
		SecretKey        string   `yaml:"secret_key"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Logging struct {
		Dir   string `yaml:"dir"`
		File  string `yaml:"file"`
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads the YAML config file. A .env file, if present, may
// override the config file location, the port and the database path.
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	path := os.Getenv("URLTRACKER_CONFIG")
	if path == "" {
		path = defaultConfigFile
	}

	return LoadConfigFile(path)
}

// LoadConfigFile parses the given YAML file into a Config.
func LoadConfigFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if len(fc.URLs) == 0 {
		return nil, fmt.Errorf("no urls configured in %s", path)
	}

	interval := 15 * time.Minute
	if fc.Server.TrackingInterval != "" {
		interval, err = time.ParseDuration(fc.Server.TrackingInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid tracking_interval: %w", err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("tracking_interval must be positive, got %s", fc.Server.TrackingInterval)
		}
	}

	// Generate a secret key on first start and persist it so sessions
	// survive restarts.
	secret := fc.Server.SecretKey
	if secret == "" {
		secret, err = generateSecretKey()
		if err != nil {
			return nil, err
		}
		fc.Server.SecretKey = secret
		if err := writeConfigFile(path, &fc); err != nil {
			return nil, fmt.Errorf("failed to persist generated secret key: %w", err)
		}
	}

	port := fc.Server.Port
	if v := os.Getenv("URLTRACKER_PORT"); v != "" {
		port = v
	}
	if port == "" {
		port = "8000"
	}

	dbPath := fc.Database.Path
	if v := os.Getenv("URLTRACKER_SQLITE_PATH"); v != "" {
		dbPath = v
	}
	if dbPath == "" {
		dbPath = filepath.Join("data", "tracking.db")
	}

	logLevel := fc.Logging.Level
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		URLs:             fc.URLs,
		Port:             port,
		AllowedOrigins:   fc.Server.AllowedOrigins,
		TrackingInterval: interval,
		SecretKey:        []byte(secret),
		SQLitePath:       dbPath,
		LogDir:           fc.Logging.Dir,
		LogFile:          fc.Logging.File,
		LogLevel:         logLevel,
	}, nil
}

func generateSecretKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func writeConfigFile(path string, fc *fileConfig) error {
	out, err := yaml.Marshal(fc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0600)
}
