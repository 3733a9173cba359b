package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	SMTP          SMTPConfig          `mapstructure:"smtp"`
	Sunat         SunatConfig         `mapstructure:"sunat"`
	Extraction    ExtractionConfig    `mapstructure:"extraction"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	JWTSecret           string        `mapstructure:"jwt_secret"`
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration"`
	BCryptCost          int           `mapstructure:"bcrypt_cost"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// SunatConfig holds the external endpoints of the SUNAT platform. The URLs
// are configurable so integration tests can point the gateway at a stub.
type SunatConfig struct {
	TokenURL      string        `mapstructure:"token_url"`
	ValidationURL string        `mapstructure:"validation_url"`
	Scope         string        `mapstructure:"scope"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type ExtractionConfig struct {
	Strategy     string        `mapstructure:"strategy"` // "vision" or "ocr"
	OpenAIAPIKey string        `mapstructure:"openai_api_key"`
	VisionModel  string        `mapstructure:"vision_model"`
	OCRLanguage  string        `mapstructure:"ocr_language"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds a Config purely from environment variables, used
// for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("SERVER_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DB_SOURCE", ""),
		},
		Security: SecurityConfig{
			JWTSecret:           getEnv("JWT_SECRET", ""),
			AccessTokenDuration: getEnvAsDuration("ACCESS_TOKEN_DURATION", 15*time.Minute),
			BCryptCost:          getEnvAsInt("BCRYPT_COST", 12),
		},
		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvAsInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			FromAddress: getEnv("SMTP_FROM_ADDRESS", "no-reply@condorlabs.pe"),
			FromName:    getEnv("SMTP_FROM_NAME", "Comprobantes"),
		},
		Sunat: SunatConfig{
			TokenURL:      getEnv("SUNAT_TOKEN_URL", "https://api-seguridad.sunat.gob.pe/v1/clientesextranet"),
			ValidationURL: getEnv("SUNAT_VALIDATION_URL", "https://api.sunat.gob.pe/v1/contribuyente/contribuyentes"),
			Scope:         getEnv("SUNAT_SCOPE", "https://api.sunat.gob.pe/v1/contribuyente/contribuyentes"),
			Timeout:       getEnvAsDuration("SUNAT_TIMEOUT", 15*time.Second),
		},
		Extraction: ExtractionConfig{
			Strategy:     getEnv("EXTRACTION_STRATEGY", "ocr"),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			VisionModel:  getEnv("VISION_MODEL", "gpt-4-turbo"),
			OCRLanguage:  getEnv("OCR_LANGUAGE", "spa"),
			Timeout:      getEnvAsDuration("EXTRACTION_TIMEOUT", 60*time.Second),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Source == "" {
		return errors.New("database source is required")
	}
	if c.Security.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if _, err := url.Parse(c.Sunat.TokenURL); err != nil {
		return fmt.Errorf("invalid sunat token url: %w", err)
	}
	if _, err := url.Parse(c.Sunat.ValidationURL); err != nil {
		return fmt.Errorf("invalid sunat validation url: %w", err)
	}
	switch c.Extraction.Strategy {
	case "ocr", "vision":
	default:
		return fmt.Errorf("unknown extraction strategy: %q", c.Extraction.Strategy)
	}
	if c.Extraction.Strategy == "vision" && c.Extraction.OpenAIAPIKey == "" {
		return errors.New("openai api key is required for the vision strategy")
	}
	return nil
}
