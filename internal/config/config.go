package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port            string   `yaml:"port"`
	Environment     string   `yaml:"environment"`
	LogLevel        string   `yaml:"log_level"`
	MongoDBURI      string   `yaml:"mongodb_uri"`
	MongoDBPassword string   `yaml:"mongodb_password"`
	MongoDBName     string   `yaml:"mongodb_name"`
	AppBaseURL      string   `yaml:"app_base_url"`
	AllowedOrigins  []string `yaml:"allowed_origins"`

	JWT        JWTConfig        `yaml:"jwt"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Mail       MailConfig       `yaml:"mail"`
	Cloudinary CloudinaryConfig `yaml:"cloudinary"`
}

type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	VerifyTTL  time.Duration `yaml:"verify_ttl"`
	ResetTTL   time.Duration `yaml:"reset_ttl"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// MailConfig tunes the outbox worker.
type MailConfig struct {
	QueueSize  int           `yaml:"queue_size"`
	MaxRetries uint64        `yaml:"max_retries"`
	RetryBase  time.Duration `yaml:"retry_base"`
}

type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

func defaults() *Config {
	return &Config{
		Port:           "8080",
		Environment:    "development",
		LogLevel:       "info",
		MongoDBName:    "talknet",
		AppBaseURL:     "http://localhost:8080/api/v1",
		AllowedOrigins: []string{"http://localhost:3000"},
		JWT: JWTConfig{
			VerifyTTL:  10 * time.Minute,
			ResetTTL:   10 * time.Minute,
			AccessTTL:  7 * 24 * time.Hour,
			RefreshTTL: 14 * 24 * time.Hour,
		},
		SMTP: SMTPConfig{Port: 587},
		Mail: MailConfig{
			QueueSize:  256,
			MaxRetries: 3,
			RetryBase:  time.Second,
		},
	}
}

// LoadConfig builds the configuration from an optional YAML file named by
// CONFIG_FILE, then applies environment variables on top of it.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnvWithDefault("PORT", c.Port)
	c.Environment = getEnvWithDefault("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnvWithDefault("LOG_LEVEL", c.LogLevel)
	c.MongoDBURI = getEnvWithDefault("MONGODB_URI", c.MongoDBURI)
	c.MongoDBPassword = getEnvWithDefault("MONGODB_PASSWORD", c.MongoDBPassword)
	c.MongoDBName = getEnvWithDefault("MONGODB_NAME", c.MongoDBName)
	c.AppBaseURL = getEnvWithDefault("APP_BASE_URL", c.AppBaseURL)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}

	c.JWT.Secret = getEnvWithDefault("JWT_SECRET", c.JWT.Secret)
	c.SMTP.Host = getEnvWithDefault("SMTP_HOST", c.SMTP.Host)
	c.SMTP.User = getEnvWithDefault("SMTP_USER", c.SMTP.User)
	c.SMTP.Password = getEnvWithDefault("SMTP_PASSWORD", c.SMTP.Password)
	c.SMTP.From = getEnvWithDefault("SMTP_FROM", c.SMTP.From)
	c.Cloudinary.CloudName = getEnvWithDefault("CLOUDINARY_CLOUD_NAME", c.Cloudinary.CloudName)
	c.Cloudinary.APIKey = getEnvWithDefault("CLOUDINARY_API_KEY", c.Cloudinary.APIKey)
	c.Cloudinary.APISecret = getEnvWithDefault("CLOUDINARY_API_SECRET", c.Cloudinary.APISecret)

	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_PORT must be a number: %w", err)
		}
		c.SMTP.Port = port
	}
	if v := os.Getenv("MAIL_QUEUE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAIL_QUEUE_SIZE must be a number: %w", err)
		}
		c.Mail.QueueSize = size
	}
	if v := os.Getenv("MAIL_MAX_RETRIES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAIL_MAX_RETRIES must be a number: %w", err)
		}
		c.Mail.MaxRetries = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"VERIFY_TOKEN_TTL", &c.JWT.VerifyTTL},
		{"RESET_TOKEN_TTL", &c.JWT.ResetTTL},
		{"ACCESS_TOKEN_TTL", &c.JWT.AccessTTL},
		{"REFRESH_TOKEN_TTL", &c.JWT.RefreshTTL},
		{"MAIL_RETRY_BASE", &c.Mail.RetryBase},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s must be a duration: %w", d.key, err)
		}
		*d.dst = parsed
	}

	return nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.MongoDBURI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes in production")
	}
	if c.JWT.VerifyTTL <= 0 || c.JWT.ResetTTL <= 0 || c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.Mail.QueueSize <= 0 {
		return fmt.Errorf("MAIL_QUEUE_SIZE must be positive")
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MailEnabled reports whether an SMTP relay is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTP.Host != ""
}
