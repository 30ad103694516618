package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Auth   AuthConfig
	CORS   CORSConfig
}

type ServerConfig struct {
	Host string
	Port string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret     string
	JWTExpiry     time.Duration
	AdminEmail    string
	AdminPassword string
	// AgentToken is the shared bearer token collection agents report with.
	AgentToken string
}

type CORSConfig struct {
	AllowedOrigins string
}

func Load() (*Config, error) {
	jwtExpiry, err := time.ParseDuration(envOrDefault("INVENTRA_JWT_EXPIRY", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid INVENTRA_JWT_EXPIRY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: envOrDefault("INVENTRA_HOST", "0.0.0.0"),
			Port: envOrDefault("INVENTRA_PORT", "8000"),
		},
		DB: DBConfig{
			Host:     envOrDefault("INVENTRA_DB_HOST", "localhost"),
			Port:     envOrDefault("INVENTRA_DB_PORT", "5432"),
			Name:     envOrDefault("INVENTRA_DB_NAME", "inventra"),
			User:     envOrDefault("INVENTRA_DB_USER", "inventra"),
			Password: envOrDefault("INVENTRA_DB_PASSWORD", "inventra"),
			SSLMode:  envOrDefault("INVENTRA_DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:     envOrDefault("INVENTRA_JWT_SECRET", "change-me-in-production"),
			JWTExpiry:     jwtExpiry,
			AdminEmail:    envOrDefault("INVENTRA_ADMIN_EMAIL", "admin@inventra.local"),
			AdminPassword: envOrDefault("INVENTRA_ADMIN_PASSWORD", "admin"),
			AgentToken:    envOrDefault("INVENTRA_AGENT_TOKEN", "change-me-agent-token"),
		},
		CORS: CORSConfig{
			AllowedOrigins: envOrDefault("INVENTRA_CORS_ORIGINS", "http://localhost:5173"),
		},
	}

	return cfg, nil
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
