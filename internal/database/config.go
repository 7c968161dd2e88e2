package database

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the Postgres connection parameters.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewConfig reads connection parameters from the environment, loading
// a .env file first when one exists.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	return &Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "cadence"),
		Password: getEnv("DB_PASSWORD", "cadence"),
		DBName:   getEnv("DB_NAME", "cadence"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}, nil
}

// DSN builds the keyword/value Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
