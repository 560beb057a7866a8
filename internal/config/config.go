package config

import (
	"os"
)

type Config struct {
	HTTP_ADDR string

	// Storage backend: "memory" (default) or "postgres"
	STORE_BACKEND string

	DB_USERNAME string
	DB_PASSWORD string
	DB_HOST     string
	DB_PORT     string
	DB_NAME     string
	DISABLE_TLS string

	// HS256 secret for access tokens. Auth is disabled when empty.
	AUTH_SECRET string
}

func ReadConfig() *Config {
	return &Config{
		HTTP_ADDR: GetEnvOrDefault("HTTP_ADDR", "0.0.0.0:6060"),

		STORE_BACKEND: GetEnvOrDefault("STORE_BACKEND", "memory"),

		DB_USERNAME: os.Getenv("DB_USERNAME"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_NAME:     os.Getenv("DB_NAME"),
		DISABLE_TLS: os.Getenv("DISABLE_TLS"),

		AUTH_SECRET: os.Getenv("AUTH_SECRET"),
	}
}

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
