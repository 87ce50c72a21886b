// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, OAuth) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Paperchat API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"3000"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value store (Redis) — OAuth state nonces
	RedisURL string `env:"REDIS_URL,required"`

	// Signing secrets. User and admin tokens are deliberately signed with
	// distinct secrets so an ordinary token can never pass the admin guard.
	JWTSecret      string `env:"JWT_SECRET,required"`
	JWTAdminSecret string `env:"JWT_ADMIN_SECRET,required"`

	// SessionSecret keys the HMAC over OAuth state values.
	SessionSecret string `env:"SESSION_SECRET,required"`

	// OAuth provider credentials
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:3000/api/auth/google/callback"`
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubRedirectURL  string `env:"GITHUB_REDIRECT_URL" envDefault:"http://localhost:3000/api/auth/github/callback"`

	// Transactional email (Resend HTTP API)
	ResendAPIKey string `env:"RESEND_API_KEY"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"onboarding@resend.dev"`

	// External RAG ingestion/query service (Python backend)
	RAGServiceURL string `env:"RAG_SERVICE_URL" envDefault:"http://localhost:8000"`

	// FrontendURL is the SPA origin used for CORS and OAuth redirects.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	// UploadDir is where multipart uploads are spooled before ingestion.
	UploadDir string `env:"UPLOAD_DIR" envDefault:"./uploads"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigin returns the browser origin permitted to call the API cross-site.
func (c *Config) AllowedOrigin() string {
	return c.FrontendURL
}
