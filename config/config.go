/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads recordstore settings from YAML, .env files and the environment.
package config

import "time"

// Backend names accepted in StoreConfig.Backend.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

// Config is the root configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	Log      LogConfig      `yaml:"log"`
	Page     PageConfig     `yaml:"page"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string `yaml:"backend" env:"STORE_BACKEND" env-default:"memory"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// DynamoDBConfig holds the DynamoDB table and credentials. Empty keys fall
// back to the default AWS credential chain.
type DynamoDBConfig struct {
	Region    string `yaml:"region"     env:"AWS_REGION"            env-default:"us-east-1"`
	AccessKey string `yaml:"access_key" env:"AWS_ACCESS_KEY_ID"`
	SecretKey string `yaml:"secret_key" env:"AWS_SECRET_ACCESS_KEY"`
	Table     string `yaml:"table"      env:"DYNAMODB_TABLE"`
	Endpoint  string `yaml:"endpoint"   env:"DYNAMODB_ENDPOINT"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// PageConfig bounds listing pages.
type PageConfig struct {
	DefaultSize int `yaml:"default_size" env:"PAGE_DEFAULT_SIZE" env-default:"10"`
	MaxSize     int `yaml:"max_size"     env:"PAGE_MAX_SIZE"     env-default:"100"`
}
