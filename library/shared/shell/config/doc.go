// Package config provides the application configuration and the database and observability
// factories of the librarian CLI.
//
// Configuration is layered: built-in defaults, then an optional YAML file, then a .env file
// (when present), then LIBRARY_* environment variables. The factories create PostgreSQL
// connections with the pool sizing used throughout the project for pgx.Pool, sql.DB and sqlx.DB.
//
// This package is part of the shell (infrastructure) layer.
package config
