// Package config provides configuration management for the PR dashboard.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: local SQLite store (or optional MySQL connection)
//   - Upstream: pull request source settings (repository, token, paging)
//   - Storage: S3/MinIO credentials and bucket settings for snapshots
//   - Log: Logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
