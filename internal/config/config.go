// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables and
// an optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
)

// Options holds the configuration values for the application.
type Options struct {
	// ServerURL is the base URL of the back-office API, including the
	// /api prefix.
	ServerURL string

	// StateDir is where the session entries (tokens, user profile) are
	// persisted between runs.
	StateDir string

	// DownloadDir is where statement and receipt PDFs are saved.
	DownloadDir string

	// LogLevel sets the zap level ("Debug", "Info", "Warn", "Error").
	LogLevel string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	home, _ := os.UserHomeDir()
	flag.StringVar(&options.ServerURL, "s", "http://localhost:8000/api", "base URL of the back-office API")
	flag.StringVar(&options.StateDir, "state", filepath.Join(home, ".backoffice"), "directory for persisted session state")
	flag.StringVar(&options.DownloadDir, "downloads", ".", "directory for downloaded statements and receipts")
	flag.StringVar(&options.LogLevel, "level", "Info", "log level")
	flag.StringVar(&options.Config, "config", "", "path to config file")
	flag.StringVar(&options.Config, "c", "", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct
// containing the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverURL := os.Getenv("SERVER_URL"); serverURL != "" {
		options.ServerURL = serverURL
	}
	if stateDir := os.Getenv("STATE_DIR"); stateDir != "" {
		options.StateDir = stateDir
	}
	if downloadDir := os.Getenv("DOWNLOAD_DIR"); downloadDir != "" {
		options.DownloadDir = downloadDir
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}

	return options
}
