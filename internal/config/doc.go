// Package config provides configuration management for data-displayer.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Overrides from the environment and an optional .env file
//   - Validation of the resolved settings
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// API at http://localhost:8000/api
//	// Files saved to ~/Downloads
//	// 30 second request timeout
//
// # Loading from File
//
// A missing file is not an error; Load falls back to the defaults:
//
//	settings, err := config.Load(config.DefaultPath())
//	if err == nil {
//	    err = settings.Validate()
//	}
//
// # Environment
//
// ApplyEnv reads a .env file if present and then the process environment:
//
//	DATA_DISPLAYER_API_URL         root of all three endpoints
//	DATA_DISPLAYER_DOWNLOADS_PATH  directory for data.json / data.xlsx
//	DATA_DISPLAYER_TIMEOUT         request timeout in seconds
//	DATA_DISPLAYER_LOG_LEVEL       debug, info, warn or error
//
// # Saving Settings
//
//	settings.APIBaseURL = "https://data.example.com/api"
//	err := settings.Save("/path/to/config.json")
package config
