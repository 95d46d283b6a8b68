package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvAPIURL        = "DATA_DISPLAYER_API_URL"
	EnvDownloadsPath = "DATA_DISPLAYER_DOWNLOADS_PATH"
	EnvTimeout       = "DATA_DISPLAYER_TIMEOUT"
	EnvLogLevel      = "DATA_DISPLAYER_LOG_LEVEL"
	EnvTraceOutput   = "DATA_DISPLAYER_TRACE_OUTPUT"
)

// DefaultAPIBaseURL is the backend address used when nothing else is configured.
const DefaultAPIBaseURL = "http://localhost:8000/api"

// Settings holds all configuration options.
type Settings struct {
	// Backend settings
	APIBaseURL        string  `json:"api_base_url" validate:"required,url"`
	RequestTimeout    float64 `json:"request_timeout" validate:"gt=0"`
	UserAgent         string  `json:"user_agent"`
	RequestsPerSecond int     `json:"requests_per_second" validate:"gte=0"`
	RequestBurst      int     `json:"request_burst" validate:"gte=0"`

	// Output settings
	DownloadsPath         string `json:"downloads_path" validate:"required"`
	JSONFileName          string `json:"json_file_name" validate:"required"`
	XLSXFileName          string `json:"xlsx_file_name" validate:"required"`
	VisualisationFileName string `json:"visualisation_file_name" validate:"required"`
	JSONIndent            string `json:"json_indent"`

	// Preview settings
	PreviewMaxWidth  int `json:"preview_max_width" validate:"gt=0"`
	PreviewMaxHeight int `json:"preview_max_height" validate:"gt=0"`

	// Logging
	LogLevel string `json:"log_level" validate:"oneof=debug info warn error"`
	LogFile  string `json:"log_file"`

	// TraceOutput is where finished spans are written as JSON: empty
	// disables tracing, "-" means stderr, anything else is a file path.
	TraceOutput string `json:"trace_output"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		APIBaseURL:        DefaultAPIBaseURL,
		RequestTimeout:    30,
		UserAgent:         "DataDisplayer",
		RequestsPerSecond: 0,
		RequestBurst:      1,

		DownloadsPath:         filepath.Join(homeDir, "Downloads"),
		JSONFileName:          "data.json",
		XLSXFileName:          "data.xlsx",
		VisualisationFileName: "data_visualisation",
		JSONIndent:            "  ",

		PreviewMaxWidth:  80,
		PreviewMaxHeight: 40,

		LogLevel: "info",
		LogFile:  filepath.Join(os.TempDir(), "data-displayer.log"),
	}
}

// DefaultPath returns the settings file location under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(dir, "data-displayer", "config.json")
}

// Load reads settings from a JSON file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv loads envFile (if it exists) into the process environment and
// overrides settings from the DATA_DISPLAYER_* variables.
func (s *Settings) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if v := os.Getenv(EnvAPIURL); v != "" {
		s.APIBaseURL = v
	}
	if v := os.Getenv(EnvDownloadsPath); v != "" {
		s.DownloadsPath = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		s.RequestTimeout = secs
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvTraceOutput); v != "" {
		s.TraceOutput = v
	}

	return nil
}

// Validate checks the settings against their constraints.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Timeout returns RequestTimeout as a duration.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.RequestTimeout * float64(time.Second))
}

// Level maps LogLevel to a slog level, defaulting to info.
func (s *Settings) Level() slog.Level {
	switch s.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger returns a text logger writing to w at the configured level.
func (s *Settings) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: s.Level()}))
}
