package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cesargomez89/openkaraoke/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port              string
	DBPath            string
	LibraryDir        string
	LogLevel          string
	LogFormat         string
	DemucsBin         string
	DemucsModel       string
	DemucsDevice      string
	YtDlpBin          string
	ITunesURL         string
	MusicBrainzURL    string
	LRCLibURL         string
	CORSOrigin        string
	UserAgent         string
	MaxConcurrentJobs int
	MaxUploadMB       int
	MetricsEnabled    bool
}

// Load reads an optional .env file and then the process environment
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", constants.DefaultPort),
		DBPath:            getEnv("DB_PATH", constants.DefaultDBPath),
		LibraryDir:        getEnv("LIBRARY_DIR", constants.DefaultLibraryDir),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		DemucsBin:         getEnv("DEMUCS_BIN", constants.DefaultDemucsBin),
		DemucsModel:       getEnv("DEMUCS_MODEL", constants.DefaultDemucsModel),
		DemucsDevice:      getEnv("DEMUCS_DEVICE", constants.DeviceAuto),
		YtDlpBin:          getEnv("YTDLP_BIN", constants.DefaultYtDlpBin),
		ITunesURL:         getEnv("ITUNES_URL", constants.DefaultITunesURL),
		MusicBrainzURL:    getEnv("MUSICBRAINZ_URL", constants.DefaultMusicBrainzURL),
		LRCLibURL:         getEnv("LRCLIB_URL", constants.DefaultLRCLibURL),
		CORSOrigin:        getEnv("CORS_ORIGIN", "*"),
		UserAgent:         getEnv("USER_AGENT", constants.DefaultUserAgent),
		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", constants.DefaultConcurrency),
		MaxUploadMB:       getEnvInt("MAX_UPLOAD_MB", constants.DefaultMaxUploadMB),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.LibraryDir == "" {
		errors = append(errors, "LIBRARY_DIR cannot be empty")
	}

	if c.DemucsBin == "" {
		errors = append(errors, "DEMUCS_BIN cannot be empty")
	}

	if c.YtDlpBin == "" {
		errors = append(errors, "YTDLP_BIN cannot be empty")
	}

	validDevices := map[string]bool{
		constants.DeviceAuto: true,
		constants.DeviceCUDA: true,
		constants.DeviceCPU:  true,
	}
	if !validDevices[c.DemucsDevice] {
		errors = append(errors, fmt.Sprintf("DEMUCS_DEVICE must be one of: auto, cuda, cpu, got: %s", c.DemucsDevice))
	}

	for _, ep := range []struct{ name, raw string }{
		{"ITUNES_URL", c.ITunesURL},
		{"MUSICBRAINZ_URL", c.MusicBrainzURL},
		{"LRCLIB_URL", c.LRCLibURL},
	} {
		name, raw := ep.name, ep.raw
		if raw == "" {
			errors = append(errors, name+" cannot be empty")
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("%s is not a valid URL: %s", name, raw))
		}
	}

	if strings.TrimSpace(c.UserAgent) == "" {
		errors = append(errors, "USER_AGENT cannot be empty")
	}

	if c.MaxConcurrentJobs < 1 || c.MaxConcurrentJobs > 16 {
		errors = append(errors, fmt.Sprintf("MAX_CONCURRENT_JOBS must be between 1 and 16, got: %d", c.MaxConcurrentJobs))
	}

	if c.MaxUploadMB < 1 {
		errors = append(errors, fmt.Sprintf("MAX_UPLOAD_MB must be positive, got: %d", c.MaxUploadMB))
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		// surfaces through Validate
		return -1
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return b
}
