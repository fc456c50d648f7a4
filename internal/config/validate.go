package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"VideoDigest/internal/domain"
)

// Configuration validation errors.
var (
	ErrNoChannels          = errors.New("at least one channel id is required")
	ErrMissingYouTubeKey   = errors.New("youtube.apiKey is required when a channel uses the api scanner")
	ErrUnknownScanner      = errors.New("scanner must be 'api' or 'rss'")
	ErrUnknownProvider     = errors.New("generator.provider must be 'gemini' or 'openai'")
	ErrMissingGeneratorKey = errors.New("generator.apiKey is required")
	ErrInvalidAttempts     = errors.New("generator.attempts and transcript.attempts must be at least 1")
	ErrMissingEmail        = errors.New("email.smtpServer, email.smtpUser, email.smtpPassword and email.sender are required")
	ErrNoRecipients        = errors.New("at least one recipient (default or per channel) is required")
	ErrInvalidWindow       = errors.New("run.recencyWindow must be positive")
	ErrInvalidMaxResults   = errors.New("run.maxResultsPerChannel must be at least 1")
	ErrUnknownBackend      = errors.New("storage.backend must be 'json' or 'sqlite'")
	ErrMissingStoragePath  = errors.New("storage.processedFile (json) or storage.sqlitePath (sqlite) and storage.outputDir are required")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
)

var placeholderValues = map[string]bool{
	"YOUR_YOUTUBE_DATA_API_V3_KEY": true,
	"YOUR_GEMINI_API_KEY":          true,
	"YOUR_OPENAI_API_KEY":          true,
}

// Validate reports every configuration error at once. Any error is fatal at
// startup.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ErrInvalidLogLevel)
	}

	if len(c.Channels) == 0 {
		errs = append(errs, ErrNoChannels)
	}
	needsAPIKey := false
	for _, ch := range c.Channels {
		if ch.ID == "" {
			errs = append(errs, ErrNoChannels)
			continue
		}
		switch c.ScannerFor(ch) {
		case ScannerAPI:
			needsAPIKey = true
		case ScannerRSS:
		default:
			errs = append(errs, fmt.Errorf("channel %s: %w", ch.ID, ErrUnknownScanner))
		}
	}
	if needsAPIKey && missing(c.YouTube.APIKey) {
		errs = append(errs, ErrMissingYouTubeKey)
	}

	switch c.Generator.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, ErrUnknownProvider)
	}
	if missing(c.Generator.APIKey) {
		errs = append(errs, ErrMissingGeneratorKey)
	}
	if c.Generator.Attempts < 1 || c.Transcript.Attempts < 1 {
		errs = append(errs, ErrInvalidAttempts)
	}

	if c.Email.SMTPServer == "" || c.Email.SMTPUser == "" || c.Email.SMTPPassword == "" || c.Email.Sender == "" {
		errs = append(errs, ErrMissingEmail)
	}
	if c.RecipientBook().Empty() {
		errs = append(errs, ErrNoRecipients)
	}

	if c.Run.RecencyWindow <= 0 {
		errs = append(errs, ErrInvalidWindow)
	}
	if c.Run.MaxResultsPerChannel < 1 {
		errs = append(errs, ErrInvalidMaxResults)
	}

	switch c.Storage.Backend {
	case BackendJSON:
		if c.Storage.ProcessedFile == "" || c.Storage.OutputDir == "" {
			errs = append(errs, ErrMissingStoragePath)
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" || c.Storage.OutputDir == "" {
			errs = append(errs, ErrMissingStoragePath)
		}
	default:
		errs = append(errs, ErrUnknownBackend)
	}

	return errors.Join(errs...)
}

// Warnings lists non-fatal oddities worth logging at startup.
func (c Config) Warnings() []string {
	var warnings []string

	keys := make([]string, 0, len(c.Recipients.Channels))
	for key := range c.Recipients.Channels {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !LooksLikeChannelID(key) {
			warnings = append(warnings, fmt.Sprintf("recipients.channels key %q is not a channel id", key))
		}
	}

	for key := range c.Generator.SafetySettings {
		if !strings.HasPrefix(key, "HARM_CATEGORY_") {
			warnings = append(warnings, fmt.Sprintf("ignoring invalid safety setting %q", key))
		}
	}
	return warnings
}

// ValidSafetySettings returns only the recognised HARM_CATEGORY_* entries.
func (g GeneratorConfig) ValidSafetySettings() map[string]string {
	out := make(map[string]string, len(g.SafetySettings))
	for key, value := range g.SafetySettings {
		key = strings.TrimSpace(key)
		if strings.HasPrefix(key, "HARM_CATEGORY_") {
			out[key] = strings.TrimSpace(value)
		}
	}
	return out
}

// LooksLikeChannelID reports whether id has the UC-prefixed 24 character form.
func LooksLikeChannelID(id string) bool {
	return strings.HasPrefix(id, "UC") && len(id) == 24
}

func missing(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || placeholderValues[value]
}

// RecipientBook exposes the recipients section in its domain form.
func (c Config) RecipientBook() domain.RecipientBook {
	return domain.RecipientBook{Default: c.Recipients.Default, PerSource: c.Recipients.Channels}
}
