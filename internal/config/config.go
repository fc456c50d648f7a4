package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	defaultPath     = "config.yaml"

	configPathEnv     = "VIDEODIGEST_CONFIG"
	logLevelEnv       = "VIDEODIGEST_LOG_LEVEL"
	youtubeAPIKeyEnv  = "YOUTUBE_API_KEY"
	geminiAPIKeyEnv   = "GEMINI_API_KEY"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	smtpUserEnv       = "SMTP_USER"
	smtpPasswordEnv   = "SMTP_PASSWORD"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Scanner strategy names.
const (
	ScannerAPI = "api"
	ScannerRSS = "rss"
)

// Generator providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Processed-set backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds every setting the poller needs.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Channels   []ChannelConfig  `yaml:"channels"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Email      EmailConfig      `yaml:"email"`
	Recipients RecipientsConfig `yaml:"recipients"`
	Storage    StorageConfig    `yaml:"storage"`
	Run        RunConfig        `yaml:"run"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Telegram   TelegramConfig   `yaml:"telegram"`
}

// LoggingConfig selects verbosity and an optional log file.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// YouTubeConfig describes how channels are listed.
type YouTubeConfig struct {
	APIKey      string `yaml:"apiKey"`
	APIBaseURL  string `yaml:"apiBaseUrl"`
	FeedBaseURL string `yaml:"feedBaseUrl"`
	WatchURL    string `yaml:"watchUrl"`
	// Scanner is the default listing strategy for channels that do not set one.
	Scanner string        `yaml:"scanner"`
	Timeout time.Duration `yaml:"timeout"`
}

// ChannelConfig is one polled channel. A bare string in YAML is accepted as
// the channel id.
type ChannelConfig struct {
	ID      string `yaml:"id"`
	Scanner string `yaml:"scanner"`
}

// UnmarshalYAML accepts both `- UCxxxx` and `- {id: UCxxxx, scanner: rss}`.
func (c *ChannelConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.ID = strings.TrimSpace(node.Value)
		return nil
	}
	type plain ChannelConfig
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = ChannelConfig(p)
	c.ID = strings.TrimSpace(c.ID)
	return nil
}

// GeneratorConfig defines how to contact the text generation provider.
type GeneratorConfig struct {
	Provider       string            `yaml:"provider"`
	Endpoint       string            `yaml:"endpoint"`
	Model          string            `yaml:"model"`
	APIKey         string            `yaml:"apiKey"`
	Temperature    float64           `yaml:"temperature"`
	SafetySettings map[string]string `yaml:"safetySettings"`
	Attempts       int               `yaml:"attempts"`
	RetryDelay     time.Duration     `yaml:"retryDelay"`
	Timeout        time.Duration     `yaml:"timeout"`
	Prompts        PromptsConfig     `yaml:"prompts"`
}

// PromptsConfig holds the three section prompts; `{transcript}` marks where
// the transcript is inserted.
type PromptsConfig struct {
	Executive string `yaml:"executive"`
	Detailed  string `yaml:"detailed"`
	Quotes    string `yaml:"quotes"`
}

// TranscriptConfig controls caption retrieval.
type TranscriptConfig struct {
	Languages  []string      `yaml:"languages"`
	Attempts   int           `yaml:"attempts"`
	RetryDelay time.Duration `yaml:"retryDelay"`
	Timeout    time.Duration `yaml:"timeout"`
}

// EmailConfig wires SMTP submission.
type EmailConfig struct {
	SMTPServer   string        `yaml:"smtpServer"`
	SMTPPort     int           `yaml:"smtpPort"`
	SMTPUser     string        `yaml:"smtpUser"`
	SMTPPassword string        `yaml:"smtpPassword"`
	Sender       string        `yaml:"sender"`
	Timeout      time.Duration `yaml:"timeout"`
}

// RecipientsConfig maps channels to address lists.
type RecipientsConfig struct {
	Default  []string            `yaml:"default"`
	Channels map[string][]string `yaml:"channels"`
}

// StorageConfig locates persisted state and generated files.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	ProcessedFile string `yaml:"processedFile"`
	SQLitePath    string `yaml:"sqlitePath"`
	OutputDir     string `yaml:"outputDir"`
	LockFile      string `yaml:"lockFile"`
}

// RunConfig tunes one polling pass.
type RunConfig struct {
	MaxResultsPerChannel int           `yaml:"maxResultsPerChannel"`
	Overfetch            int           `yaml:"overfetch"`
	RecencyWindow        time.Duration `yaml:"recencyWindow"`
	MinDuration          time.Duration `yaml:"minDuration"`
	Pacing               PacingConfig  `yaml:"pacing"`
}

// PacingConfig spaces out upstream calls.
type PacingConfig struct {
	AfterLookup        time.Duration `yaml:"afterLookup"`
	BetweenItems       time.Duration `yaml:"betweenItems"`
	BetweenChannels    time.Duration `yaml:"betweenChannels"`
	BetweenGenerations time.Duration `yaml:"betweenGenerations"`
}

// SchedulerConfig defines when watch mode runs.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// TelegramConfig wires the optional operator report channel.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// ChannelIDs returns the configured channel ids in order.
func (c Config) ChannelIDs() []string {
	ids := make([]string, 0, len(c.Channels))
	for _, ch := range c.Channels {
		ids = append(ids, ch.ID)
	}
	return ids
}

// ScannerFor returns the listing strategy for a channel.
func (c Config) ScannerFor(ch ChannelConfig) string {
	if s := strings.TrimSpace(ch.Scanner); s != "" {
		return s
	}
	return c.YouTube.Scanner
}

// ResolvePath picks the config file: the explicit flag, then the environment,
// then config.yaml in the working directory.
func ResolvePath(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(configPathEnv)); v != "" {
		return v
	}
	return defaultPath
}

// Load reads .env files, the YAML file at path (if present) and environment
// overrides, then normalizes the result. It does not validate.
func Load(path string) (Config, error) {
	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults plus environment only.
	case err != nil:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadEnvFiles loads .env.local then .env; variables already set in the
// process environment win.
func loadEnvFiles() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	setIfPresent := func(target *string, env string) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*target = v
		}
	}

	setIfPresent(&c.Logging.Level, logLevelEnv)
	setIfPresent(&c.YouTube.APIKey, youtubeAPIKeyEnv)
	setIfPresent(&c.Email.SMTPUser, smtpUserEnv)
	setIfPresent(&c.Email.SMTPPassword, smtpPasswordEnv)
	setIfPresent(&c.Telegram.BotToken, telegramTokenEnv)
	setIfPresent(&c.Telegram.ChatID, telegramChatIDEnv)

	switch c.Generator.Provider {
	case ProviderOpenAI:
		setIfPresent(&c.Generator.APIKey, openAIAPIKeyEnv)
	default:
		setIfPresent(&c.Generator.APIKey, geminiAPIKeyEnv)
	}
}

func (c *Config) normalize() {
	c.YouTube.Scanner = strings.ToLower(strings.TrimSpace(c.YouTube.Scanner))
	for i := range c.Channels {
		c.Channels[i].Scanner = strings.ToLower(strings.TrimSpace(c.Channels[i].Scanner))
	}
	c.Generator.Provider = strings.ToLower(strings.TrimSpace(c.Generator.Provider))
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))

	if c.Generator.Endpoint == "" {
		c.Generator.Endpoint = defaultEndpoint(c.Generator.Provider)
	}
	if c.Generator.Model == "" {
		c.Generator.Model = defaultModel(c.Generator.Provider)
	}
	if c.Storage.LockFile == "" {
		c.Storage.LockFile = c.Storage.ProcessedFile + ".lock"
	}

	c.Recipients.Default = cleanAddresses(c.Recipients.Default)
	for key, list := range c.Recipients.Channels {
		cleaned := cleanAddresses(list)
		if len(cleaned) == 0 {
			delete(c.Recipients.Channels, key)
			continue
		}
		c.Recipients.Channels[key] = cleaned
	}
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("config: unknown scheduler timezone %q: %w", tz, err)
	}
	c.Scheduler.location = loc
	return nil
}

func cleanAddresses(list []string) []string {
	out := make([]string, 0, len(list))
	for _, entry := range list {
		// Entries may themselves be comma-separated.
		for _, addr := range strings.Split(entry, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				out = append(out, addr)
			}
		}
	}
	return out
}
