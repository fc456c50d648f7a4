package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
logging:
  level: debug
youtube:
  apiKey: yt-key
channels:
  - UCaaaaaaaaaaaaaaaaaaaaaa
  - id: UCbbbbbbbbbbbbbbbbbbbbbb
    scanner: RSS
generator:
  apiKey: gem-key
  safetySettings:
    HARM_CATEGORY_HARASSMENT: BLOCK_NONE
    NOT_A_CATEGORY: BLOCK_NONE
email:
  smtpServer: smtp.example.com
  smtpUser: bot@example.com
  smtpPassword: secret
  sender: bot@example.com
recipients:
  default: ["a@example.com, b@example.com"]
  channels:
    UCbbbbbbbbbbbbbbbbbbbbbb: ["c@example.com"]
    my-channel: ["d@example.com"]
run:
  recencyWindow: 48h
  minDuration: 3m
scheduler:
  timezone: Europe/Berlin
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"UCaaaaaaaaaaaaaaaaaaaaaa", "UCbbbbbbbbbbbbbbbbbbbbbb"}, cfg.ChannelIDs())
	assert.Equal(t, ScannerAPI, cfg.ScannerFor(cfg.Channels[0]))
	assert.Equal(t, ScannerRSS, cfg.ScannerFor(cfg.Channels[1]))
	assert.Equal(t, 48*time.Hour, cfg.Run.RecencyWindow)
	assert.Equal(t, 3*time.Minute, cfg.Run.MinDuration)
	assert.Equal(t, 5, cfg.Run.Overfetch)
	assert.Equal(t, ProviderGemini, cfg.Generator.Provider)
	assert.Equal(t, defaultGeminiEndpoint, cfg.Generator.Endpoint)
	assert.Equal(t, defaultGeminiModel, cfg.Generator.Model)
	assert.Equal(t, "processed_videos.json.lock", cfg.Storage.LockFile)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Recipients.Default)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
	assert.Contains(t, cfg.Generator.Prompts.Executive, "{transcript}")
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 25*time.Hour, cfg.Run.RecencyWindow)
	assert.Equal(t, 1, cfg.Run.MaxResultsPerChannel)
	assert.Equal(t, "0 * * * *", cfg.Scheduler.CronExpression)
	assert.Equal(t, BackendJSON, cfg.Storage.Backend)
	assert.ErrorIs(t, cfg.Validate(), ErrNoChannels)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv(youtubeAPIKeyEnv, "env-yt")
	t.Setenv(openAIAPIKeyEnv, "env-openai")
	t.Setenv(smtpPasswordEnv, "env-pass")
	t.Setenv(logLevelEnv, "warn")

	body := strings.Replace(sampleConfig, "generator:\n", "generator:\n  provider: openai\n", 1)
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, "env-yt", cfg.YouTube.APIKey)
	assert.Equal(t, "env-openai", cfg.Generator.APIKey)
	assert.Equal(t, "env-pass", cfg.Email.SMTPPassword)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, defaultOpenAIEndpoint, cfg.Generator.Endpoint)
	assert.Equal(t, defaultOpenAIModel, cfg.Generator.Model)
}

func TestLoadRejectsBadInput(t *testing.T) {
	_, err := Load(writeConfig(t, "channels: [unterminated"))
	assert.ErrorContains(t, err, "parse")

	_, err = Load(writeConfig(t, "scheduler:\n  timezone: Mars/Olympus\n"))
	assert.ErrorContains(t, err, "timezone")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Channels = []ChannelConfig{{ID: "UCaaaaaaaaaaaaaaaaaaaaaa"}}
	cfg.YouTube.APIKey = "YOUR_YOUTUBE_DATA_API_V3_KEY"
	cfg.Generator.Provider = "claude"
	cfg.Run.RecencyWindow = 0
	cfg.Storage.Backend = "postgres"

	err := cfg.Validate()
	require.Error(t, err)

	for _, want := range []error{
		ErrMissingYouTubeKey,
		ErrUnknownProvider,
		ErrMissingGeneratorKey,
		ErrMissingEmail,
		ErrNoRecipients,
		ErrInvalidWindow,
		ErrUnknownBackend,
	} {
		assert.True(t, errors.Is(err, want), "missing %v", want)
	}
	assert.False(t, errors.Is(err, ErrNoChannels))
}

func TestValidateRSSOnlyNeedsNoYouTubeKey(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.YouTube.Scanner = ScannerRSS
	cfg.Channels = []ChannelConfig{{ID: "UCaaaaaaaaaaaaaaaaaaaaaa"}}

	assert.False(t, errors.Is(cfg.Validate(), ErrMissingYouTubeKey))
}

func TestValidateRejectsOnlyEmptyRecipientLists(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Channels = []ChannelConfig{{ID: "UCaaaaaaaaaaaaaaaaaaaaaa"}}
	cfg.Recipients.Channels = map[string][]string{"UCaaaaaaaaaaaaaaaaaaaaaa": {}}

	assert.ErrorIs(t, cfg.Validate(), ErrNoRecipients)

	cfg.Recipients.Channels["UCaaaaaaaaaaaaaaaaaaaaaa"] = []string{"a@example.com"}
	assert.NotErrorIs(t, cfg.Validate(), ErrNoRecipients)
}

func TestWarnings(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	warnings := cfg.Warnings()
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "my-channel")
	assert.Contains(t, warnings[1], "NOT_A_CATEGORY")
	assert.Equal(t, map[string]string{"HARM_CATEGORY_HARASSMENT": "BLOCK_NONE"}, cfg.Generator.ValidSafetySettings())
}

func TestResolvePath(t *testing.T) {
	t.Setenv(configPathEnv, "")
	assert.Equal(t, "config.yaml", ResolvePath(""))
	assert.Equal(t, "custom.yaml", ResolvePath(" custom.yaml "))

	t.Setenv(configPathEnv, "/etc/videodigest.yaml")
	assert.Equal(t, "/etc/videodigest.yaml", ResolvePath(""))
}
