package config

import "time"

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel    = "gemini-1.5-pro-latest"
	defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel    = "gpt-4o-mini"
)

const defaultExecutivePrompt = `You are summarizing a YouTube video for a busy reader.
Write a short executive summary (3-5 bullet points) of the transcript below.

Transcript:
{transcript}`

const defaultDetailedPrompt = `Write a detailed, well-structured summary of the video transcript below.
Use Markdown headings for the main topics and keep the speaker's key arguments.

Transcript:
{transcript}`

const defaultQuotesPrompt = `Extract the 5-10 most insightful verbatim quotes from the transcript below
as a Markdown bullet list. Do not invent quotes.

Transcript:
{transcript}`

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", File: "monitor.log"},
		YouTube: YouTubeConfig{
			APIBaseURL:  "https://www.googleapis.com/youtube/v3",
			FeedBaseURL: "https://www.youtube.com/feeds/videos.xml",
			WatchURL:    "https://www.youtube.com/watch",
			Scanner:     ScannerAPI,
			Timeout:     20 * time.Second,
		},
		Generator: GeneratorConfig{
			Provider:    ProviderGemini,
			Temperature: 0.7,
			Attempts:    3,
			RetryDelay:  10 * time.Second,
			Timeout:     120 * time.Second,
			Prompts: PromptsConfig{
				Executive: defaultExecutivePrompt,
				Detailed:  defaultDetailedPrompt,
				Quotes:    defaultQuotesPrompt,
			},
		},
		Transcript: TranscriptConfig{
			Languages:  []string{"en", "en-US", "en-GB"},
			Attempts:   3,
			RetryDelay: 30 * time.Second,
			Timeout:    30 * time.Second,
		},
		Email: EmailConfig{
			SMTPPort: 587,
			Timeout:  60 * time.Second,
		},
		Storage: StorageConfig{
			Backend:       BackendJSON,
			ProcessedFile: "processed_videos.json",
			SQLitePath:    "processed_videos.db",
			OutputDir:     "output",
		},
		Run: RunConfig{
			MaxResultsPerChannel: 1,
			Overfetch:            5,
			RecencyWindow:        25 * time.Hour,
			Pacing: PacingConfig{
				AfterLookup:        time.Second,
				BetweenItems:       5 * time.Second,
				BetweenChannels:    2 * time.Second,
				BetweenGenerations: time.Second,
			},
		},
		Scheduler: SchedulerConfig{
			CronExpression: "0 * * * *",
			Timezone:       defaultTimezone,
		},
	}
}

func defaultEndpoint(provider string) string {
	if provider == ProviderOpenAI {
		return defaultOpenAIEndpoint
	}
	return defaultGeminiEndpoint
}

func defaultModel(provider string) string {
	if provider == ProviderOpenAI {
		return defaultOpenAIModel
	}
	return defaultGeminiModel
}
