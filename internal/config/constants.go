package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./alaya.db"

	DefaultHost = "127.0.0.1"
	DefaultPort = 3000

	DefaultSummaryModel   = "gpt-5-nano"
	DefaultSummaryBaseURL = "https://api.openai.com/v1"
)
