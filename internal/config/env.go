package config

import (
	"time"

	"github.com/joho/godotenv"
)

// LoadFromEnv loads configuration from environment variables.
// envFilePath optionally names a dotenv file to load first; when empty, a
// .env in the current directory is loaded if present.
//
// Credential presence is not enforced here: the Confluence URL and username
// may still be filled in from the sync file's confluence block. Callers
// check MissingCredentials after that merge.
func LoadFromEnv(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			return nil, err
		}
	} else {
		_ = godotenv.Load() // Ignore errors if file doesn't exist
	}

	cfg := &Config{}

	cfg.GitHub = GitHubConfig{
		Token:          getEnvString("GITHUB_TOKEN", ""),
		APIURL:         getEnvString("CONFSYNC_GITHUB_API_URL", "https://api.github.com"),
		RequestTimeout: getEnvDuration("CONFSYNC_HTTP_TIMEOUT", 30*time.Second),
	}

	cfg.Confluence = ConfluenceConfig{
		BaseURL:        getEnvString("CONFLUENCE_URL", ""),
		Username:       getEnvString("CONFLUENCE_USERNAME", ""),
		APIToken:       getEnvString("CONFLUENCE_API_TOKEN", ""),
		RequestTimeout: getEnvDuration("CONFSYNC_HTTP_TIMEOUT", 30*time.Second),
	}

	cfg.Logging = LoggingConfig{
		Level:      getEnvString("CONFSYNC_LOG_LEVEL", "info"),
		Format:     getEnvString("CONFSYNC_LOG_FORMAT", "text"),
		Output:     getEnvString("CONFSYNC_LOG_OUTPUT", "stderr"),
		AddSource:  getEnvBool("CONFSYNC_LOG_ADD_SOURCE", false),
		TimeFormat: getEnvString("CONFSYNC_LOG_TIME_FORMAT", time.RFC3339),
	}

	return cfg, nil
}
