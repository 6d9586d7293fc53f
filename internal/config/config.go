package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr       string
	CORSOrigin string
	// Redis holds every entity, registry and queue
	RedisURL string
	// Checkouts are read from ReposDir/{user}/{repo}
	ReposDir string
	// GitHub
	GitHubToken  string
	GitHubAPIURL string
	// Posting
	PageSize  int
	PostLimit int
	DryRun    bool
}

// Load reads the environment, after merging in a .env file from the working
// directory if one exists. Variables already set take precedence.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:         getenv("API_ADDR", ":8787"),
		CORSOrigin:   getenv("TODO_CORS_ORIGIN", "*"),
		RedisURL:     getenv("REDIS_URL", "redis://localhost:6379/0"),
		ReposDir:     getenv("TODO_REPOS_DIR", "./data/repos"),
		GitHubToken:  getenv("GITHUB_TOKEN", os.Getenv("GH_TOKEN")),
		GitHubAPIURL: getenv("GITHUB_API_URL", ""),
		PageSize:     getenvInt("TODO_PAGE_SIZE", 25),
		PostLimit:    getenvInt("TODO_POST_LIMIT", 0),
		DryRun:       getenvBool("TODO_DRY_RUN", false),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
