package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"ytgram/internal/telegram"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Commands is the command menu registered with Telegram at startup.
var Commands = []telegram.BotCommand{
	{Command: "help", Description: "Show this help message."},
	{Command: "start", Description: "Start interacting with the bot."},
	{Command: "setup", Description: "Setup your YouTrack instance."},
	{Command: "reset", Description: "Resets the configuration."},
	{Command: "list", Description: "List all the projects in the instance."},
	{Command: "create", Description: "Create a new issue."},
	{Command: "skip", Description: "Skip the description when creating an issue."},
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	TelegramToken  string
	TelegramServer string
	DataPath       string
	DBPath         string
	LogDir         string
	PollInterval   time.Duration
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory first.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	pollSecs, _ := strconv.Atoi(getEnv("POLL_INTERVAL_SECONDS", "30"))
	if pollSecs <= 0 {
		pollSecs = 30
	}

	cfg := &AppConfig{
		TelegramToken:  token,
		TelegramServer: getEnv("TELEGRAM_SERVER", "https://api.telegram.org"),
		DataPath:       dataPath,
		DBPath:         getEnv("DB_PATH", filepath.Join(dataPath, "ytgram.db")),
		LogDir:         logDir,
		PollInterval:   time.Duration(pollSecs) * time.Second,
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
