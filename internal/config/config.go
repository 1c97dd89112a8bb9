package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	OutputDir      string
	Language       string
	WorkerCount    int
	Comments       bool
	VariablesFile  string
	ForcedListKeys []string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		OutputDir:      getEnv("CK_OUTPUT_DIR", "output"),
		Language:       getEnv("CK_LANGUAGE", "english"),
		WorkerCount:    getEnvInt("CK_WORKER_COUNT", 8),
		Comments:       getEnvBool("CK_COMMENTS", false),
		VariablesFile:  getEnv("CK_VARIABLES_FILE", "_variables.json"),
		ForcedListKeys: getEnvList("CK_FORCED_LIST_KEYS"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
