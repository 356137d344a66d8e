package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIAddr           string
	UploadsRoot       string
	ChunkSize         int
	ChunkOverlap      int
	TopK              int
	MaxDocuments      int
	EmbedDim          int
	LLMProviders      string
	EmbedProviders    string
	SessionTTL        time.Duration
	SessionPurgeEvery time.Duration
}

func Load() Config {
	return Config{
		APIAddr:           getenv("DOCCHAT_API_ADDR", ":8080"),
		UploadsRoot:       getenv("DOCCHAT_UPLOADS_ROOT", "./uploads"),
		ChunkSize:         getenvInt("DOCCHAT_CHUNK_SIZE", 1000),
		ChunkOverlap:      getenvInt("DOCCHAT_CHUNK_OVERLAP", 150),
		TopK:              getenvInt("DOCCHAT_TOP_K", 4),
		MaxDocuments:      getenvInt("DOCCHAT_MAX_DOCUMENTS", 3),
		EmbedDim:          getenvInt("DOCCHAT_EMBED_DIM", 768),
		LLMProviders:      getenv("DOCCHAT_LLM_PROVIDERS", "mock"),
		EmbedProviders:    getenv("DOCCHAT_EMBED_PROVIDERS", "mock"),
		SessionTTL:        getenvDuration("DOCCHAT_SESSION_TTL", time.Hour),
		SessionPurgeEvery: getenvDuration("DOCCHAT_SESSION_PURGE_EVERY", 10*time.Minute),
	}
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
