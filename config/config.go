package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	MongoURI      string
	MongoDatabase string

	ListingsCollection     string
	BuyersCollection       string
	ListingMatchCollection string
	BuyerMatchCollection   string
	CuratedSetsCollection  string

	// CacheBackend selects the durable snapshot cache: "file" or "postgres".
	CacheBackend string
	CacheDir     string
	PostgresDSN  string
	CacheFlushMs int

	APIPort string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "backoffice"),

		ListingsCollection:     getEnv("LISTINGS_COLLECTION", "listings"),
		BuyersCollection:       getEnv("BUYERS_COLLECTION", "buyers"),
		ListingMatchCollection: getEnv("LISTING_MATCH_COLLECTION", "listing_matches"),
		BuyerMatchCollection:   getEnv("BUYER_MATCH_COLLECTION", "buyer_matches"),
		CuratedSetsCollection:  getEnv("CURATED_SETS_COLLECTION", "curated_sets"),

		CacheBackend: getEnv("CACHE_BACKEND", "file"),
		CacheDir:     getEnv("CACHE_DIR", "./cache"),
		PostgresDSN:  getEnv("POSTGRES_DSN", ""),
		CacheFlushMs: getEnvInt("CACHE_FLUSH_MS", 200),

		APIPort: getEnv("API_PORT", "8083"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
