package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr      string
	MongoURI      string
	MongoDB       string
	GelfAddr      string
	JWTSecret     string
	SigningSecret string
	AdminEmail    string
	AdminPass     string
}

func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		HTTPAddr:      getEnv("FT_ADDR", ":8080"),
		MongoURI:      getEnv("FT_MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:       getEnv("FT_MONGO_DB", "formtrail"),
		GelfAddr:      getEnv("FT_GELF_ADDR", ""),
		JWTSecret:     getEnv("FT_JWT_SECRET", "formtrail-dev-secret-change-me"),
		SigningSecret: getEnv("FT_SIGNING_SECRET", "formtrail-dev-signing-key"),
		AdminEmail:    getEnv("FT_ADMIN_EMAIL", "admin@formtrail.local"),
		AdminPass:     getEnv("FT_ADMIN_PASS", "admin123"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
