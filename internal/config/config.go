package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	JWTTokenTTL            time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	DashboardCacheTTL      time.Duration
	GradingTimeout         time.Duration
	SignedURLTTL           time.Duration
	OpenAIAPIKey           string
	OpenAIScoringModel     string
	OpenAIVisionModel      string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSHUB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ClassHub API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cloudinary.folder", "classhub/submissions")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("grading.timeout", "45s")
	v.SetDefault("signed_url.ttl", "1h")
	v.SetDefault("jwt.token_ttl", "24h")
	v.SetDefault("openai.scoring_model", "gpt-4o-mini")
	v.SetDefault("openai.vision_model", "gpt-4o-mini")

	cacheTTL, err := parseDuration(v.GetString("dashboard.cache_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	gradingTimeout, err := parseDuration(v.GetString("grading.timeout"), 45*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid grading timeout: %w", err)
	}

	signedURLTTL, err := parseDuration(v.GetString("signed_url.ttl"), time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid signed url ttl: %w", err)
	}

	tokenTTL, err := parseDuration(v.GetString("jwt.token_ttl"), 24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt token ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTTokenTTL:            tokenTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		DashboardCacheTTL:      cacheTTL,
		GradingTimeout:         gradingTimeout,
		SignedURLTTL:           signedURLTTL,
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		OpenAIScoringModel:     v.GetString("openai.scoring_model"),
		OpenAIVisionModel:      v.GetString("openai.vision_model"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}

	return time.ParseDuration(raw)
}
