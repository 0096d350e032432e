package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env         string
	ServiceName string

	DatabaseURL string
	HTTPPort    string
	MetricsPort string

	DiscordToken string

	ExtractorURL     string
	ExtractorAPIKey  string
	ExtractorTimeout time.Duration

	RedisAddr         string
	KafkaBrokers      string
	TopicBetSettled   string
	MatchWindow       time.Duration
	SessionTTL        time.Duration
	CORSAllowedOrigin []string
}

// Load reads .env when present and then the process environment. Everything
// except DATABASE_URL has a default; optional integrations stay off when
// their variable is empty.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	return FromViper(v)
}

func FromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("ENV", "local")
	v.SetDefault("SERVICE_NAME", "bet-tracker")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("METRICS_PORT", "9095")
	v.SetDefault("EXTRACTOR_TIMEOUT", "30s")
	v.SetDefault("KAFKA_TOPIC_BET_SETTLED", "bet_settled")
	v.SetDefault("MATCH_WINDOW_DAYS", 30)
	v.SetDefault("SESSION_TTL", "15m")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	cfg := Config{
		Env:              v.GetString("ENV"),
		ServiceName:      v.GetString("SERVICE_NAME"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		HTTPPort:         v.GetString("HTTP_PORT"),
		MetricsPort:      v.GetString("METRICS_PORT"),
		DiscordToken:     v.GetString("DISCORD_BOT_TOKEN"),
		ExtractorURL:     v.GetString("EXTRACTOR_URL"),
		ExtractorAPIKey:  v.GetString("EXTRACTOR_API_KEY"),
		ExtractorTimeout: v.GetDuration("EXTRACTOR_TIMEOUT"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		KafkaBrokers:     v.GetString("KAFKA_BROKERS"),
		TopicBetSettled:  v.GetString("KAFKA_TOPIC_BET_SETTLED"),
		MatchWindow:      time.Duration(v.GetInt("MATCH_WINDOW_DAYS")) * 24 * time.Hour,
		SessionTTL:       v.GetDuration("SESSION_TTL"),
	}
	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigin = append(cfg.CORSAllowedOrigin, origin)
		}
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL not set in environment variables")
	}
	if cfg.MatchWindow <= 0 {
		return Config{}, fmt.Errorf("MATCH_WINDOW_DAYS must be positive")
	}
	return cfg, nil
}
