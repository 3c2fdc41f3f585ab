package config

import (
	"os"
	"strconv"
	"time"
)

type ConfigStruct struct {
	Spotify  SpotifyConfig
	Card     CardConfig
	Options  Options
	Database DatabaseConfig
	Sentry   SentryConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIURL       string
	Market       string
	RetryDelay   time.Duration // base delay for token exchange retries
}

type CardConfig struct {
	Watermark      string
	ArtworkTimeout time.Duration
	ArtworkCache   time.Duration // zero disables the artwork cache
	CacheMaxAge    int           // seconds, sent as Cache-Control max-age
}

type Options struct {
	Port     string
	LogLevel string
}

type DatabaseConfig struct {
	Path           string
	HistoryEnabled bool
}

type SentryConfig struct {
	DSN     string
	Release string
}

func (s *SpotifyConfig) HasCredentials() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

var Config *ConfigStruct

const (
	defaultTokenURL  = "https://accounts.spotify.com/api/token"
	defaultAPIURL    = "https://api.spotify.com/v1/"
	defaultWatermark = "Generated by Vinylogue"
	defaultDBPath    = "data/vinylogue.db"
)

func NewConfig() {
	config := &ConfigStruct{
		Spotify: SpotifyConfig{
			ClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
			ClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
			TokenURL:     getString("SPOTIFY_TOKEN_URL", defaultTokenURL),
			APIURL:       getString("SPOTIFY_API_URL", defaultAPIURL),
			Market:       getString("SPOTIFY_MARKET", "US"),
			RetryDelay:   getRetryDelay(),
		},
		Card: CardConfig{
			Watermark:      getString("CARD_WATERMARK", defaultWatermark),
			ArtworkTimeout: getArtworkTimeout(),
			ArtworkCache:   getArtworkCache(),
			CacheMaxAge:    getCacheMaxAge(),
		},
		Options: Options{
			Port:     getString("PORT", "8080"),
			LogLevel: getString("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Path:           getString("DB_PATH", defaultDBPath),
			HistoryEnabled: os.Getenv("HISTORY_ENABLED") == "true",
		},
		Sentry: SentryConfig{
			DSN:     os.Getenv("SENTRY_DSN"),
			Release: os.Getenv("RELEASE"),
		},
	}

	Config = config
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getRetryDelay() time.Duration {
	msStr := os.Getenv("SPOTIFY_RETRY_DELAY_MS")
	if msStr == "" {
		return time.Second
	}
	ms, err := strconv.Atoi(msStr)
	if err != nil || ms <= 0 {
		return time.Second
	}
	if ms > 10000 {
		return 10 * time.Second
	}
	return time.Duration(ms) * time.Millisecond
}

func getArtworkTimeout() time.Duration {
	secStr := os.Getenv("ARTWORK_TIMEOUT_SECONDS")
	if secStr == "" {
		return 10 * time.Second
	}
	sec, err := strconv.Atoi(secStr)
	if err != nil || sec <= 0 {
		return 10 * time.Second
	}
	if sec > 60 {
		return 60 * time.Second
	}
	return time.Duration(sec) * time.Second
}

func getArtworkCache() time.Duration {
	minStr := os.Getenv("ARTWORK_CACHE_MINUTES")
	if minStr == "" {
		return time.Hour
	}
	minutes, err := strconv.Atoi(minStr)
	if err != nil || minutes < 0 {
		return time.Hour
	}
	return time.Duration(minutes) * time.Minute
}

func getCacheMaxAge() int {
	ageStr := os.Getenv("CARD_CACHE_MAX_AGE")
	if ageStr == "" {
		return 86400
	}
	age, err := strconv.Atoi(ageStr)
	if err != nil || age < 0 {
		return 86400
	}
	if age > 604800 {
		return 604800 // a week
	}
	return age
}
