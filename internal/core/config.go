package core

import (
	"time"
)

const (
	// DefaultCheckInterval is the cadence of the recurring playlist check.
	DefaultCheckInterval = 5 * time.Minute
	// DefaultSnapshotCacheSize is the capacity of the snapshot read cache.
	DefaultSnapshotCacheSize = 128
	// EnvProduction is the environment value that suppresses error detail in
	// HTTP responses.
	EnvProduction = "production"
)

type Config struct {
	Spotify SpotifyConfig
	Notify  NotifyConfig
	Monitor MonitorConfig
	Store   StoreConfig
	Server  ServerConfig
	Log     LogConfig
	App     AppConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

type NotifyConfig struct {
	// Provider selects the notification binding: "smtp" or "sendgrid".
	Provider       string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SendGridAPIKey string
	From           string
	To             string
}

type MonitorConfig struct {
	// PlaylistIDs is the set of playlists the recurring check observes.
	// Empty disables the schedule entirely.
	PlaylistIDs []string
	Interval    time.Duration
}

type StoreConfig struct {
	Path      string
	CacheSize int
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level string
}

type AppConfig struct {
	Environment string
}

func DefaultConfig() *Config {
	return &Config{
		Notify: NotifyConfig{
			Provider: "smtp",
			SMTPPort: 587,
		},
		Monitor: MonitorConfig{
			Interval: DefaultCheckInterval,
		},
		Store: StoreConfig{
			Path:      "./playlistwatch.db",
			CacheSize: DefaultSnapshotCacheSize,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         3001,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		App: AppConfig{
			Environment: "development",
		},
	}
}
