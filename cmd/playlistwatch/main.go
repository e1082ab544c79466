// Package main provides the playlistwatch CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"playlistwatch/internal/core"
	httpserver "playlistwatch/internal/http"
	"playlistwatch/internal/notify"
	"playlistwatch/internal/spotify"
	"playlistwatch/internal/store"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "playlistwatch",
	Short: "playlistwatch - Spotify playlist change monitor",
	Long: `playlistwatch periodically inspects Spotify playlists, detects tracks
added since the last observation and emails a notification for the delta.`,
	RunE: runPlaylistWatch,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("notify-provider", "smtp", "notification provider (smtp, sendgrid)")
	rootCmd.PersistentFlags().String("smtp-host", "", "SMTP host")
	rootCmd.PersistentFlags().Int("smtp-port", 587, "SMTP port")
	rootCmd.PersistentFlags().String("smtp-user", "", "SMTP user")
	rootCmd.PersistentFlags().String("smtp-password", "", "SMTP password")
	rootCmd.PersistentFlags().String("sendgrid-api-key", "", "SendGrid API key")
	rootCmd.PersistentFlags().String("notify-from", "", "notification sender address")
	rootCmd.PersistentFlags().String("notify-to", "", "notification recipient address")
	rootCmd.PersistentFlags().String("playlists", "", "comma-separated playlist IDs for the recurring check")
	rootCmd.PersistentFlags().Duration("check-interval", core.DefaultCheckInterval, "recurring check interval")
	rootCmd.PersistentFlags().String("db-path", "./playlistwatch.db", "snapshot database path")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "HTTP server bind address")
	rootCmd.PersistentFlags().Int("server-port", 3001, "HTTP server port")
	rootCmd.PersistentFlags().String("environment", "development", "environment (development, production)")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("PLAYLISTWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")

	cfg.Notify.Provider = viper.GetString("notify-provider")
	if cfg.Notify.Provider == "" {
		cfg.Notify.Provider = "smtp"
	}
	cfg.Notify.SMTPHost = viper.GetString("smtp-host")
	cfg.Notify.SMTPPort = viper.GetInt("smtp-port")
	if cfg.Notify.SMTPPort == 0 {
		cfg.Notify.SMTPPort = 587
	}
	cfg.Notify.SMTPUser = viper.GetString("smtp-user")
	cfg.Notify.SMTPPassword = viper.GetString("smtp-password")
	cfg.Notify.SendGridAPIKey = viper.GetString("sendgrid-api-key")
	cfg.Notify.From = viper.GetString("notify-from")
	cfg.Notify.To = viper.GetString("notify-to")

	cfg.Monitor.PlaylistIDs = splitPlaylistIDs(viper.GetString("playlists"))
	if interval := viper.GetDuration("check-interval"); interval > 0 {
		cfg.Monitor.Interval = interval
	}

	cfg.Store.Path = viper.GetString("db-path")
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./playlistwatch.db"
	}

	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if port := viper.GetInt("server-port"); port != 0 {
		cfg.Server.Port = port
	}

	cfg.Log.Level = viper.GetString("log-level")

	if env := viper.GetString("environment"); env != "" {
		cfg.App.Environment = env
	}

	return cfg
}

// splitPlaylistIDs parses the comma-separated playlist list, dropping empty
// entries and surrounding whitespace.
func splitPlaylistIDs(value string) []string {
	if value == "" {
		return nil
	}

	var ids []string
	for _, part := range strings.Split(value, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runPlaylistWatch(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting playlistwatch",
		zap.String("environment", config.App.Environment),
		zap.Strings("playlists", config.Monitor.PlaylistIDs),
		zap.Duration("check_interval", config.Monitor.Interval))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	snapshots, err := store.Open(config.Store.Path, logger.Named("store"))
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer snapshots.Close()

	cachedStore, err := store.NewCachedStore(snapshots, config.Store.CacheSize)
	if err != nil {
		return fmt.Errorf("failed to create snapshot cache: %w", err)
	}

	tokens := spotify.NewTokenProvider(&config.Spotify, logger.Named("spotify"))
	fetcher := spotify.NewClient(tokens, logger.Named("spotify"))

	notifier, err := notify.New(&config.Notify, logger.Named("notify"))
	if err != nil {
		return fmt.Errorf("failed to create notifier: %w", err)
	}

	checker := core.NewChecker(fetcher, cachedStore, notifier, logger.Named("checker"))

	httpServer := httpserver.NewServer(
		&config.Server,
		config.App.Environment,
		checker,
		fetcher,
		notifier,
		cachedStore,
		logger.Named("http"),
	)

	monitor := core.NewMonitor(checker, &config.Monitor, httpServer, logger.Named("monitor"))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	g.Go(func() error {
		return monitor.Run(gCtx)
	})

	g.Go(func() error {
		httpServer.SetMonitoredPlaylists(len(config.Monitor.PlaylistIDs))

		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				httpServer.SetMonitoredPlaylists(len(config.Monitor.PlaylistIDs))
			}
		}
	})

	logger.Info("playlistwatch started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("playlistwatch stopped with error", zap.Error(err))
		return err
	}

	logger.Info("playlistwatch stopped gracefully")
	return nil
}

func validateConfig() error {
	if config.Spotify.ClientID == "" {
		return fmt.Errorf("spotify client ID is required")
	}

	if config.Spotify.ClientSecret == "" {
		return fmt.Errorf("spotify client secret is required")
	}

	switch config.Notify.Provider {
	case "smtp":
		if config.Notify.SMTPHost == "" {
			return fmt.Errorf("SMTP host is required for the smtp provider")
		}
	case "sendgrid":
		if config.Notify.SendGridAPIKey == "" {
			return fmt.Errorf("SendGrid API key is required for the sendgrid provider")
		}
	default:
		return fmt.Errorf("unknown notify provider: %q", config.Notify.Provider)
	}

	if config.Notify.From == "" || config.Notify.To == "" {
		return fmt.Errorf("notification from and to addresses are required")
	}

	return nil
}
