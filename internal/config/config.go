package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken        string           `yaml:"discord_token"`
	DatabasePath        string           `yaml:"database_path"`
	LogLevel            string           `yaml:"log_level"`
	OwnerUserID         string           `yaml:"owner_user_id"`
	AnnouncementChannel string           `yaml:"announcement_channel"`
	Health              HealthConfig     `yaml:"health"`
	ClashAPI            ClashAPIConfig   `yaml:"clash_api"`
	Clans               []Clan           `yaml:"clans"`
	Leaderboard         LeaderboardStyle `yaml:"leaderboard"`
	Linking             LinkingConfig    `yaml:"linking"`
	Schedules           ScheduleConfig   `yaml:"schedules"`
	EmbedColors         EmbedColors      `yaml:"embed_colors"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type ClashAPIConfig struct {
	Token          string `yaml:"token"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	FetchWorkers   int    `yaml:"fetch_workers"`
}

type Clan struct {
	Name string `yaml:"name"`
	Tag  string `yaml:"tag"`
}

type LeaderboardStyle struct {
	StarFilled   string `yaml:"star_filled"`
	StarEmpty    string `yaml:"star_empty"`
	PageMaxChars int    `yaml:"page_max_chars"`
}

type LinkingConfig struct {
	RequireTokenVerification bool `yaml:"require_token_verification"`
}

type ScheduleConfig struct {
	ClanPoll string `yaml:"clan_poll"`
	Birthday string `yaml:"birthday"`
}

type EmbedColors struct {
	Success int `yaml:"success"`
	Info    int `yaml:"info"`
	Error   int `yaml:"error"`
}

func DefaultConfig() Config {
	return Config{
		DatabasePath: "/data/clanwarden.db",
		LogLevel:     "info",
		Health:       HealthConfig{Enabled: false, Addr: ":8080"},
		ClashAPI: ClashAPIConfig{
			BaseURL:        "https://api.clashofclans.com/v1",
			TimeoutSeconds: 10,
			FetchWorkers:   8,
		},
		Leaderboard: LeaderboardStyle{
			StarFilled:   "★",
			StarEmpty:    "☆",
			PageMaxChars: 3000,
		},
		Linking: LinkingConfig{RequireTokenVerification: false},
		Schedules: ScheduleConfig{
			ClanPoll: "@hourly",
			Birthday: "0 9 * * *",
		},
		EmbedColors: EmbedColors{
			Success: 0x109431,
			Info:    0x1F8B4C,
			Error:   0xEF4444,
		},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	if cfg.ClashAPI.Token == "" {
		return Config{}, errors.New("COC_API_TOKEN is required")
	}
	for _, clan := range cfg.Clans {
		if !strings.HasPrefix(clan.Tag, "#") {
			return Config{}, fmt.Errorf("clan tag %q must start with #", clan.Tag)
		}
	}
	if cfg.ClashAPI.FetchWorkers < 1 {
		cfg.ClashAPI.FetchWorkers = 1
	}
	if cfg.Leaderboard.PageMaxChars < 1 {
		cfg.Leaderboard.PageMaxChars = DefaultConfig().Leaderboard.PageMaxChars
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.OwnerUserID = envString("OWNER_USER_ID", cfg.OwnerUserID)
	cfg.AnnouncementChannel = envString("ANNOUNCEMENT_CHANNEL", cfg.AnnouncementChannel)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.ClashAPI.Token = envString("COC_API_TOKEN", cfg.ClashAPI.Token)
	cfg.ClashAPI.BaseURL = envString("COC_API_BASE_URL", cfg.ClashAPI.BaseURL)
	cfg.ClashAPI.TimeoutSeconds = envInt("COC_API_TIMEOUT_SECONDS", cfg.ClashAPI.TimeoutSeconds)
	cfg.ClashAPI.FetchWorkers = envInt("COC_FETCH_WORKERS", cfg.ClashAPI.FetchWorkers)
	cfg.Linking.RequireTokenVerification = envBool("REQUIRE_TOKEN_VERIFICATION", cfg.Linking.RequireTokenVerification)
	cfg.Schedules.ClanPoll = envString("CLAN_POLL_SCHEDULE", cfg.Schedules.ClanPoll)
	cfg.Schedules.Birthday = envString("BIRTHDAY_SCHEDULE", cfg.Schedules.Birthday)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
