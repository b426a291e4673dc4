package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"clanwarden/internal/bot"
	"clanwarden/internal/coc"
	"clanwarden/internal/config"
	"clanwarden/internal/games"
	"clanwarden/internal/linker"
	"clanwarden/internal/report"
	"clanwarden/internal/scheduler"
	"clanwarden/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	api := coc.New(cfg.ClashAPI.Token, cfg.ClashAPI.BaseURL, time.Duration(cfg.ClashAPI.TimeoutSeconds)*time.Second)
	tracker := games.NewTracker(store, api, logger, cfg.ClashAPI.FetchWorkers)
	linkSvc := linker.New(store, api, logger, cfg.Linking.RequireTokenVerification)
	reports := report.NewGenerator(api, logger, cfg.ClashAPI.FetchWorkers)

	botSvc, err := bot.New(cfg, logger, store, tracker, linkSvc, reports)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	jobs := scheduler.New(logger)
	if err := registerJobs(jobs, cfg, logger, store, tracker, botSvc); err != nil {
		logger.Fatal("scheduler init failed", zap.Error(err))
	}
	jobs.Start()

	var server *http.Server
	if cfg.Health.Enabled {
		server = &http.Server{Addr: cfg.Health.Addr}
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(ctx)
	}
	jobs.Stop()
	botSvc.Close(ctx)
}

func registerJobs(jobs *scheduler.Scheduler, cfg config.Config, logger *zap.Logger, store *storage.Store, tracker *games.Tracker, botSvc *bot.Bot) error {
	if err := jobs.RegisterFunc(cfg.Schedules.ClanPoll, "clan-poll", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		return pollAllClans(ctx, cfg, logger, tracker)
	}); err != nil {
		return err
	}

	if cfg.AnnouncementChannel == "" {
		logger.Info("no announcement channel configured, birthday job disabled")
		return nil
	}
	return jobs.RegisterFunc(cfg.Schedules.Birthday, "birthday-announce", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return announceBirthdays(ctx, cfg, store, botSvc.Session())
	})
}

// pollAllClans refreshes the clan games scores of every configured clan.
// Failures are per clan so one unreachable clan does not starve the rest.
func pollAllClans(ctx context.Context, cfg config.Config, logger *zap.Logger, tracker *games.Tracker) error {
	for _, clan := range cfg.Clans {
		summary, err := tracker.Poll(ctx, clan.Tag)
		if err != nil {
			if errors.Is(err, games.ErrNotInitialized) {
				continue
			}
			logger.Warn("scheduled poll failed", zap.String("clan_tag", clan.Tag), zap.Error(err))
			continue
		}
		logger.Info("scheduled poll done",
			zap.String("clan_tag", summary.ClanTag),
			zap.Int("total_clan_score", summary.TotalClanScore))
	}
	return nil
}

func announceBirthdays(ctx context.Context, cfg config.Config, store *storage.Store, session *discordgo.Session) error {
	now := time.Now()
	users, err := store.ListBirthdays(ctx, now.Month(), now.Day())
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}

	mentions := make([]string, 0, len(users))
	for _, user := range users {
		mentions = append(mentions, "<@"+user.DiscordID+">")
	}
	message := fmt.Sprintf("Happy birthday %s! 🎂", strings.Join(mentions, ", "))
	_, err = session.ChannelMessageSend(cfg.AnnouncementChannel, message)
	return err
}
