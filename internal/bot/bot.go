package bot

import (
	"context"

	"clanwarden/internal/config"
	"clanwarden/internal/games"
	"clanwarden/internal/linker"
	"clanwarden/internal/report"
	"clanwarden/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Bot struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *storage.Store
	tracker   *games.Tracker
	linker    *linker.Service
	reports   *report.Generator
	formatter games.Formatter
	session   *discordgo.Session
	pages     *pageStore
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, tracker *games.Tracker, linkSvc *linker.Service, reports *report.Generator) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers

	b := &Bot{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		tracker:   tracker,
		linker:    linkSvc,
		reports:   reports,
		formatter: games.NewFormatter(cfg.Leaderboard.StarFilled, cfg.Leaderboard.StarEmpty),
		session:   session,
	}
	b.pages = newPageStore(b.expireLeaderboard)

	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	if err := b.registerCommands(); err != nil {
		return err
	}

	b.pages.startSweeper()

	return nil
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	b.pages.stopSweeper()
	if b.session != nil {
		_ = b.session.Close()
	}
}

// Session exposes the underlying Discord session for scheduled announcements.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}
