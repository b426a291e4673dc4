package linker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clanwarden/internal/coc"
	"clanwarden/internal/storage"
	"clanwarden/internal/utils"

	"go.uber.org/zap"
)

var (
	ErrInvalidTag    = errors.New("invalid player tag")
	ErrAlreadyLinked = errors.New("player tag already linked")
	ErrNotLinked     = errors.New("no linked accounts")
	ErrBadBirthday   = errors.New("invalid birthday")
)

const birthdayInputLayout = "02-01-2006"

type Verifier interface {
	Player(ctx context.Context, playerTag string) (*coc.Player, error)
	VerifyToken(ctx context.Context, playerTag, token string) error
}

// Service links Discord users to their in-game accounts.
type Service struct {
	store        *storage.Store
	api          Verifier
	logger       *zap.Logger
	requireToken bool
}

func New(store *storage.Store, api Verifier, logger *zap.Logger, requireToken bool) *Service {
	return &Service{store: store, api: api, logger: logger, requireToken: requireToken}
}

// RequiresToken reports whether Connect expects an in-game API token.
func (s *Service) RequiresToken() bool {
	return s.requireToken
}

// Connect links a player tag to a Discord user. The tag must resolve to a
// real player, may not be claimed by anyone else, and when token
// verification is on, the caller has to prove ownership with the in-game API
// token. The first linked account becomes the user's main account.
func (s *Service) Connect(ctx context.Context, discordID, userName, displayName, rawTag, apiToken string) (storage.ClashAccount, error) {
	playerTag := utils.NormalizeTag(rawTag)
	if !utils.ValidTag(playerTag) {
		return storage.ClashAccount{}, fmt.Errorf("%w: %q", ErrInvalidTag, rawTag)
	}

	if s.requireToken {
		if err := s.api.VerifyToken(ctx, playerTag, apiToken); err != nil {
			return storage.ClashAccount{}, fmt.Errorf("verify token: %w", err)
		}
	}

	player, err := s.api.Player(ctx, playerTag)
	if err != nil {
		return storage.ClashAccount{}, fmt.Errorf("fetch player %s: %w", playerTag, err)
	}

	owner, err := s.store.AccountOwner(ctx, playerTag)
	if err == nil {
		if owner == discordID {
			return storage.ClashAccount{}, fmt.Errorf("%w: %s is already yours", ErrAlreadyLinked, playerTag)
		}
		return storage.ClashAccount{}, fmt.Errorf("%w: %s belongs to another user", ErrAlreadyLinked, playerTag)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return storage.ClashAccount{}, err
	}

	if err := s.store.UpsertUser(ctx, storage.User{
		DiscordID:   discordID,
		UserName:    userName,
		DisplayName: displayName,
	}); err != nil {
		return storage.ClashAccount{}, err
	}

	existing, err := s.store.ListAccounts(ctx, discordID)
	if err != nil {
		return storage.ClashAccount{}, err
	}

	account := storage.ClashAccount{
		PlayerTag:  playerTag,
		DiscordID:  discordID,
		PlayerName: player.Name,
		IsMain:     len(existing) == 0,
		LinkedAt:   time.Now(),
	}
	if err := s.store.LinkAccount(ctx, account); err != nil {
		return storage.ClashAccount{}, err
	}

	s.logger.Info("account linked",
		zap.String("discord_id", discordID),
		zap.String("player_tag", playerTag))
	return account, nil
}

// Accounts lists a user's linked accounts, ErrNotLinked when there are none.
func (s *Service) Accounts(ctx context.Context, discordID string) ([]storage.ClashAccount, error) {
	accounts, err := s.store.ListAccounts(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNotLinked
	}
	return accounts, nil
}

func (s *Service) SetMain(ctx context.Context, discordID, playerTag string) error {
	return s.store.SetMainAccount(ctx, discordID, playerTag)
}

func (s *Service) Subscribe(ctx context.Context, discordID, playerTag string) error {
	return s.store.SetReminderSubscription(ctx, discordID, playerTag, true)
}

func (s *Service) Unsubscribe(ctx context.Context, discordID, playerTag string) error {
	return s.store.SetReminderSubscription(ctx, discordID, playerTag, false)
}

// SetBirthday stores a user's birthday from DD-MM-YYYY input. The date must
// parse and lie in the past.
func (s *Service) SetBirthday(ctx context.Context, discordID, userName, displayName, input string) (time.Time, error) {
	birthday, err := time.Parse(birthdayInputLayout, input)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadBirthday, input)
	}
	if !birthday.Before(time.Now()) {
		return time.Time{}, fmt.Errorf("%w: %q is not in the past", ErrBadBirthday, input)
	}

	if err := s.store.UpsertUser(ctx, storage.User{
		DiscordID:   discordID,
		UserName:    userName,
		DisplayName: displayName,
	}); err != nil {
		return time.Time{}, err
	}
	if err := s.store.SetBirthday(ctx, discordID, birthday); err != nil {
		return time.Time{}, err
	}
	return birthday, nil
}
