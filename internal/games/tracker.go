package games

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"clanwarden/internal/coc"
	"clanwarden/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ScoreCap bounds how much a single member can contribute to the clan total
// in one competition cycle. Deltas past the cap are ignored; negative deltas
// pass through unclamped.
const ScoreCap = 4000

const monthLabelLayout = "Jan-2006"

var ErrNotInitialized = errors.New("clan games not initialized")

type GameAPI interface {
	ClanMembers(ctx context.Context, clanTag string) ([]coc.ClanMember, error)
	Player(ctx context.Context, playerTag string) (*coc.Player, error)
}

type Tracker struct {
	store   *storage.Store
	api     GameAPI
	logger  *zap.Logger
	workers int

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

func NewTracker(store *storage.Store, api GameAPI, logger *zap.Logger, workers int) *Tracker {
	if workers < 1 {
		workers = 1
	}
	return &Tracker{
		store:   store,
		api:     api,
		logger:  logger,
		workers: workers,
		locks:   make(map[string]*sync.Mutex),
		now:     time.Now,
	}
}

type Summary struct {
	ClanTag        string
	Month          string
	TotalClanScore int
	MemberCount    int
}

// Initialize starts a fresh competition cycle for the clan: the stored record
// is replaced wholesale with a new baseline snapshot of every currently
// rostered member. Any fetch failure aborts without persisting, so a partial
// baseline can never hand a member a free capped delta on the first poll.
func (t *Tracker) Initialize(ctx context.Context, clanTag string) (Summary, error) {
	lock := t.tagLock(clanTag)
	lock.Lock()
	defer lock.Unlock()

	roster, err := t.api.ClanMembers(ctx, clanTag)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch roster for %s: %w", clanTag, err)
	}

	members := make([]storage.CompetitionMember, len(roster))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(t.workers)
	for i, member := range roster {
		i, member := i, member
		group.Go(func() error {
			player, err := t.api.Player(groupCtx, member.Tag)
			if err != nil {
				return fmt.Errorf("fetch player %s: %w", member.Tag, err)
			}
			members[i] = storage.CompetitionMember{
				PlayerTag:     member.Tag,
				PlayerName:    member.Name,
				StartingScore: player.GamesChampion(),
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Summary{}, err
	}

	comp := storage.Competition{
		ClanTag: clanTag,
		Month:   t.now().Format(monthLabelLayout),
		Members: members,
	}
	if err := t.store.ResetCompetition(ctx, comp); err != nil {
		return Summary{}, fmt.Errorf("persist competition %s: %w", clanTag, err)
	}

	t.logger.Info("clan games initialized",
		zap.String("clan_tag", clanTag),
		zap.String("month", comp.Month),
		zap.Int("members", len(members)))
	return summarize(comp), nil
}

// Poll refreshes ending scores for the members tracked since Initialize.
// The roster is fixed at init: members who joined the clan afterwards are
// ignored, members who left keep their last known scores. A failed fetch for
// one member never discards the progress read for the others.
func (t *Tracker) Poll(ctx context.Context, clanTag string) (Summary, error) {
	lock := t.tagLock(clanTag)
	lock.Lock()
	defer lock.Unlock()

	comp, err := t.store.GetCompetition(ctx, clanTag)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Summary{}, fmt.Errorf("%w: %s", ErrNotInitialized, clanTag)
		}
		return Summary{}, err
	}

	roster, err := t.api.ClanMembers(ctx, clanTag)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch roster for %s: %w", clanTag, err)
	}

	tracked := make(map[string]int, len(comp.Members))
	for i, member := range comp.Members {
		tracked[member.PlayerTag] = i
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(t.workers)
	for _, member := range roster {
		idx, ok := tracked[member.Tag]
		if !ok {
			continue
		}
		member := member
		group.Go(func() error {
			player, err := t.api.Player(groupCtx, member.Tag)
			if err != nil {
				t.logger.Warn("player fetch failed, keeping previous scores",
					zap.String("clan_tag", clanTag),
					zap.String("player_tag", member.Tag),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			comp.Members[idx].EndingScore = player.GamesChampion()
			comp.Members[idx].TotalScore = cappedDelta(comp.Members[idx].StartingScore, comp.Members[idx].EndingScore)
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	total := 0
	for _, member := range comp.Members {
		total += member.TotalScore
	}
	comp.TotalClanScore = total

	if err := t.store.SaveCompetition(ctx, comp); err != nil {
		return Summary{}, fmt.Errorf("persist competition %s: %w", clanTag, err)
	}

	t.logger.Info("clan games polled",
		zap.String("clan_tag", clanTag),
		zap.Int("total_clan_score", total))
	return summarize(comp), nil
}

// Current is the read-only projection of the stored record.
func (t *Tracker) Current(ctx context.Context, clanTag string) (Summary, error) {
	comp, err := t.load(ctx, clanTag)
	if err != nil {
		return Summary{}, err
	}
	return summarize(comp), nil
}

// Leaderboard returns the stored record with members ranked by total score.
func (t *Tracker) Leaderboard(ctx context.Context, clanTag string) (storage.Competition, error) {
	comp, err := t.load(ctx, clanTag)
	if err != nil {
		return storage.Competition{}, err
	}
	comp.Members = Rank(comp.Members)
	return comp, nil
}

func (t *Tracker) load(ctx context.Context, clanTag string) (storage.Competition, error) {
	comp, err := t.store.GetCompetition(ctx, clanTag)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Competition{}, fmt.Errorf("%w: %s", ErrNotInitialized, clanTag)
		}
		return storage.Competition{}, err
	}
	return comp, nil
}

func (t *Tracker) tagLock(clanTag string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock := t.locks[clanTag]
	if lock == nil {
		lock = &sync.Mutex{}
		t.locks[clanTag] = lock
	}
	return lock
}

func cappedDelta(starting, ending int) int {
	delta := ending - starting
	if delta > ScoreCap {
		return ScoreCap
	}
	return delta
}

func summarize(comp storage.Competition) Summary {
	return Summary{
		ClanTag:        comp.ClanTag,
		Month:          comp.Month,
		TotalClanScore: comp.TotalClanScore,
		MemberCount:    len(comp.Members),
	}
}
