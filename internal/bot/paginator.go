package bot

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// sessionTTL bounds how long a leaderboard keeps responding to its buttons.
const sessionTTL = 5 * time.Minute

// leaderboardSession is the scoped state behind one paginated leaderboard
// reply. Navigation only moves the page index; the pages themselves are
// rendered once when the command runs.
type leaderboardSession struct {
	userID      string
	interaction *discordgo.Interaction
	clanTag     string
	totalScore  int
	pages       []string
	index       int
	expiresAt   time.Time
}

type pageStore struct {
	mu       sync.Mutex
	sessions map[string]*leaderboardSession
	onExpire func(*leaderboardSession)
	ticker   *time.Ticker
	stopCh   chan struct{}
}

func newPageStore(onExpire func(*leaderboardSession)) *pageStore {
	return &pageStore{
		sessions: make(map[string]*leaderboardSession),
		onExpire: onExpire,
		stopCh:   make(chan struct{}),
	}
}

func (p *pageStore) put(id string, session *leaderboardSession) {
	session.expiresAt = time.Now().Add(sessionTTL)
	p.mu.Lock()
	p.sessions[id] = session
	p.mu.Unlock()
}

func (p *pageStore) get(id string) (*leaderboardSession, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	session, ok := p.sessions[id]
	if !ok || time.Now().After(session.expiresAt) {
		return nil, false
	}
	return session, true
}

func (p *pageStore) startSweeper() {
	p.ticker = time.NewTicker(time.Minute)
	go func() {
		for {
			select {
			case <-p.ticker.C:
				p.sweep(time.Now())
			case <-p.stopCh:
				return
			}
		}
	}()
}

func (p *pageStore) stopSweeper() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
	close(p.stopCh)
}

func (p *pageStore) sweep(now time.Time) {
	var expired []*leaderboardSession
	p.mu.Lock()
	for id, session := range p.sessions {
		if now.After(session.expiresAt) {
			delete(p.sessions, id)
			expired = append(expired, session)
		}
	}
	p.mu.Unlock()

	for _, session := range expired {
		p.onExpire(session)
	}
}

// expireLeaderboard disables the navigation buttons on a leaderboard whose
// session timed out.
func (b *Bot) expireLeaderboard(session *leaderboardSession) {
	components := []discordgo.MessageComponent{leaderboardButtons("expired", session.index, len(session.pages), true)}
	_, err := b.session.InteractionResponseEdit(session.interaction, &discordgo.WebhookEdit{
		Components: &components,
	})
	if err != nil {
		b.logger.Debug("leaderboard expiry edit failed", zap.Error(err))
	}
}

func leaderboardButtons(sessionID string, page, totalPages int, disabled bool) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				CustomID: "lb:prev:" + sessionID,
				Label:    "Previous",
				Style:    discordgo.SecondaryButton,
				Disabled: disabled || page == 0,
			},
			discordgo.Button{
				CustomID: "lb:next:" + sessionID,
				Label:    "Next",
				Style:    discordgo.SecondaryButton,
				Disabled: disabled || page >= totalPages-1,
			},
		},
	}
}
