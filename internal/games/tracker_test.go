package games

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"clanwarden/internal/coc"
	"clanwarden/internal/storage"

	"go.uber.org/zap"
)

type fakeAPI struct {
	members    []coc.ClanMember
	membersErr error
	champions  map[string]int
	playerErrs map[string]error
}

func (f *fakeAPI) ClanMembers(ctx context.Context, clanTag string) ([]coc.ClanMember, error) {
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return f.members, nil
}

func (f *fakeAPI) Player(ctx context.Context, playerTag string) (*coc.Player, error) {
	if err := f.playerErrs[playerTag]; err != nil {
		return nil, err
	}
	value, ok := f.champions[playerTag]
	if !ok {
		return nil, fmt.Errorf("unknown player %s", playerTag)
	}
	name := ""
	for _, member := range f.members {
		if member.Tag == playerTag {
			name = member.Name
		}
	}
	return &coc.Player{
		Tag:          playerTag,
		Name:         name,
		Achievements: []coc.Achievement{{Name: coc.GamesChampionAchievement, Value: value}},
	}, nil
}

func newTestTracker(t *testing.T, api GameAPI) (*Tracker, *storage.Store) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewTracker(store, api, zap.NewNop(), 4), store
}

func TestInitializeBaseline(t *testing.T) {
	api := &fakeAPI{
		members:   []coc.ClanMember{{Tag: "#P1", Name: "Alice"}, {Tag: "#P2", Name: "Bob"}},
		champions: map[string]int{"#P1": 100, "#P2": 0},
	}
	tracker, store := newTestTracker(t, api)
	ctx := context.Background()

	summary, err := tracker.Initialize(ctx, "#ABC123")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if summary.MemberCount != 2 || summary.TotalClanScore != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	comp, err := store.GetCompetition(ctx, "#ABC123")
	if err != nil {
		t.Fatalf("get competition: %v", err)
	}
	want := []storage.CompetitionMember{
		{PlayerTag: "#P1", PlayerName: "Alice", StartingScore: 100},
		{PlayerTag: "#P2", PlayerName: "Bob", StartingScore: 0},
	}
	for i, member := range want {
		if comp.Members[i] != member {
			t.Fatalf("member %d: expected %+v, got %+v", i, member, comp.Members[i])
		}
	}
}

func TestInitializeRosterFailurePersistsNothing(t *testing.T) {
	api := &fakeAPI{membersErr: errors.New("upstream down")}
	tracker, store := newTestTracker(t, api)

	if _, err := tracker.Initialize(context.Background(), "#ABC123"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := store.GetCompetition(context.Background(), "#ABC123"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected no record, got %v", err)
	}
}

func TestInitializePlayerFailureIsAtomic(t *testing.T) {
	api := &fakeAPI{
		members:    []coc.ClanMember{{Tag: "#P1", Name: "Alice"}, {Tag: "#P2", Name: "Bob"}},
		champions:  map[string]int{"#P1": 100},
		playerErrs: map[string]error{"#P2": errors.New("timeout")},
	}
	tracker, store := newTestTracker(t, api)

	if _, err := tracker.Initialize(context.Background(), "#ABC123"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := store.GetCompetition(context.Background(), "#ABC123"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected no record, got %v", err)
	}
}

func TestPollUpdatesScores(t *testing.T) {
	api := &fakeAPI{
		members:   []coc.ClanMember{{Tag: "#P1", Name: "Alice"}, {Tag: "#P2", Name: "Bob"}},
		champions: map[string]int{"#P1": 100, "#P2": 0},
	}
	tracker, store := newTestTracker(t, api)
	ctx := context.Background()

	if _, err := tracker.Initialize(ctx, "#ABC123"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	api.champions["#P1"] = 4500
	api.champions["#P2"] = 300
	summary, err := tracker.Poll(ctx, "#ABC123")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if summary.TotalClanScore != 4300 {
		t.Fatalf("expected total 4300, got %d", summary.TotalClanScore)
	}

	comp, err := store.GetCompetition(ctx, "#ABC123")
	if err != nil {
		t.Fatalf("get competition: %v", err)
	}
	if comp.Members[0].EndingScore != 4500 || comp.Members[0].TotalScore != ScoreCap {
		t.Fatalf("expected capped score for #P1, got %+v", comp.Members[0])
	}
	if comp.Members[1].TotalScore != 300 {
		t.Fatalf("expected 300 for #P2, got %+v", comp.Members[1])
	}

	sum := 0
	for _, member := range comp.Members {
		sum += member.TotalScore
	}
	if comp.TotalClanScore != sum {
		t.Fatalf("total %d does not match member sum %d", comp.TotalClanScore, sum)
	}
}

func TestPollIsIdempotent(t *testing.T) {
	api := &fakeAPI{
		members:   []coc.ClanMember{{Tag: "#P1", Name: "Alice"}},
		champions: map[string]int{"#P1": 100},
	}
	tracker, _ := newTestTracker(t, api)
	ctx := context.Background()

	if _, err := tracker.Initialize(ctx, "#ABC123"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	api.champions["#P1"] = 700

	first, err := tracker.Poll(ctx, "#ABC123")
	if err != nil {
		t.Fatalf("first poll: %v", err)
	}
	second, err := tracker.Poll(ctx, "#ABC123")
	if err != nil {
		t.Fatalf("second poll: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical summaries, got %+v and %+v", first, second)
	}
}

func TestPollNotInitialized(t *testing.T) {
	api := &fakeAPI{members: []coc.ClanMember{{Tag: "#P1", Name: "Alice"}}}
	tracker, store := newTestTracker(t, api)

	_, err := tracker.Poll(context.Background(), "#NEVER")
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := store.GetCompetition(context.Background(), "#NEVER"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected no record created, got %v", err)
	}
}

func TestPollFixedRoster(t *testing.T) {
	api := &fakeAPI{
		members:   []coc.ClanMember{{Tag: "#P1", Name: "Alice"}, {Tag: "#P2", Name: "Bob"}},
		champions: map[string]int{"#P1": 100, "#P2": 50},
	}
	tracker, store := newTestTracker(t, api)
	ctx := context.Background()

	if _, err := tracker.Initialize(ctx, "#ABC123"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// Bob leaves, Carol joins after init.
	api.members = []coc.ClanMember{{Tag: "#P1", Name: "Alice"}, {Tag: "#P3", Name: "Carol"}}
	api.champions["#P1"] = 400
	api.champions["#P3"] = 9000

	if _, err := tracker.Poll(ctx, "#ABC123"); err != nil {
		t.Fatalf("poll: %v", err)
	}

	comp, err := store.GetCompetition(ctx, "#ABC123")
	if err != nil {
		t.Fatalf("get competition: %v", err)
	}
	if len(comp.Members) != 2 {
		t.Fatalf("roster must stay fixed at init, got %d members", len(comp.Members))
	}
	if comp.Members[0].TotalScore != 300 {
		t.Fatalf("expected 300 for #P1, got %+v", comp.Members[0])
	}
	// Departed member keeps last known (zero) scores.
	if comp.Members[1].EndingScore != 0 || comp.Members[1].TotalScore != 0 {
		t.Fatalf("expected #P2 untouched, got %+v", comp.Members[1])
	}
}

func TestPollIsolatesMemberFetchFailures(t *testing.T) {
	api := &fakeAPI{
		members:   []coc.ClanMember{{Tag: "#P1", Name: "Alice"}, {Tag: "#P2", Name: "Bob"}},
		champions: map[string]int{"#P1": 100, "#P2": 0},
	}
	tracker, store := newTestTracker(t, api)
	ctx := context.Background()

	if _, err := tracker.Initialize(ctx, "#ABC123"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	api.champions["#P2"] = 250
	api.playerErrs = map[string]error{"#P1": errors.New("timeout")}

	summary, err := tracker.Poll(ctx, "#ABC123")
	if err != nil {
		t.Fatalf("poll must not fail on one member: %v", err)
	}
	if summary.TotalClanScore != 250 {
		t.Fatalf("expected 250, got %d", summary.TotalClanScore)
	}

	comp, err := store.GetCompetition(ctx, "#ABC123")
	if err != nil {
		t.Fatalf("get competition: %v", err)
	}
	if comp.Members[0].EndingScore != 0 {
		t.Fatalf("failed member must keep previous scores, got %+v", comp.Members[0])
	}
	if comp.Members[1].TotalScore != 250 {
		t.Fatalf("expected #P2 updated, got %+v", comp.Members[1])
	}
}

func TestReinitializeResetsCycle(t *testing.T) {
	api := &fakeAPI{
		members:   []coc.ClanMember{{Tag: "#P1", Name: "Alice"}},
		champions: map[string]int{"#P1": 100},
	}
	tracker, store := newTestTracker(t, api)
	ctx := context.Background()

	if _, err := tracker.Initialize(ctx, "#ABC123"); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	api.champions["#P1"] = 600
	if _, err := tracker.Poll(ctx, "#ABC123"); err != nil {
		t.Fatalf("poll: %v", err)
	}

	if _, err := tracker.Initialize(ctx, "#ABC123"); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	comp, err := store.GetCompetition(ctx, "#ABC123")
	if err != nil {
		t.Fatalf("get competition: %v", err)
	}
	member := comp.Members[0]
	if member.StartingScore != 600 || member.EndingScore != 0 || member.TotalScore != 0 {
		t.Fatalf("expected fresh baseline, got %+v", member)
	}
	if comp.TotalClanScore != 0 {
		t.Fatalf("expected zero clan total, got %d", comp.TotalClanScore)
	}
}

func TestCurrentProjection(t *testing.T) {
	api := &fakeAPI{
		members:   []coc.ClanMember{{Tag: "#P1", Name: "Alice"}, {Tag: "#P2", Name: "Bob"}},
		champions: map[string]int{"#P1": 100, "#P2": 0},
	}
	tracker, _ := newTestTracker(t, api)
	ctx := context.Background()

	if _, err := tracker.Current(ctx, "#ABC123"); !errors.Is(err, ErrNotInitialized) {
		t.Fatal("expected ErrNotInitialized before init")
	}

	if _, err := tracker.Initialize(ctx, "#ABC123"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	summary, err := tracker.Current(ctx, "#ABC123")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if summary.ClanTag != "#ABC123" || summary.MemberCount != 2 || summary.TotalClanScore != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestNegativeDeltaPassesThrough(t *testing.T) {
	api := &fakeAPI{
		members:   []coc.ClanMember{{Tag: "#P1", Name: "Alice"}},
		champions: map[string]int{"#P1": 500},
	}
	tracker, store := newTestTracker(t, api)
	ctx := context.Background()

	if _, err := tracker.Initialize(ctx, "#ABC123"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	api.champions["#P1"] = 400

	if _, err := tracker.Poll(ctx, "#ABC123"); err != nil {
		t.Fatalf("poll: %v", err)
	}
	comp, err := store.GetCompetition(ctx, "#ABC123")
	if err != nil {
		t.Fatalf("get competition: %v", err)
	}
	if comp.Members[0].TotalScore != -100 {
		t.Fatalf("expected -100, got %d", comp.Members[0].TotalScore)
	}
	if comp.TotalClanScore != -100 {
		t.Fatalf("expected clan total -100, got %d", comp.TotalClanScore)
	}
}
