package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"clanwarden/internal/coc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	members    []coc.ClanMember
	membersErr error
	players    map[string]*coc.Player
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
	return f.players[playerTag], nil
}

func testPlayers() *fakeAPI {
	return &fakeAPI{
		members: []coc.ClanMember{{Tag: "#P1", Name: "Alice"}, {Tag: "#P2", Name: "Bob"}},
		players: map[string]*coc.Player{
			"#P1": {
				Tag:  "#P1",
				Name: "Alice",
				Troops: []coc.Unit{
					{Name: "Barbarian", Level: 9, Village: "home"},
					{Name: "Raged Barbarian", Level: 5, Village: "builderBase"},
				},
				Spells: []coc.Unit{{Name: "Lightning Spell", Level: 8}},
				Heroes: []coc.Unit{
					{Name: "Barbarian King", Level: 60},
					{Name: "Unicorn", Level: 7},
				},
				HeroEquipment: []coc.Unit{{Name: "Barbarian Puppet", Level: 12}},
			},
			"#P2": {
				Tag:    "#P2",
				Name:   "Bob",
				Troops: []coc.Unit{{Name: "Archer", Level: 8, Village: "home"}},
				Heroes: []coc.Unit{{Name: "Barbarian King", Level: 40}},
			},
		},
	}
}

func TestGenerateTables(t *testing.T) {
	gen := NewGenerator(testPlayers(), zap.NewNop(), 4)

	rep, err := gen.Generate(context.Background(), "#ABC123")
	require.NoError(t, err)

	// Header is the sorted union of home-village troop names.
	troopLines := strings.Split(strings.TrimSpace(rep.Troops), "\n")
	require.Len(t, troopLines, 3)
	assert.Equal(t, "Name,Archer,Barbarian", troopLines[0])
	assert.Equal(t, "Alice,0,9", troopLines[1])
	assert.Equal(t, "Bob,8,0", troopLines[2])

	// Builder base troops never appear.
	assert.NotContains(t, rep.Troops, "Raged Barbarian")

	// Pets split off from heroes.
	assert.Contains(t, rep.Pets, "Unicorn")
	assert.NotContains(t, rep.Heroes, "Unicorn")
	assert.Contains(t, rep.Heroes, "Barbarian King")

	// Offense is the combined table.
	offenseHeader := strings.SplitN(rep.Offense, "\n", 2)[0]
	for _, name := range []string{"Archer", "Barbarian", "Barbarian King", "Barbarian Puppet", "Lightning Spell", "Unicorn"} {
		assert.Contains(t, offenseHeader, name)
	}
}

func TestGenerateSkipsFailedPlayers(t *testing.T) {
	api := testPlayers()
	api.playerErrs = map[string]error{"#P1": errors.New("timeout")}
	gen := NewGenerator(api, zap.NewNop(), 4)

	rep, err := gen.Generate(context.Background(), "#ABC123")
	require.NoError(t, err)
	assert.NotContains(t, rep.Troops, "Alice")
	assert.Contains(t, rep.Troops, "Bob")
}

func TestGenerateRosterFailure(t *testing.T) {
	api := &fakeAPI{membersErr: errors.New("upstream down")}
	gen := NewGenerator(api, zap.NewNop(), 4)

	_, err := gen.Generate(context.Background(), "#ABC123")
	assert.Error(t, err)
}

func TestGenerateAllPlayersFailed(t *testing.T) {
	api := testPlayers()
	api.playerErrs = map[string]error{
		"#P1": errors.New("timeout"),
		"#P2": errors.New("timeout"),
	}
	gen := NewGenerator(api, zap.NewNop(), 4)

	_, err := gen.Generate(context.Background(), "#ABC123")
	assert.Error(t, err)
}

func TestReportFiles(t *testing.T) {
	rep := &Report{Offense: "o", Troops: "t", Spells: "s", Heroes: "h", Pets: "p", HeroEquipment: "e"}
	files := rep.Files()
	require.Len(t, files, 6)
	assert.Equal(t, "o", files["offense.csv"])
	assert.Equal(t, "e", files["hero_equipment.csv"])
}
