package report

import (
	"context"
	"fmt"

	"clanwarden/internal/coc"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// knownPets are listed by the API under heroes; the report splits them into
// their own table.
var knownPets = []string{
	"L.A.S.S.I", "Electro Owl", "Mighty Yak", "Unicorn", "Frosty", "Diggy",
	"Phoenix", "Poison Lizard", "Spirit Fox", "Angry Jelly", "Sneezy",
}

type GameAPI interface {
	ClanMembers(ctx context.Context, clanTag string) ([]coc.ClanMember, error)
	Player(ctx context.Context, playerTag string) (*coc.Player, error)
}

type Generator struct {
	api     GameAPI
	logger  *zap.Logger
	workers int
}

func NewGenerator(api GameAPI, logger *zap.Logger, workers int) *Generator {
	if workers < 1 {
		workers = 1
	}
	return &Generator{api: api, logger: logger, workers: workers}
}

// Report holds one CSV document per unit category. Each table has one row
// per member and one column per unit name, so consecutive reports diff
// cleanly in a spreadsheet.
type Report struct {
	Offense       string
	Troops        string
	Spells        string
	Heroes        string
	Pets          string
	HeroEquipment string
}

// Files maps attachment filenames to CSV contents.
func (r *Report) Files() map[string]string {
	return map[string]string{
		"offense.csv":        r.Offense,
		"troops.csv":         r.Troops,
		"spells.csv":         r.Spells,
		"heroes.csv":         r.Heroes,
		"pets.csv":           r.Pets,
		"hero_equipment.csv": r.HeroEquipment,
	}
}

type memberUnits struct {
	Name          string
	Troops        []coc.Unit
	Spells        []coc.Unit
	Heroes        []coc.Unit
	HeroEquipment []coc.Unit
}

// Generate fetches every clan member's unit levels and renders the CSV
// tables. Individual player fetch failures are skipped with a warning so one
// flaky profile does not sink the whole report; a report with no rows at all
// is an error.
func (g *Generator) Generate(ctx context.Context, clanTag string) (*Report, error) {
	roster, err := g.api.ClanMembers(ctx, clanTag)
	if err != nil {
		return nil, fmt.Errorf("fetch roster for %s: %w", clanTag, err)
	}

	fetched := make([]*memberUnits, len(roster))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.workers)
	for i, member := range roster {
		i, member := i, member
		group.Go(func() error {
			player, err := g.api.Player(groupCtx, member.Tag)
			if err != nil {
				g.logger.Warn("skipping member in report",
					zap.String("clan_tag", clanTag),
					zap.String("player_tag", member.Tag),
					zap.Error(err))
				return nil
			}
			fetched[i] = &memberUnits{
				Name:          player.Name,
				Troops:        homeVillage(player.Troops),
				Spells:        player.Spells,
				Heroes:        player.Heroes,
				HeroEquipment: player.HeroEquipment,
			}
			return nil
		})
	}
	_ = group.Wait()

	var members []memberUnits
	for _, member := range fetched {
		if member != nil {
			members = append(members, *member)
		}
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("no member data fetched for %s", clanTag)
	}

	return buildReport(members)
}

func homeVillage(units []coc.Unit) []coc.Unit {
	var home []coc.Unit
	for _, unit := range units {
		if unit.Village == coc.HomeVillage {
			home = append(home, unit)
		}
	}
	return home
}
