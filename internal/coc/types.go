package coc

// GamesChampionAchievement is the lifetime counter the clan games competition
// scores against.
const GamesChampionAchievement = "Games Champion"

const HomeVillage = "home"

type clanMemberList struct {
	Items []ClanMember `json:"items"`
}

type ClanMember struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

type Player struct {
	Tag           string        `json:"tag"`
	Name          string        `json:"name"`
	TownHallLevel int           `json:"townHallLevel"`
	Trophies      int           `json:"trophies"`
	Achievements  []Achievement `json:"achievements"`
	Troops        []Unit        `json:"troops"`
	Heroes        []Unit        `json:"heroes"`
	Spells        []Unit        `json:"spells"`
	HeroEquipment []Unit        `json:"heroEquipment"`
}

type Achievement struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type Unit struct {
	Name     string `json:"name"`
	Level    int    `json:"level"`
	MaxLevel int    `json:"maxLevel"`
	Village  string `json:"village"`
}

// GamesChampion returns the player's Games Champion achievement value, or 0
// when the achievement is absent.
func (p *Player) GamesChampion() int {
	for _, a := range p.Achievements {
		if a.Name == GamesChampionAchievement {
			return a.Value
		}
	}
	return 0
}
