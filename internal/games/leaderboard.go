package games

import (
	"fmt"
	"sort"
	"strings"

	"clanwarden/internal/storage"
)

// Rank returns the members sorted by total score descending. The sort is
// stable with the stored discovery order as tie-break, so equal scores always
// rank in a deterministic order. The input slice is not modified.
func Rank(members []storage.CompetitionMember) []storage.CompetitionMember {
	ranked := make([]storage.CompetitionMember, len(members))
	copy(ranked, members)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})
	return ranked
}

// Formatter renders ranked members into leaderboard lines. The star glyphs
// are injectable so the bot can substitute custom guild emoji.
type Formatter struct {
	StarFilled string
	StarEmpty  string
}

func NewFormatter(filled, empty string) Formatter {
	if filled == "" {
		filled = "★"
	}
	if empty == "" {
		empty = "☆"
	}
	return Formatter{StarFilled: filled, StarEmpty: empty}
}

// Format produces one line per ranked member: a 1-based rank, a three-star
// indicator (3 filled for first place, 2 for second, 1 for third, none
// below), the player name and the score.
func (f Formatter) Format(ranked []storage.CompetitionMember) []string {
	lines := make([]string, len(ranked))
	for i, member := range ranked {
		lines[i] = fmt.Sprintf("%d. %s %s - Score: %d", i+1, f.stars(i), member.PlayerName, member.TotalScore)
	}
	return lines
}

func (f Formatter) stars(rankIndex int) string {
	filled := 0
	switch rankIndex {
	case 0:
		filled = 3
	case 1:
		filled = 2
	case 2:
		filled = 1
	}
	return strings.Repeat(f.StarFilled, filled) + strings.Repeat(f.StarEmpty, 3-filled)
}

// Paginate greedily packs lines into pages of at most maxChars characters,
// counting one extra character per line for the joining newline. Lines are
// never split or dropped: a single line longer than maxChars gets a page of
// its own.
func Paginate(lines []string, maxChars int) [][]string {
	var pages [][]string
	var current []string
	currentLen := 0

	for _, line := range lines {
		lineLen := len(line) + 1
		if currentLen+lineLen > maxChars && len(current) > 0 {
			pages = append(pages, current)
			current = []string{line}
			currentLen = lineLen
		} else {
			current = append(current, line)
			currentLen += lineLen
		}
	}
	if len(current) > 0 {
		pages = append(pages, current)
	}
	return pages
}
