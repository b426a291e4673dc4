package games

import (
	"strings"
	"testing"

	"clanwarden/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankSortsDescending(t *testing.T) {
	members := []storage.CompetitionMember{
		{PlayerTag: "#P1", PlayerName: "Alice", TotalScore: 300},
		{PlayerTag: "#P2", PlayerName: "Bob", TotalScore: 4000},
		{PlayerTag: "#P3", PlayerName: "Carol", TotalScore: 0},
	}

	ranked := Rank(members)

	require.Len(t, ranked, 3)
	assert.Equal(t, "#P2", ranked[0].PlayerTag)
	assert.Equal(t, "#P1", ranked[1].PlayerTag)
	assert.Equal(t, "#P3", ranked[2].PlayerTag)
	// Input stays untouched.
	assert.Equal(t, "#P1", members[0].PlayerTag)
}

func TestRankTieBreakKeepsOriginalOrder(t *testing.T) {
	members := []storage.CompetitionMember{
		{PlayerTag: "#P1", PlayerName: "Alice", TotalScore: 100},
		{PlayerTag: "#P2", PlayerName: "Bob", TotalScore: 100},
		{PlayerTag: "#P3", PlayerName: "Carol", TotalScore: 100},
	}

	ranked := Rank(members)

	assert.Equal(t, "#P1", ranked[0].PlayerTag)
	assert.Equal(t, "#P2", ranked[1].PlayerTag)
	assert.Equal(t, "#P3", ranked[2].PlayerTag)
}

func TestFormatStarPattern(t *testing.T) {
	formatter := NewFormatter("F", "E")
	ranked := []storage.CompetitionMember{
		{PlayerName: "Alice", TotalScore: 4000},
		{PlayerName: "Bob", TotalScore: 300},
		{PlayerName: "Carol", TotalScore: 0},
		{PlayerName: "Dave", TotalScore: 0},
	}

	lines := formatter.Format(ranked)

	require.Len(t, lines, 4)
	assert.Equal(t, "1. FFF Alice - Score: 4000", lines[0])
	assert.Equal(t, "2. FFE Bob - Score: 300", lines[1])
	assert.Equal(t, "3. FEE Carol - Score: 0", lines[2])
	assert.Equal(t, "4. EEE Dave - Score: 0", lines[3])
}

func TestFormatterDefaults(t *testing.T) {
	formatter := NewFormatter("", "")
	assert.Equal(t, "★", formatter.StarFilled)
	assert.Equal(t, "☆", formatter.StarEmpty)
}

func TestPaginatePreservesLines(t *testing.T) {
	lines := []string{"aaaa", "bbbb", "cccc", "dddd", "eeee"}

	pages := Paginate(lines, 12)

	var flattened []string
	for _, page := range pages {
		flattened = append(flattened, page...)
		length := 0
		for _, line := range page {
			length += len(line) + 1
		}
		assert.LessOrEqual(t, length, 12)
	}
	assert.Equal(t, lines, flattened)
	assert.Len(t, pages, 3)
}

func TestPaginateOversizedLine(t *testing.T) {
	long := strings.Repeat("x", 50)
	lines := []string{"short", long, "tail"}

	pages := Paginate(lines, 10)

	require.Len(t, pages, 3)
	assert.Equal(t, []string{"short"}, pages[0])
	assert.Equal(t, []string{long}, pages[1])
	assert.Equal(t, []string{"tail"}, pages[2])
}

func TestPaginateEmpty(t *testing.T) {
	assert.Nil(t, Paginate(nil, 100))
}

func TestPaginateSinglePage(t *testing.T) {
	lines := []string{"one", "two"}
	pages := Paginate(lines, 100)
	require.Len(t, pages, 1)
	assert.Equal(t, lines, pages[0])
}
