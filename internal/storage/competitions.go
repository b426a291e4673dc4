package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Competition struct {
	ClanTag        string
	Month          string
	TotalClanScore int
	Members        []CompetitionMember
}

type CompetitionMember struct {
	PlayerTag     string
	PlayerName    string
	StartingScore int
	EndingScore   int
	TotalScore    int
}

// GetCompetition loads the competition record for a clan tag, members in
// discovery order. Returns ErrNotFound when the clan was never initialized.
func (s *Store) GetCompetition(ctx context.Context, clanTag string) (Competition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT clan_tag, month, total_clan_score
		FROM competitions WHERE clan_tag = ?`, clanTag)

	var comp Competition
	err := row.Scan(&comp.ClanTag, &comp.Month, &comp.TotalClanScore)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Competition{}, fmt.Errorf("%w: competition %s", ErrNotFound, clanTag)
		}
		return Competition{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT player_tag, player_name, starting_score, ending_score, total_score
		FROM competition_members
		WHERE clan_tag = ?
		ORDER BY position`, clanTag)
	if err != nil {
		return Competition{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var member CompetitionMember
		if err := rows.Scan(&member.PlayerTag, &member.PlayerName, &member.StartingScore, &member.EndingScore, &member.TotalScore); err != nil {
			return Competition{}, err
		}
		comp.Members = append(comp.Members, member)
	}
	return comp, rows.Err()
}

// ResetCompetition replaces the stored record wholesale: the upsert path of a
// fresh initialization. Prior members for the clan tag are dropped.
func (s *Store) ResetCompetition(ctx context.Context, comp Competition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO competitions (clan_tag, month, total_clan_score)
		VALUES (?, ?, ?)
		ON CONFLICT(clan_tag) DO UPDATE SET
			month = excluded.month,
			total_clan_score = excluded.total_clan_score
	`, comp.ClanTag, comp.Month, comp.TotalClanScore)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM competition_members WHERE clan_tag = ?`, comp.ClanTag)
	if err != nil {
		return err
	}

	for position, member := range comp.Members {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO competition_members (clan_tag, player_tag, player_name, starting_score, ending_score, total_score, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, comp.ClanTag, member.PlayerTag, member.PlayerName, member.StartingScore, member.EndingScore, member.TotalScore, position)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveCompetition persists updated scores for an existing record: the poll
// path. Member identity and order stay as they were at initialization.
func (s *Store) SaveCompetition(ctx context.Context, comp Competition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE competitions SET total_clan_score = ? WHERE clan_tag = ?
	`, comp.TotalClanScore, comp.ClanTag)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = fmt.Errorf("%w: competition %s", ErrNotFound, comp.ClanTag)
		return err
	}

	for _, member := range comp.Members {
		_, err = tx.ExecContext(ctx, `
			UPDATE competition_members
			SET ending_score = ?, total_score = ?
			WHERE clan_tag = ? AND player_tag = ?
		`, member.EndingScore, member.TotalScore, comp.ClanTag, member.PlayerTag)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
