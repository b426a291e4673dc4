package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type User struct {
	DiscordID   string
	UserName    string
	DisplayName string
	Birthday    *time.Time
	CreatedAt   time.Time
}

type ClashAccount struct {
	PlayerTag            string
	DiscordID            string
	PlayerName           string
	IsMain               bool
	ReminderSubscription bool
	LinkedAt             time.Time
}

const birthdayLayout = "2006-01-02"

func (s *Store) UpsertUser(ctx context.Context, user User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (discord_id, user_name, display_name, birthday, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(discord_id) DO UPDATE SET
			user_name = excluded.user_name,
			display_name = excluded.display_name
	`, user.DiscordID, user.UserName, user.DisplayName, birthdayValue(user.Birthday), createdAt.Unix())
	return err
}

func (s *Store) GetUser(ctx context.Context, discordID string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT discord_id, user_name, display_name, birthday, created_at
		FROM users WHERE discord_id = ?`, discordID)

	var user User
	var birthday sql.NullString
	var createdAt int64
	err := row.Scan(&user.DiscordID, &user.UserName, &user.DisplayName, &birthday, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, fmt.Errorf("%w: user %s", ErrNotFound, discordID)
		}
		return User{}, err
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	if birthday.Valid {
		if parsed, err := time.Parse(birthdayLayout, birthday.String); err == nil {
			user.Birthday = &parsed
		}
	}
	return user, nil
}

func (s *Store) SetBirthday(ctx context.Context, discordID string, birthday time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET birthday = ? WHERE discord_id = ?
	`, birthday.Format(birthdayLayout), discordID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, discordID)
	}
	return nil
}

// ListBirthdays returns the users whose stored birthday falls on the given
// month and day, regardless of year.
func (s *Store) ListBirthdays(ctx context.Context, month time.Month, day int) ([]User, error) {
	pattern := fmt.Sprintf("%%-%02d-%02d", int(month), day)
	rows, err := s.db.QueryContext(ctx, `
		SELECT discord_id, user_name, display_name, birthday, created_at
		FROM users
		WHERE birthday IS NOT NULL AND birthday LIKE ?
		ORDER BY discord_id`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		var birthday sql.NullString
		var createdAt int64
		if err := rows.Scan(&user.DiscordID, &user.UserName, &user.DisplayName, &birthday, &createdAt); err != nil {
			return nil, err
		}
		user.CreatedAt = time.Unix(createdAt, 0)
		if birthday.Valid {
			if parsed, err := time.Parse(birthdayLayout, birthday.String); err == nil {
				user.Birthday = &parsed
			}
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) LinkAccount(ctx context.Context, account ClashAccount) error {
	linkedAt := account.LinkedAt
	if linkedAt.IsZero() {
		linkedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clash_accounts (player_tag, discord_id, player_name, is_main, reminder_subscription, linked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, account.PlayerTag, account.DiscordID, account.PlayerName, boolToInt(account.IsMain), boolToInt(account.ReminderSubscription), linkedAt.Unix())
	return err
}

// AccountOwner returns the Discord ID a player tag is linked to, or
// ErrNotFound when the tag is unclaimed.
func (s *Store) AccountOwner(ctx context.Context, playerTag string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT discord_id FROM clash_accounts WHERE player_tag = ?`, playerTag)
	var discordID string
	if err := row.Scan(&discordID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: account %s", ErrNotFound, playerTag)
		}
		return "", err
	}
	return discordID, nil
}

func (s *Store) ListAccounts(ctx context.Context, discordID string) ([]ClashAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_tag, discord_id, player_name, is_main, reminder_subscription, linked_at
		FROM clash_accounts
		WHERE discord_id = ?
		ORDER BY linked_at, player_tag`, discordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []ClashAccount
	for rows.Next() {
		var account ClashAccount
		var isMain, subscribed int
		var linkedAt int64
		if err := rows.Scan(&account.PlayerTag, &account.DiscordID, &account.PlayerName, &isMain, &subscribed, &linkedAt); err != nil {
			return nil, err
		}
		account.IsMain = isMain == 1
		account.ReminderSubscription = subscribed == 1
		account.LinkedAt = time.Unix(linkedAt, 0)
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// SetMainAccount marks one linked account as main and clears the flag on the
// user's other accounts in the same transaction.
func (s *Store) SetMainAccount(ctx context.Context, discordID, playerTag string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `UPDATE clash_accounts SET is_main = 0 WHERE discord_id = ?`, discordID)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE clash_accounts SET is_main = 1 WHERE discord_id = ? AND player_tag = ?
	`, discordID, playerTag)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = fmt.Errorf("%w: account %s", ErrNotFound, playerTag)
		return err
	}

	return tx.Commit()
}

func (s *Store) SetReminderSubscription(ctx context.Context, discordID, playerTag string, subscribed bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE clash_accounts SET reminder_subscription = ? WHERE discord_id = ? AND player_tag = ?
	`, boolToInt(subscribed), discordID, playerTag)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: account %s", ErrNotFound, playerTag)
	}
	return nil
}

func birthdayValue(birthday *time.Time) any {
	if birthday == nil {
		return nil
	}
	return birthday.Format(birthdayLayout)
}
