package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bamawebtide/ua-mybama-cas-auth/internal/data/pgxutil"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
)

// SettingsRepo persists the policy store content as name/value rows.
type SettingsRepo struct {
	DB *sql.DB
}

// NewSettingsRepo creates a new SettingsRepo.
func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{DB: db}
}

// Load reads all persisted settings merged over the defaults.
func (r *SettingsRepo) Load(ctx context.Context) (policy.Settings, error) {
	stored := policy.Settings{}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `SELECT name, value FROM settings`)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			var name, value string
			if scanErr := rows.Scan(&name, &value); scanErr != nil {
				return scanErr
			}
			stored[name] = value
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return stored.WithDefaults(), nil
}

// Save sanitizes and upserts the given settings. List values are sorted and
// de-duplicated before persisting.
func (r *SettingsRepo) Save(ctx context.Context, s policy.Settings) error {
	s.Sanitize()
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		for name, value := range s {
			if _, execErr := tx.Exec(ctx, `
				INSERT INTO settings (name, value) VALUES ($1, $2)
				ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`,
				name, value); execErr != nil {
				return fmt.Errorf("upsert setting %s: %w", name, execErr)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
