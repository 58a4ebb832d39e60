package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bamawebtide/ua-mybama-cas-auth/internal/data/pgxutil"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/model"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
)

// AccountRepo provides database operations for local accounts.
type AccountRepo struct {
	DB *sql.DB
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{DB: db}
}

const accountColumns = `id, login, email, first_name, last_name, display_name, role, password_hash, created_at, updated_at`

// FindByLogin looks up an account by its exact, case-sensitive login name.
func (r *AccountRepo) FindByLogin(ctx context.Context, login string) (*model.Account, error) {
	if login == "" {
		return nil, apperrors.Validation("login is required")
	}

	var acct model.Account
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		row := conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE login = $1`, login)
		return scanAccount(row, &acct)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("account %q not found", login)
		}
		return nil, fmt.Errorf("find account by login: %w", err)
	}
	return &acct, nil
}

// Create inserts a new account and returns its ID. A duplicate login maps to
// a conflict error.
func (r *AccountRepo) Create(ctx context.Context, acct *model.Account) (int64, error) {
	if acct == nil {
		return 0, apperrors.Validation("account is required")
	}
	if strings.TrimSpace(acct.Login) == "" {
		return 0, apperrors.Validation("account login is required")
	}

	now := time.Now().UTC()
	var id int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			INSERT INTO accounts (login, email, first_name, last_name, display_name, role, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			RETURNING id`,
			acct.Login, acct.Email, acct.FirstName, acct.LastName,
			acct.DisplayName, acct.Role, acct.PasswordHash, now,
		).Scan(&id)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, apperrors.Conflict("account login already exists")
		}
		return 0, fmt.Errorf("create account: %w", err)
	}

	acct.ID = id
	acct.CreatedAt = now
	acct.UpdatedAt = now
	return id, nil
}

// Update persists profile fields for an existing account.
func (r *AccountRepo) Update(ctx context.Context, acct *model.Account) error {
	if acct == nil || acct.ID == 0 {
		return apperrors.Validation("account with ID is required")
	}

	now := time.Now().UTC()
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx, `
			UPDATE accounts
			SET email = $2, first_name = $3, last_name = $4, display_name = $5, role = $6, updated_at = $7
			WHERE id = $1`,
			acct.ID, acct.Email, acct.FirstName, acct.LastName, acct.DisplayName, acct.Role, now)
		if execErr != nil {
			return execErr
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NotFoundf("account %d not found", acct.ID)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("update account: %w", err)
	}

	acct.UpdatedAt = now
	return nil
}

func scanAccount(row pgx.Row, acct *model.Account) error {
	return row.Scan(
		&acct.ID, &acct.Login, &acct.Email, &acct.FirstName, &acct.LastName,
		&acct.DisplayName, &acct.Role, &acct.PasswordHash, &acct.CreatedAt, &acct.UpdatedAt,
	)
}
