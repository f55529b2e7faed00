package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-booking-api/core/database"
	"go-booking-api/core/logger"
	"go-booking-api/modules/calendar/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const oneDefaultIndex = "idx_connected_accounts_one_default"

// isDefaultConflict reports a unique violation on the one-default-per-host index.
func isDefaultConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == oneDefaultIndex
}

// TokenCipher seals tokens before they reach the database.
type TokenCipher interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

type AccountRepositoryInterface interface {
	ListAccounts(ctx context.Context, hostID uuid.UUID) ([]entity.ConnectedAccount, error)
	GetAccount(ctx context.Context, key string) (*entity.ConnectedAccount, error)
	GetDefaultAccount(ctx context.Context, hostID uuid.UUID) (*entity.ConnectedAccount, error)
	UpsertAccount(ctx context.Context, acc *entity.ConnectedAccount) error
	UpdateTokens(ctx context.Context, key, accessToken, refreshToken string, expiresAt time.Time) error
	SetDefault(ctx context.Context, hostID uuid.UUID, key string) (bool, error)
	DeleteAccount(ctx context.Context, hostID uuid.UUID, key string) (string, error)
}

type AccountRepository struct {
	DB     database.Database
	cipher TokenCipher
}

func NewAccountRepository(db database.Database, cipher TokenCipher) *AccountRepository {
	return &AccountRepository{DB: db, cipher: cipher}
}

type accountRow struct {
	Key          string         `db:"key"`
	HostID       uuid.UUID      `db:"host_id"`
	AccountID    string         `db:"account_id"`
	Email        string         `db:"email"`
	AccessToken  sql.NullString `db:"access_token"`
	RefreshToken sql.NullString `db:"refresh_token"`
	ExpiresAt    sql.NullTime   `db:"expires_at"`
	IsDefault    bool           `db:"is_default"`
	ConnectedAt  time.Time      `db:"connected_at"`
}

const accountColumns = `key, host_id, account_id, email, access_token, refresh_token, expires_at, is_default, connected_at`

func (r *AccountRepository) toEntity(row accountRow) (entity.ConnectedAccount, error) {
	acc := entity.ConnectedAccount{
		Key:         row.Key,
		HostID:      row.HostID,
		AccountID:   row.AccountID,
		Email:       row.Email,
		IsDefault:   row.IsDefault,
		ConnectedAt: row.ConnectedAt,
	}
	if row.ExpiresAt.Valid {
		acc.ExpiresAt = row.ExpiresAt.Time
	}
	var err error
	if acc.AccessToken, err = r.open(row.AccessToken); err != nil {
		return acc, err
	}
	if acc.RefreshToken, err = r.open(row.RefreshToken); err != nil {
		return acc, err
	}
	return acc, nil
}

func (r *AccountRepository) open(v sql.NullString) (string, error) {
	if !v.Valid || v.String == "" {
		return "", nil
	}
	if r.cipher == nil {
		return v.String, nil
	}
	return r.cipher.Open(v.String)
}

func (r *AccountRepository) seal(v string) (sql.NullString, error) {
	if v == "" {
		return sql.NullString{}, nil
	}
	if r.cipher == nil {
		return sql.NullString{String: v, Valid: true}, nil
	}
	sealed, err := r.cipher.Seal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: sealed, Valid: true}, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// ListAccounts returns accounts oldest first.
func (r *AccountRepository) ListAccounts(ctx context.Context, hostID uuid.UUID) ([]entity.ConnectedAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM connected_accounts WHERE host_id = $1 ORDER BY connected_at ASC`

	var rows []accountRow
	if err := r.DB.SelectContext(ctx, &rows, query, hostID); err != nil {
		logger.Error("AccountRepository:ListAccounts:Error", "error", err, "host_id", hostID)
		return nil, err
	}

	accounts := make([]entity.ConnectedAccount, 0, len(rows))
	for _, row := range rows {
		acc, err := r.toEntity(row)
		if err != nil {
			logger.Error("AccountRepository:ListAccounts:Open:Error", "error", err, "key", row.Key)
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

func (r *AccountRepository) getOne(ctx context.Context, op, query string, args ...any) (*entity.ConnectedAccount, error) {
	var row accountRow
	if err := r.DB.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("AccountRepository:"+op+":Error", "error", err)
		return nil, err
	}
	acc, err := r.toEntity(row)
	if err != nil {
		logger.Error("AccountRepository:"+op+":Open:Error", "error", err, "key", row.Key)
		return nil, err
	}
	return &acc, nil
}

func (r *AccountRepository) GetAccount(ctx context.Context, key string) (*entity.ConnectedAccount, error) {
	return r.getOne(ctx, "GetAccount", `SELECT `+accountColumns+` FROM connected_accounts WHERE key = $1`, key)
}

func (r *AccountRepository) GetDefaultAccount(ctx context.Context, hostID uuid.UUID) (*entity.ConnectedAccount, error) {
	return r.getOne(ctx, "GetDefaultAccount",
		`SELECT `+accountColumns+` FROM connected_accounts WHERE host_id = $1 AND is_default LIMIT 1`, hostID)
}

// UpsertAccount inserts the account, or refreshes tokens when the host already
// linked the same provider account. A host's first account becomes its default.
// Key, IsDefault and ConnectedAt are filled from the stored row.
func (r *AccountRepository) UpsertAccount(ctx context.Context, acc *entity.ConnectedAccount) error {
	access, err := r.seal(acc.AccessToken)
	if err != nil {
		return err
	}
	refresh, err := r.seal(acc.RefreshToken)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO connected_accounts (key, host_id, account_id, email, access_token, refresh_token, expires_at, is_default, connected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			NOT EXISTS (SELECT 1 FROM connected_accounts WHERE host_id = $2 AND is_default),
			NOW())
		ON CONFLICT (host_id, account_id) DO UPDATE SET
			email = EXCLUDED.email,
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, connected_accounts.refresh_token),
			expires_at = EXCLUDED.expires_at
		RETURNING key, is_default, connected_at
	`
	args := []any{acc.Key, acc.HostID, acc.AccountID, acc.Email, access, refresh, nullTime(acc.ExpiresAt)}
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(&acc.Key, &acc.IsDefault, &acc.ConnectedAt)
	if isDefaultConflict(err) {
		// a concurrent first connect won the default; the retry sees it and inserts as non-default
		err = r.DB.QueryRowContext(ctx, query, args...).Scan(&acc.Key, &acc.IsDefault, &acc.ConnectedAt)
	}
	if err != nil {
		logger.Error("AccountRepository:UpsertAccount:Error", "error", err, "host_id", acc.HostID)
		return err
	}
	return nil
}

// UpdateTokens stores a refreshed credential. An empty refreshToken keeps the stored one.
func (r *AccountRepository) UpdateTokens(ctx context.Context, key, accessToken, refreshToken string, expiresAt time.Time) error {
	access, err := r.seal(accessToken)
	if err != nil {
		return err
	}
	refresh, err := r.seal(refreshToken)
	if err != nil {
		return err
	}

	query := `
		UPDATE connected_accounts
		SET access_token = $2, refresh_token = COALESCE($3, refresh_token), expires_at = $4
		WHERE key = $1
	`
	if err := r.DB.ExecContext(ctx, query, key, access, refresh, nullTime(expiresAt)); err != nil {
		logger.Error("AccountRepository:UpdateTokens:Error", "error", err, "key", key)
		return err
	}
	return nil
}

// SetDefault moves the default flag to key. The old default is cleared before
// the new one is set so idx_connected_accounts_one_default holds after each
// statement. Returns false when key is not one of the host's accounts.
func (r *AccountRepository) SetDefault(ctx context.Context, hostID uuid.UUID, key string) (bool, error) {
	found := false
	err := r.DB.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT 1 FROM connected_accounts WHERE host_id = $1 FOR UPDATE`, hostID); err != nil {
			return err
		}

		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM connected_accounts WHERE host_id = $1 AND key = $2)`,
			hostID, key,
		).Scan(&exists)
		if err != nil || !exists {
			return err
		}
		found = true

		if _, err := tx.ExecContext(ctx,
			`UPDATE connected_accounts SET is_default = FALSE WHERE host_id = $1 AND is_default AND key <> $2`,
			hostID, key,
		); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE connected_accounts SET is_default = TRUE WHERE host_id = $1 AND key = $2`,
			hostID, key,
		)
		return err
	})
	if err != nil {
		logger.Error("AccountRepository:SetDefault:Error", "error", err, "host_id", hostID, "key", key)
		return false, err
	}
	return found, nil
}

// DeleteAccount removes the account and, if it was the default, promotes the
// oldest remaining one. Returns the promoted key or "".
func (r *AccountRepository) DeleteAccount(ctx context.Context, hostID uuid.UUID, key string) (string, error) {
	var promoted string
	err := r.DB.WithTx(ctx, func(tx *sqlx.Tx) error {
		// serialize concurrent disconnects of the same host
		if _, err := tx.ExecContext(ctx, `SELECT 1 FROM connected_accounts WHERE host_id = $1 FOR UPDATE`, hostID); err != nil {
			return err
		}

		var wasDefault bool
		err := tx.QueryRowContext(ctx,
			`DELETE FROM connected_accounts WHERE host_id = $1 AND key = $2 RETURNING is_default`,
			hostID, key,
		).Scan(&wasDefault)
		if err != nil {
			return err
		}
		if !wasDefault {
			return nil
		}

		err = tx.QueryRowContext(ctx, `
			UPDATE connected_accounts SET is_default = TRUE
			WHERE key = (
				SELECT key FROM connected_accounts WHERE host_id = $1
				ORDER BY connected_at ASC LIMIT 1
			)
			RETURNING key
		`, hostID).Scan(&promoted)
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		logger.Error("AccountRepository:DeleteAccount:Error", "error", err, "host_id", hostID, "key", key)
		return "", err
	}
	return promoted, nil
}
