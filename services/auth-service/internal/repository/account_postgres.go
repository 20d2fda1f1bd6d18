package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vasapolrittideah/landlordy-api/services/auth-service/internal/model"
)

const uniqueViolation = "23505"

// DBTX is the subset of database/sql used by the Postgres repository.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const accountColumns = `id, email, password_hash, first_name, last_name, email_verified,
		verification_token, verification_token_expires_at,
		password_reset_token, password_reset_token_expires_at,
		created_at, updated_at`

type accountPostgresRepository struct {
	db DBTX
}

// NewAccountPostgresRepository returns a Postgres backed AccountRepository.
func NewAccountPostgresRepository(db DBTX) AccountRepository {
	return &accountPostgresRepository{db: db}
}

func (r *accountPostgresRepository) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	verification, verificationExpiresAt := tokenColumns(account.VerificationToken)
	reset, resetExpiresAt := tokenColumns(account.PasswordResetToken)

	query := `INSERT INTO users (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.FirstName, account.LastName,
		account.EmailVerified, verification, verificationExpiresAt, reset, resetExpiresAt,
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *accountPostgresRepository) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *accountPostgresRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE email = $1`
	return r.queryOne(ctx, query, email)
}

func (r *accountPostgresRepository) GetAccountByVerificationToken(
	ctx context.Context,
	token string,
	now time.Time,
) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users
		WHERE verification_token = $1 AND verification_token_expires_at > $2`
	return r.queryOne(ctx, query, token, now)
}

func (r *accountPostgresRepository) GetAccountByPasswordResetToken(
	ctx context.Context,
	token string,
	now time.Time,
) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users
		WHERE password_reset_token = $1 AND password_reset_token_expires_at > $2`
	return r.queryOne(ctx, query, token, now)
}

func (r *accountPostgresRepository) UpdateAccount(
	ctx context.Context,
	id string,
	params UpdateAccountParams,
) (*model.Account, error) {
	return r.update(ctx, params, condition{"id", "=", id})
}

func (r *accountPostgresRepository) ConsumeVerificationToken(
	ctx context.Context,
	token string,
	now time.Time,
) (*model.Account, error) {
	verified := true
	return r.update(ctx,
		UpdateAccountParams{EmailVerified: &verified, ClearVerificationToken: true},
		condition{"verification_token", "=", token},
		condition{"verification_token_expires_at", ">", now},
	)
}

func (r *accountPostgresRepository) ConsumePasswordResetToken(
	ctx context.Context,
	token string,
	now time.Time,
	passwordHash string,
) (*model.Account, error) {
	return r.update(ctx,
		UpdateAccountParams{PasswordHash: &passwordHash, ClearPasswordResetToken: true},
		condition{"password_reset_token", "=", token},
		condition{"password_reset_token_expires_at", ">", now},
	)
}

type condition struct {
	column string
	op     string
	value  any
}

// update applies params to the row matching every condition. No matching row
// yields ErrAccountNotFound.
func (r *accountPostgresRepository) update(
	ctx context.Context,
	params UpdateAccountParams,
	where ...condition,
) (*model.Account, error) {
	if params.empty() {
		return nil, ErrNothingToUpdate
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.PasswordHash != nil {
		set("password_hash", *params.PasswordHash)
	}
	if params.FirstName != nil {
		set("first_name", *params.FirstName)
	}
	if params.LastName != nil {
		set("last_name", *params.LastName)
	}
	if params.EmailVerified != nil {
		set("email_verified", *params.EmailVerified)
	}

	switch {
	case params.ClearVerificationToken:
		set("verification_token", nil)
		set("verification_token_expires_at", nil)
	case params.VerificationToken != nil:
		set("verification_token", params.VerificationToken.Value)
		set("verification_token_expires_at", params.VerificationToken.ExpiresAt)
	}
	switch {
	case params.ClearPasswordResetToken:
		set("password_reset_token", nil)
		set("password_reset_token_expires_at", nil)
	case params.PasswordResetToken != nil:
		set("password_reset_token", params.PasswordResetToken.Value)
		set("password_reset_token_expires_at", params.PasswordResetToken.ExpiresAt)
	}

	set("updated_at", time.Now().UTC())

	conds := make([]string, 0, len(where))
	for _, c := range where {
		args = append(args, c.value)
		conds = append(conds, fmt.Sprintf("%s %s $%d", c.column, c.op, len(args)))
	}

	query := fmt.Sprintf(`UPDATE users SET %s WHERE %s RETURNING %s`,
		strings.Join(sets, ", "), strings.Join(conds, " AND "), accountColumns)

	return r.queryOne(ctx, query, args...)
}

func (r *accountPostgresRepository) ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	queries := []string{
		`UPDATE users SET verification_token = NULL, verification_token_expires_at = NULL
		 WHERE verification_token_expires_at <= $1`,
		`UPDATE users SET password_reset_token = NULL, password_reset_token_expires_at = NULL
		 WHERE password_reset_token_expires_at <= $1`,
	}

	var cleared int64
	for _, query := range queries {
		res, err := r.db.ExecContext(ctx, query, now)
		if err != nil {
			return cleared, fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return cleared, fmt.Errorf("db error: %w", err)
		}
		cleared += n
	}

	return cleared, nil
}

func (r *accountPostgresRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *accountPostgresRepository) queryOne(ctx context.Context, query string, args ...any) (*model.Account, error) {
	var (
		account               model.Account
		verification          sql.NullString
		verificationExpiresAt sql.NullTime
		reset                 sql.NullString
		resetExpiresAt        sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&account.ID, &account.Email, &account.PasswordHash, &account.FirstName, &account.LastName,
		&account.EmailVerified, &verification, &verificationExpiresAt, &reset, &resetExpiresAt,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	account.VerificationToken = tokenFromColumns(verification, verificationExpiresAt)
	account.PasswordResetToken = tokenFromColumns(reset, resetExpiresAt)

	return &account, nil
}

func tokenColumns(t *model.Token) (sql.NullString, sql.NullTime) {
	if t == nil {
		return sql.NullString{}, sql.NullTime{}
	}
	return sql.NullString{String: t.Value, Valid: true}, sql.NullTime{Time: t.ExpiresAt, Valid: true}
}

func tokenFromColumns(value sql.NullString, expiresAt sql.NullTime) *model.Token {
	if !value.Valid || !expiresAt.Valid {
		return nil
	}
	return &model.Token{Value: value.String, ExpiresAt: expiresAt.Time}
}
