// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// PostgreSQL implementations of the auth domain repositories.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/paperchat/internal/platform/apperr"
	"github.com/taibuivan/paperchat/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new user record into the users table.

Description: The database assigns the numeric ID and creation timestamp,
which are written back into the entity.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email/username, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users (username, email, password, is_verified, auth_type, role)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		RETURNING id, created_at`

	err := repository.pool.QueryRow(context, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		user.AuthType,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict(MsgAlreadyRegistered)
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT id, username, email, COALESCE(password, ''), is_verified, auth_type, role, created_at
		FROM users
		WHERE email = $1`

	user := &User{}
	err := repository.pool.QueryRow(context, query, email).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsVerified,
		&user.AuthType,
		&user.Role,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindByID retrieves a user record by their unique ID.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *User: Hydrated account entity
  - error: Not found or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id int64) (*User, error) {
	const query = `
		SELECT id, username, email, COALESCE(password, ''), is_verified, auth_type, role, created_at
		FROM users
		WHERE id = $1`

	user := &User{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsVerified,
		&user.AuthType,
		&user.Role,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
MarkVerified updates the user's status to is_verified = true.

Description: Post-verification step to activate the account.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: Database errors
*/
func (repository *PostgresUserRepository) MarkVerified(context context.Context, email string) error {
	const query = "UPDATE users SET is_verified = TRUE WHERE email = $1"
	_, err := repository.pool.Exec(context, query, email)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_verified_failed: %w", err)
	}
	return nil
}

// # Verification Repository

// PostgresVerificationRepository implements the VerificationRepository interface.
type PostgresVerificationRepository struct {
	pool *pgxpool.Pool
}

// NewVerificationRepository creates a new PostgreSQL implementation of VerificationRepository.
func NewVerificationRepository(pool *pgxpool.Pool) *PostgresVerificationRepository {
	return &PostgresVerificationRepository{pool: pool}
}

/*
Create stores the OTP issued to an email at signup.

Description: One row per email; a re-signup attempt replaces the pending code.

Parameters:
  - context: context.Context
  - record: *VerificationRecord

Returns:
  - error: Storage failures
*/
func (repository *PostgresVerificationRepository) Create(context context.Context, record *VerificationRecord) error {
	const query = `
		INSERT INTO user_verification (email, otp)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET otp = EXCLUDED.otp`

	_, err := repository.pool.Exec(context, query, record.Email, record.OTP)
	if err != nil {
		return fmt.Errorf("postgres_verification_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindMatch returns the record matching both email and OTP exactly.

Parameters:
  - context: context.Context
  - email: string
  - otp: string

Returns:
  - *VerificationRecord: Hydrated entity
  - error: 400-status NOT_FOUND error on miss (legacy API contract), or execution errors
*/
func (repository *PostgresVerificationRepository) FindMatch(context context.Context, email, otp string) (*VerificationRecord, error) {
	const query = "SELECT email, otp FROM user_verification WHERE email = $1 AND otp = $2"

	record := &VerificationRecord{}
	err := repository.pool.QueryRow(context, query, email, otp).Scan(&record.Email, &record.OTP)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New("NOT_FOUND", MsgInvalidOTP, 400)
		}
		return nil, fmt.Errorf("postgres_verification_repo_find_failed: %w", err)
	}

	return record, nil
}

/*
Delete removes the verification record after a successful match.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: Deletion failures
*/
func (repository *PostgresVerificationRepository) Delete(context context.Context, email string) error {
	const query = "DELETE FROM user_verification WHERE email = $1"
	_, err := repository.pool.Exec(context, query, email)
	if err != nil {
		return fmt.Errorf("postgres_verification_repo_delete_failed: %w", err)
	}
	return nil
}

// # OAuth Identity Repository

// PostgresOAuthIdentityRepository implements the OAuthIdentityRepository interface.
type PostgresOAuthIdentityRepository struct {
	pool *pgxpool.Pool
}

// NewOAuthIdentityRepository creates a new PostgreSQL implementation of OAuthIdentityRepository.
func NewOAuthIdentityRepository(pool *pgxpool.Pool) *PostgresOAuthIdentityRepository {
	return &PostgresOAuthIdentityRepository{pool: pool}
}

/*
Create persists a new provider link for a user.

Parameters:
  - context: context.Context
  - identity: *OAuthIdentity

Returns:
  - error: apperr.Conflict on duplicate (provider, provider_id), or storage failures
*/
func (repository *PostgresOAuthIdentityRepository) Create(context context.Context, identity *OAuthIdentity) error {
	const query = `
		INSERT INTO oauth_method (user_id, provider, provider_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := repository.pool.QueryRow(context, query,
		identity.UserID,
		identity.Provider,
		identity.ProviderID,
	).Scan(&identity.ID, &identity.CreatedAt)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Provider identity already linked")
		}
		return fmt.Errorf("postgres_oauth_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindBySubject returns the identity for (provider, providerID).

Parameters:
  - context: context.Context
  - provider: string
  - providerID: string

Returns:
  - *OAuthIdentity: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresOAuthIdentityRepository) FindBySubject(context context.Context, provider, providerID string) (*OAuthIdentity, error) {
	const query = `
		SELECT id, user_id, provider, provider_id, created_at
		FROM oauth_method
		WHERE provider = $1 AND provider_id = $2`

	identity := &OAuthIdentity{}
	err := repository.pool.QueryRow(context, query, provider, providerID).Scan(
		&identity.ID,
		&identity.UserID,
		&identity.Provider,
		&identity.ProviderID,
		&identity.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("OAuth identity")
		}
		return nil, fmt.Errorf("postgres_oauth_repo_find_by_subject_failed: %w", err)
	}

	return identity, nil
}

/*
FindByUserID returns all provider links for a user.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - []OAuthIdentity: Possibly empty slice
  - error: Execution errors
*/
func (repository *PostgresOAuthIdentityRepository) FindByUserID(context context.Context, userID int64) ([]OAuthIdentity, error) {
	const query = `
		SELECT id, user_id, provider, provider_id, created_at
		FROM oauth_method
		WHERE user_id = $1
		ORDER BY created_at`

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_oauth_repo_find_by_user_failed: %w", err)
	}
	defer rows.Close()

	var identities []OAuthIdentity
	for rows.Next() {
		var identity OAuthIdentity
		if err := rows.Scan(
			&identity.ID,
			&identity.UserID,
			&identity.Provider,
			&identity.ProviderID,
			&identity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_oauth_repo_scan_failed: %w", err)
		}
		identities = append(identities, identity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_oauth_repo_rows_failed: %w", err)
	}

	return identities, nil
}

// # Session Repository

// PostgresSessionRepository implements the SessionRepository interface.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

/*
FindByUserID returns the session row for a user, live or expired.

Description: Expiry is evaluated by the caller against Session.ExpiresAt; the
query does not filter on it.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *Session: Hydrated session
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresSessionRepository) FindByUserID(context context.Context, userID int64) (*Session, error) {
	const query = `
		SELECT id, user_id, session_token, expires_at
		FROM user_sessions
		WHERE user_id = $1`

	session := &Session{}
	err := repository.pool.QueryRow(context, query, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_failed: %w", err)
	}

	return session, nil
}

/*
Upsert atomically installs a session for a user unless a live one exists.

Description: Single-statement conditional upsert against the UNIQUE(user_id)
constraint. The update branch fires only when the stored row has expired, so
two concurrent logins cannot both install a token; the loser reads back the
winner's row.

Parameters:
  - context: context.Context
  - session: *Session (candidate token and expiry)

Returns:
  - *Session: The authoritative session after the operation
  - bool: true if the candidate was installed
  - error: Persistence failures
*/
func (repository *PostgresSessionRepository) Upsert(context context.Context, session *Session) (*Session, bool, error) {
	const query = `
		INSERT INTO user_sessions (user_id, session_token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET session_token = EXCLUDED.session_token, expires_at = EXCLUDED.expires_at
		WHERE user_sessions.expires_at <= NOW()
		RETURNING id, user_id, session_token, expires_at`

	installed := &Session{}
	err := repository.pool.QueryRow(context, query,
		session.UserID,
		session.Token,
		session.ExpiresAt,
	).Scan(
		&installed.ID,
		&installed.UserID,
		&installed.Token,
		&installed.ExpiresAt,
	)

	if err == nil {
		return installed, true, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("postgres_session_repo_upsert_failed: %w", err)
	}

	// Zero rows returned: a concurrent live session won the conflict.
	// Read it back and report the candidate as not installed.
	winner, findErr := repository.FindByUserID(context, session.UserID)
	if findErr != nil {
		return nil, false, fmt.Errorf("postgres_session_repo_upsert_readback_failed: %w", findErr)
	}

	return winner, false, nil
}

/*
DeleteExpired removes expired session rows for the given user only.

Description: Lazy inline cleanup invoked on the affected user's next login.
There is no background sweep.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - error: Cleanup failures
*/
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context, userID int64) error {
	const query = "DELETE FROM user_sessions WHERE user_id = $1 AND expires_at <= NOW()"
	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err)
	}

	return nil
}
