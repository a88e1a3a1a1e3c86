package sqlstore

import (
	"context"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
)

type loginAttemptsRepo struct {
	conn
}

func (r *loginAttemptsRepo) GetAttempt(ctx context.Context, key domain.ThrottleKey) (domain.LoginAttempt, error) {
	var row loginAttemptRow
	err := r.get(ctx, &row, `
		SELECT realm, scope_key, client_key, failures, window_ends_at, updated_at
		FROM login_attempts
		WHERE realm = ? AND scope_key = ? AND client_key = ?`,
		string(key.Realm), key.ScopeKey, key.Client)
	if err != nil {
		return domain.LoginAttempt{}, err
	}
	return row.toDomain(), nil
}

// IncrementAttempt is a single upsert so concurrent attempts for the same key
// serialize on the row and none of them is lost. SET expressions read the
// pre-update row in both sqlite and postgres. Only the attempt that reaches
// maxAttempts moves the window; attempts charged past it leave the lock as is.
func (r *loginAttemptsRepo) IncrementAttempt(
	ctx context.Context,
	key domain.ThrottleKey,
	maxAttempts int,
	now, windowEndsAt time.Time,
) (domain.LoginAttempt, error) {
	var row loginAttemptRow
	err := r.get(ctx, &row, `
		INSERT INTO login_attempts (realm, scope_key, client_key, failures, window_ends_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT (realm, scope_key, client_key) DO UPDATE SET
			failures = CASE
				WHEN login_attempts.window_ends_at <= ? THEN 1
				ELSE login_attempts.failures + 1
			END,
			window_ends_at = CASE
				WHEN login_attempts.window_ends_at <= ? THEN excluded.window_ends_at
				WHEN login_attempts.failures + 1 = ? THEN excluded.window_ends_at
				ELSE login_attempts.window_ends_at
			END,
			updated_at = excluded.updated_at
		RETURNING realm, scope_key, client_key, failures, window_ends_at, updated_at`,
		string(key.Realm), key.ScopeKey, key.Client, windowEndsAt.UTC(), now.UTC(),
		now.UTC(), now.UTC(), maxAttempts,
	)
	if err != nil {
		return domain.LoginAttempt{}, err
	}
	return row.toDomain(), nil
}

func (r *loginAttemptsRepo) ResetAttempts(ctx context.Context, key domain.ThrottleKey) error {
	_, err := r.exec(ctx,
		`DELETE FROM login_attempts WHERE realm = ? AND scope_key = ? AND client_key = ?`,
		string(key.Realm), key.ScopeKey, key.Client)
	return err
}

func (r *loginAttemptsRepo) ReleaseAttempt(ctx context.Context, key domain.ThrottleKey) error {
	_, err := r.exec(ctx, `
		UPDATE login_attempts SET failures = failures - 1
		WHERE realm = ? AND scope_key = ? AND client_key = ? AND failures > 0`,
		string(key.Realm), key.ScopeKey, key.Client)
	return err
}

func (r *loginAttemptsRepo) DeleteElapsedAttempts(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.exec(ctx, `DELETE FROM login_attempts WHERE window_ends_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
