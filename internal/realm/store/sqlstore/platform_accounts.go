package sqlstore

import (
	"context"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
)

type platformAccountsRepo struct {
	conn
}

const platformAccountColumns = `id, name, email, password_hash, status, last_login_at, created_at, updated_at`

func (r *platformAccountsRepo) CreateAccount(ctx context.Context, a domain.PlatformAccount) error {
	_, err := r.exec(ctx, `
		INSERT INTO platform_accounts (`+platformAccountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Email, a.PasswordHash, string(a.Status),
		mapOptionalTime(a.LastLoginAt), a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	return err
}

func (r *platformAccountsRepo) GetAccountByID(ctx context.Context, id string) (domain.PlatformAccount, error) {
	var row platformAccountRow
	if err := r.get(ctx, &row, `SELECT `+platformAccountColumns+` FROM platform_accounts WHERE id = ?`, id); err != nil {
		return domain.PlatformAccount{}, err
	}
	return row.toDomain(), nil
}

func (r *platformAccountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.PlatformAccount, error) {
	var row platformAccountRow
	if err := r.get(ctx, &row, `SELECT `+platformAccountColumns+` FROM platform_accounts WHERE email = ?`, email); err != nil {
		return domain.PlatformAccount{}, err
	}
	return row.toDomain(), nil
}

func (r *platformAccountsRepo) UpdateAccountStatus(
	ctx context.Context,
	id string,
	status domain.Status,
	at time.Time,
) error {
	return r.execOne(ctx, `UPDATE platform_accounts SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), at.UTC(), id)
}

func (r *platformAccountsRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.execOne(ctx,
		`UPDATE platform_accounts SET last_login_at = ? WHERE id = ? AND status = ?`,
		at.UTC(), id, string(domain.StatusActive))
}

func (r *platformAccountsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.get(ctx, &count, `SELECT COUNT(*) FROM platform_accounts`); err != nil {
		return false, err
	}
	return count == 0, nil
}
