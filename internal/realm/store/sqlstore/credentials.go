package sqlstore

import (
	"context"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
)

type credentialsRepo struct {
	conn
}

const credentialColumns = `id, token_hash, realm, owner_id, tenant_id, abilities, issued_at, expires_at, revoked_at, last_used_at`

func (r *credentialsRepo) CreateCredential(ctx context.Context, c domain.Credential) error {
	_, err := r.exec(ctx, `
		INSERT INTO credentials (`+credentialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.TokenHash, string(c.Realm), c.OwnerID, mapStringNull(c.TenantID),
		joinAbilities(c.Abilities), c.IssuedAt.UTC(), c.ExpiresAt.UTC(),
		mapOptionalTime(c.RevokedAt), mapOptionalTime(c.LastUsedAt),
	)
	return err
}

func (r *credentialsRepo) GetCredentialByHash(ctx context.Context, hash string) (domain.Credential, error) {
	var row credentialRow
	if err := r.get(ctx, &row, `SELECT `+credentialColumns+` FROM credentials WHERE token_hash = ?`, hash); err != nil {
		return domain.Credential{}, err
	}
	return row.toDomain(), nil
}

func (r *credentialsRepo) RevokeCredential(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.exec(ctx,
		`UPDATE credentials SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		at.UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *credentialsRepo) RevokeAllForOwner(
	ctx context.Context,
	realm domain.Realm,
	ownerID string,
	at time.Time,
) (int64, error) {
	res, err := r.exec(ctx,
		`UPDATE credentials SET revoked_at = ? WHERE realm = ? AND owner_id = ? AND revoked_at IS NULL`,
		at.UTC(), string(realm), ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *credentialsRepo) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	_, err := r.exec(ctx, `UPDATE credentials SET last_used_at = ? WHERE id = ?`, at.UTC(), id)
	return err
}

func (r *credentialsRepo) DeleteStaleCredentials(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.exec(ctx,
		`DELETE FROM credentials WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)`,
		cutoff.UTC(), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
