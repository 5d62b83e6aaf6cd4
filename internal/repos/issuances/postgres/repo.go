package issuances

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/couponsync/internal/infra/pgutils"
	"github.com/fastprodman/couponsync/internal/repos/issuances"
)

var _ issuances.Keys = (*keysRepo)(nil)

type keysRepo struct{ db *sql.DB }

func New(db *sql.DB) *keysRepo {
	return &keysRepo{db: db}
}

func (r *keysRepo) Claim(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO issuance_keys (key)
		VALUES ($1)
	`, key)
	if err != nil {
		if pgutils.IsUniqueViolation(err, "") {
			return issuances.ErrKeyClaimed
		}

		return fmt.Errorf("claim issuance key: %w", err)
	}

	return nil
}

func (r *keysRepo) Complete(ctx context.Context, key, code string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE issuance_keys
		SET code = $2
		WHERE key = $1
	`, key, code)
	if err != nil {
		return fmt.Errorf("complete issuance key: %w", err)
	}

	return nil
}

// Release only drops claims that never produced a coupon.
func (r *keysRepo) Release(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM issuance_keys
		WHERE key = $1 AND code IS NULL
	`, key)
	if err != nil {
		return fmt.Errorf("release issuance key: %w", err)
	}

	return nil
}
