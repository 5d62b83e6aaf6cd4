package coupons

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/couponsync/internal/infra/pgutils"
	"github.com/fastprodman/couponsync/internal/repos/coupons"
)

var _ coupons.Coupons = (*couponsRepo)(nil)

type couponsRepo struct{ db *sql.DB }

func New(db *sql.DB) *couponsRepo {
	return &couponsRepo{db: db}
}

func (r *couponsRepo) Insert(ctx context.Context, c coupons.Coupon) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coupons (id, code, yen)
		VALUES ($1, $2, $3)
	`, c.RemoteID, c.Code, c.FaceValue)
	if err != nil {
		switch {
		case pgutils.IsUniqueViolation(err, "coupons_code_key"):
			return coupons.ErrDuplicateCode
		case pgutils.IsUniqueViolation(err, "coupons_pkey"):
			return coupons.ErrDuplicateID
		}

		return fmt.Errorf("insert coupon: %w", err)
	}

	return nil
}

// Delete removes the row bound to remoteID. Deleting a missing row is not an
// error: the ledger already reflects the desired state.
func (r *couponsRepo) Delete(ctx context.Context, remoteID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM coupons
		WHERE id = $1
	`, remoteID)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}

	return nil
}

func (r *couponsRepo) List(ctx context.Context) ([]coupons.Coupon, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, yen
		FROM coupons
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var out []coupons.Coupon
	for rows.Next() {
		var c coupons.Coupon

		err = rows.Scan(&c.RemoteID, &c.Code, &c.FaceValue)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}

		out = append(out, c)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate coupons: %w", err)
	}

	return out, nil
}
