package packages

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/couponsync/internal/infra/pgutils"
	"github.com/fastprodman/couponsync/internal/repos/packages"
)

var _ packages.Packages = (*packagesRepo)(nil)

type packagesRepo struct{ db *sql.DB }

func New(db *sql.DB) *packagesRepo {
	return &packagesRepo{db: db}
}

const insertPackage = `
	INSERT INTO packages (id, yen)
	VALUES ($1, $2)
	ON CONFLICT (id) DO NOTHING
`

// InsertNew writes the batch in one transaction so an import either lands
// completely or not at all.
func (r *packagesRepo) InsertNew(ctx context.Context, ps []packages.Package) (int, error) {
	var added int

	err := pgutils.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertPackage)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range ps {
			res, err := stmt.ExecContext(ctx, p.RemoteID, p.BaseYen)
			if err != nil {
				return fmt.Errorf("insert package %d: %w", p.RemoteID, err)
			}

			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected for package %d: %w", p.RemoteID, err)
			}

			added += int(n)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("insert packages: %w", err)
	}

	return added, nil
}

func (r *packagesRepo) List(ctx context.Context) ([]packages.Package, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, yen
		FROM packages
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var out []packages.Package
	for rows.Next() {
		var p packages.Package

		err = rows.Scan(&p.RemoteID, &p.BaseYen)
		if err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}

		out = append(out, p)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}

	return out, nil
}
