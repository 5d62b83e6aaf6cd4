// Package catalog imports fixed-price storefront packages into the local
// catalog so renewals can re-price them.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fastprodman/couponsync/internal/commerce"
	"github.com/fastprodman/couponsync/internal/repos/packages"
)

type ImportReport struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type Service struct {
	store    commerce.Storefront
	packages packages.Packages
}

func New(store commerce.Storefront, pkgs packages.Packages) *Service {
	return &Service{store: store, packages: pkgs}
}

// Import tracks every fixed-price storefront package not yet in the catalog,
// taking its current storefront price as the JPY base. Custom-price packages
// and packages already tracked are skipped.
func (s *Service) Import(ctx context.Context) (ImportReport, error) {
	remote, err := s.store.ListPackages(ctx)
	if err != nil {
		return ImportReport{}, fmt.Errorf("list storefront packages: %w", err)
	}

	var (
		rep  ImportReport
		rows = make([]packages.Package, 0, len(remote))
	)

	for _, p := range remote {
		if p.CustomPrice {
			rep.Skipped++
			continue
		}

		if p.Price.IsNegative() || !p.Price.IsInteger() {
			slog.WarnContext(ctx, "package price is not a whole yen amount, skipping",
				"package_id", p.ID, "name", p.Name, "price", p.Price.String())
			rep.Skipped++
			continue
		}

		rows = append(rows, packages.Package{RemoteID: p.ID, BaseYen: p.Price.IntPart()})
	}

	added, err := s.packages.InsertNew(ctx, rows)
	if err != nil {
		return ImportReport{}, fmt.Errorf("store packages: %w", err)
	}

	// already tracked packages keep their yen base
	rep.Imported = added
	rep.Skipped += len(rows) - added
	slog.InfoContext(ctx, "packages imported", "imported", rep.Imported, "skipped", rep.Skipped)

	return rep, nil
}
